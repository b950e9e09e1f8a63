// Package postgresengine provides the PostgreSQL implementation of the games
// logistics data-access layer.
//
// This package implements member directory, reporting, medal aggregation, and
// journey reservation operations against the games schema, supporting
// multiple database adapters (pgx, sql.DB, sqlx) with transactional
// concurrency control on the reservation path.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Capacity-safe journey booking with row locking and guarded updates
//   - Country medal table combining individual and team medal sources
//   - Dual-logger support plus optional metrics and tracing collectors
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewStoreFromPGXPool(db)
//
//	// With operational logging and metrics
//	store, _ := postgresengine.NewStoreFromPGXPool(
//		db,
//		postgresengine.WithContextualLogger(logger),
//		postgresengine.WithMetrics(collector),
//	)
//
//	profile, _ := store.CheckLogin(ctx, memberID, password)
//	booking, err := store.Book(ctx, staffID, travelerID, vehicle, departs)
package postgresengine
