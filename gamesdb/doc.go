// Package gamesdb provides the domain types and error taxonomy for the
// games logistics data-access layer.
//
// The package itself performs no I/O. It defines the typed records returned
// by the storage engine (profiles, journeys, bookings, results, medal
// tallies) and the sentinel errors callers test against with errors.Is.
//
// The engine lives in gamesdb/postgresengine and is constructed from an
// existing database connection:
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	store, _ := postgresengine.NewStoreFromPGXPool(pool)
//
//	profile, err := store.CheckLogin(ctx, memberID, password)
//	if errors.Is(err, gamesdb.ErrInvalidCredentials) {
//		// reject the login
//	}
package gamesdb
