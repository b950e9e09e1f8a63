// Package adapters provides database adapter implementations for the
// PostgreSQL store.
//
// This package implements the adapter pattern to support multiple PostgreSQL
// database libraries: pgx.Pool, sql.DB, and sqlx.DB. All adapters provide
// equivalent functionality through a common DBAdapter interface, allowing
// the store to work seamlessly with any supported database connection type.
//
// In addition to plain query and exec execution, the adapters expose scoped
// transactions through the DBTx interface; the reservation path depends on
// these to keep its capacity check and its writes atomic.
package adapters
