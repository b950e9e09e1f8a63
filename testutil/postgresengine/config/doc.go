// Package config provides database connection configurations for tests,
// covering all three supported adapters (pgx pool, sql.DB, sqlx).
package config
