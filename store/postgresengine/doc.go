// Package postgresengine implements the circulation store on PostgreSQL.
//
// It works with three connection types (pgxpool.Pool, sql.DB via lib/pq, sqlx.DB) and renders
// every statement with goqu's postgres dialect. Multi-record commits run in one transaction and
// are guarded by compare-and-swap conditions; a guard that matches zero rows rolls the transaction
// back and yields store.ErrConcurrencyConflict.
//
// Usage:
//
//	engine, err := postgresengine.NewEngineFromPGXPool(pool, postgresengine.WithLogger(slog.Default()))
//	if err != nil { ... }
//	if err := engine.Migrate(ctx); err != nil { ... }
package postgresengine
