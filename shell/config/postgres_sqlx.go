package config

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// PostgresSQLXDB opens a configured *sqlx.DB on the lib/pq driver.
func PostgresSQLXDB(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := PostgresSQLDB(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return sqlx.NewDb(db, driverPostgres), nil
}
