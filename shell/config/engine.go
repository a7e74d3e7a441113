package config

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jehd061990/liber/store/postgresengine"
)

// OpenEngine connects with the configured adapter and returns the engine together with a function
// that closes all connections. The replica DSN is honoured by the pgx.pool and sql.db adapters.
func OpenEngine(ctx context.Context, cfg Config, options ...postgresengine.Option) (*postgresengine.Engine, func(), error) {
	switch cfg.AdapterType {
	case AdapterSQLDB:
		return openSQLDBEngine(ctx, cfg, options)
	case AdapterSQLXDB:
		db, err := PostgresSQLXDB(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}

		engine, err := postgresengine.NewEngineFromSQLX(db, options...)
		if err != nil {
			return nil, nil, errors.Join(err, db.Close())
		}

		return engine, func() { _ = db.Close() }, nil
	default:
		return openPGXEngine(ctx, cfg, options)
	}
}

func openPGXPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := PostgresPGXPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func openPGXEngine(ctx context.Context, cfg Config, options []postgresengine.Option) (*postgresengine.Engine, func(), error) {
	primary, err := openPGXPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}

	if cfg.PostgresReplicaDSN == "" {
		engine, engineErr := postgresengine.NewEngineFromPGXPool(primary, options...)
		if engineErr != nil {
			primary.Close()
			return nil, nil, engineErr
		}

		return engine, primary.Close, nil
	}

	replica, err := openPGXPool(ctx, cfg.PostgresReplicaDSN)
	if err != nil {
		primary.Close()
		return nil, nil, err
	}

	closeAll := func() {
		replica.Close()
		primary.Close()
	}

	engine, err := postgresengine.NewEngineFromPGXPoolAndReplica(primary, replica, options...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	return engine, closeAll, nil
}

func openSQLDBEngine(ctx context.Context, cfg Config, options []postgresengine.Option) (*postgresengine.Engine, func(), error) {
	primary, err := PostgresSQLDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}

	var replica *sql.DB
	if cfg.PostgresReplicaDSN != "" {
		if replica, err = PostgresSQLDB(ctx, cfg.PostgresReplicaDSN); err != nil {
			return nil, nil, errors.Join(err, primary.Close())
		}
	}

	closeAll := func() {
		if replica != nil {
			_ = replica.Close()
		}

		_ = primary.Close()
	}

	var engine *postgresengine.Engine
	if replica != nil {
		engine, err = postgresengine.NewEngineFromSQLDBAndReplica(primary, replica, options...)
	} else {
		engine, err = postgresengine.NewEngineFromSQLDB(primary, options...)
	}

	if err != nil {
		closeAll()
		return nil, nil, err
	}

	return engine, closeAll, nil
}
