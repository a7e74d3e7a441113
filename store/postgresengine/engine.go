package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/Jehd061990/liber/store"
	"github.com/Jehd061990/liber/store/postgresengine/internal/adapters"
)

const dialectPostgres = "postgres"

// Engine is the PostgreSQL implementation of the circulation store.
type Engine struct {
	db               adapters.DBAdapter
	logger           store.Logger
	contextualLogger store.ContextualLogger
	metricsCollector store.MetricsCollector
}

// sqlStatement is implemented by all goqu datasets.
type sqlStatement interface {
	ToSQL() (string, []any, error)
}

// NewEngineFromPGXPool creates a new Engine using a pgx Pool with optional configuration.
func NewEngineFromPGXPool(db *pgxpool.Pool, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, store.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(db), options)
}

// NewEngineFromPGXPoolAndReplica creates a new Engine that serves eventually consistent reads from the replica pool.
func NewEngineFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*Engine, error) {
	if db == nil || replica == nil {
		return nil, store.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapterWithReplica(db, replica), options)
}

// NewEngineFromSQLDB creates a new Engine using a sql.DB with optional configuration.
func NewEngineFromSQLDB(db *sql.DB, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, store.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), options)
}

// NewEngineFromSQLDBAndReplica creates a new Engine on sql.DB handles for primary and replica.
func NewEngineFromSQLDBAndReplica(db *sql.DB, replica *sql.DB, options ...Option) (*Engine, error) {
	if db == nil || replica == nil {
		return nil, store.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapterWithReplica(db, replica), options)
}

// NewEngineFromSQLX creates a new Engine using a sqlx.DB with optional configuration.
func NewEngineFromSQLX(db *sqlx.DB, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, store.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), options)
}

func newEngine(db adapters.DBAdapter, options []Option) (*Engine, error) {
	engine := &Engine{db: db}

	for _, option := range options {
		if err := option(engine); err != nil {
			return nil, err
		}
	}

	return engine, nil
}

func builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// toSQL renders a statement with all values inlined.
func (e *Engine) toSQL(ctx context.Context, action string, stmt sqlStatement) (string, error) {
	sqlQuery, _, err := stmt.ToSQL()
	if err != nil {
		e.logError(ctx, logMsgBuildQueryFailed, err, logAttrAction, action)
		return "", errors.Join(store.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

// query runs a select on the given executor; the caller closes the rows.
func (e *Engine) query(ctx context.Context, db adapters.Executor, action string, stmt sqlStatement) (adapters.DBRows, error) {
	sqlQuery, err := e.toSQL(ctx, action, stmt)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, queryErr := db.Query(ctx, sqlQuery)
	e.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if queryErr != nil {
		e.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrAction, action, logAttrQuery, sqlQuery)
		e.recordErrorMetrics(ctx, action, errorTypeQuery)

		return nil, errors.Join(store.ErrQueryingFailed, queryErr)
	}

	return rows, nil
}

// exec runs a write statement and returns the number of affected rows.
func (e *Engine) exec(ctx context.Context, db adapters.Executor, action string, stmt sqlStatement) (int64, error) {
	sqlQuery, err := e.toSQL(ctx, action, stmt)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	result, execErr := db.Exec(ctx, sqlQuery)
	e.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if execErr != nil {
		e.logError(ctx, logMsgDBExecFailed, execErr, logAttrAction, action, logAttrQuery, sqlQuery)
		e.recordErrorMetrics(ctx, action, errorTypeExec)

		return 0, errors.Join(store.ErrCommitFailed, execErr)
	}

	rowsAffected, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		e.logError(ctx, logMsgRowsAffectedFailed, rowsErr, logAttrAction, action)
		return 0, errors.Join(store.ErrCommitFailed, rowsErr)
	}

	return rowsAffected, nil
}

// execGuarded runs a guarded write and reports store.ErrConcurrencyConflict when the guard matched no row.
func (e *Engine) execGuarded(ctx context.Context, db adapters.Executor, action string, stmt sqlStatement) error {
	rowsAffected, err := e.exec(ctx, db, action, stmt)
	if err != nil {
		return err
	}

	if rowsAffected < 1 {
		e.logOperation(ctx, logMsgConcurrencyConflict, logAttrAction, action, logAttrRowsAffected, rowsAffected)
		e.recordConflictMetrics(ctx, action)

		return store.ErrConcurrencyConflict
	}

	return nil
}

// inTx runs fn in a transaction on the primary; any error from fn rolls the transaction back.
func (e *Engine) inTx(ctx context.Context, action string, fn func(tx adapters.DBTx) error) error {
	start := time.Now()

	tx, err := e.db.BeginTx(ctx)
	if err != nil {
		e.logError(ctx, logMsgBeginTxFailed, err, logAttrAction, action)
		e.recordErrorMetrics(ctx, action, errorTypeTx)

		return errors.Join(store.ErrCommitFailed, err)
	}

	if fnErr := fn(tx); fnErr != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			e.logWarn(ctx, logMsgRollbackFailed, rollbackErr, logAttrAction, action)
		}

		e.recordDurationMetrics(ctx, action, statusOf(fnErr), time.Since(start))

		return fnErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		e.logError(ctx, logMsgCommitFailed, commitErr, logAttrAction, action)
		e.recordErrorMetrics(ctx, action, errorTypeTx)

		return errors.Join(store.ErrCommitFailed, commitErr)
	}

	duration := time.Since(start)
	e.recordDurationMetrics(ctx, action, statusSuccess, duration)
	e.logOperation(ctx, logMsgCommitted+action, logAttrDurationMS, toMilliseconds(duration))

	return nil
}

// closeRows closes database rows and logs failures.
func (e *Engine) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		e.logWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}
