// Package postgreswrapper connects integration tests to a real PostgreSQL database.
//
// Tests are skipped unless LIBER_TEST_POSTGRES_DSN is set. LIBER_ADAPTER_TYPE picks the adapter
// (pgx.pool, sql.db or sqlx.db) so the same tests run against all three.
package postgreswrapper

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Jehd061990/liber/shell/config"
	"github.com/Jehd061990/liber/store/postgresengine"
)

const (
	EnvTestPostgresDSN = "LIBER_TEST_POSTGRES_DSN"

	setupTimeout = 10 * time.Second

	truncateAll = "TRUNCATE TABLE reservations, fines, loans, readers, books"
)

// Wrapper holds an engine and a plain connection for arranging and cleaning up test data.
type Wrapper struct {
	engine  *postgresengine.Engine
	raw     *sql.DB
	closeDB func()
}

// Engine returns the engine under test.
func (w *Wrapper) Engine() *postgresengine.Engine {
	return w.engine
}

// Close releases all connections.
func (w *Wrapper) Close() {
	w.closeDB()
	_ = w.raw.Close()
}

// CleanUp empties all tables.
func (w *Wrapper) CleanUp(t testing.TB) {
	t.Helper()

	_, err := w.raw.Exec(truncateAll)
	require.NoError(t, err, "error cleaning up the tables")
}

// Exec runs a statement on the plain connection, e.g. to put a row into a state no command produces.
func (w *Wrapper) Exec(t testing.TB, query string, args ...any) {
	t.Helper()

	_, err := w.raw.Exec(query, args...)
	require.NoError(t, err, "error in arranging test data")
}

// CreateWrapper connects with the adapter chosen by LIBER_ADAPTER_TYPE, migrates the schema and empties all tables.
// The wrapper is closed when the test ends.
func CreateWrapper(t testing.TB, options ...postgresengine.Option) *Wrapper {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv(EnvTestPostgresDSN))
	if dsn == "" {
		t.Skip(EnvTestPostgresDSN + " is not set")
	}

	cfg, err := config.FromEnv(func(key string) (string, bool) {
		if key == config.EnvPostgresDSN {
			return dsn, true
		}

		return os.LookupEnv(key)
	})
	require.NoError(t, err, "error reading the test config")

	cfg.PostgresReplicaDSN = ""

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	engine, closeDB, err := config.OpenEngine(ctx, cfg, options...)
	require.NoError(t, err, "error connecting to the test database")

	raw, err := config.PostgresSQLDB(ctx, dsn)
	if err != nil {
		closeDB()
		require.NoError(t, err, "error connecting to the test database")
	}

	wrapper := &Wrapper{engine: engine, raw: raw, closeDB: closeDB}
	t.Cleanup(wrapper.Close)

	require.NoError(t, engine.Migrate(ctx), "error migrating the test database")
	wrapper.CleanUp(t)

	return wrapper
}
