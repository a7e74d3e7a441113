package postgresengine

import (
	"context"
	_ "embed"
	"errors"
	"strings"
	"time"

	"github.com/Jehd061990/liber/store"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates the tables and indexes if they do not exist yet. It is safe to run on every start.
func (e *Engine) Migrate(ctx context.Context) error {
	for _, statement := range strings.Split(schemaSQL, ";") {
		statement = strings.TrimSpace(statement)
		if statement == "" {
			continue
		}

		start := time.Now()
		_, err := e.db.Exec(ctx, statement)
		e.logQueryWithDuration(ctx, statement, actionMigrate, time.Since(start))

		if err != nil {
			e.logError(ctx, logMsgDBExecFailed, err, logAttrAction, actionMigrate)
			return errors.Join(store.ErrCommitFailed, err)
		}
	}

	e.logOperation(ctx, actionMigrate)

	return nil
}
