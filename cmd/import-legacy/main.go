// Command import-legacy copies JSON dumps of the legacy library API into the Postgres store.
//
//	import-legacy -dir ./dump -books books.json -readers readers.json -borrows borrows.json \
//	    -fines fines.json -reservations reservations.json
//
// The import runs in one transaction and skips ids that already exist, so it can be repeated.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Jehd061990/liber/shell"
	"github.com/Jehd061990/liber/shell/config"
	"github.com/Jehd061990/liber/shell/legacyimport"
	"github.com/Jehd061990/liber/store/postgresengine"
)

type flags struct {
	dir     string
	files   legacyimport.Files
	dotEnv  string
	migrate bool
	timeout time.Duration
}

func main() {
	if err := run(parseFlags()); err != nil {
		slog.Error("import failed", shell.LogAttrError, err.Error())
		os.Exit(1)
	}
}

func parseFlags() flags {
	var f flags

	flag.StringVar(&f.dir, "dir", ".", "directory containing the dump files")
	flag.StringVar(&f.files.Books, "books", "", "book dump file")
	flag.StringVar(&f.files.Readers, "readers", "", "reader dump file")
	flag.StringVar(&f.files.Loans, "borrows", "", "borrow record dump file")
	flag.StringVar(&f.files.Fines, "fines", "", "fine dump file")
	flag.StringVar(&f.files.Reservations, "reservations", "", "reservation dump file")
	flag.StringVar(&f.dotEnv, "env", ".env", "optional .env file")
	flag.BoolVar(&f.migrate, "migrate", true, "create missing tables before importing")
	flag.DurationVar(&f.timeout, "timeout", 5*time.Minute, "upper bound for the whole import")

	flag.Parse()

	return f
}

func run(f flags) error {
	cfg, err := config.Load(f.dotEnv)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	start := time.Now()

	engine, closeDB, err := config.OpenEngine(ctx, cfg, postgresengine.WithContextualLogger(logger))
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer closeDB()

	if f.migrate {
		if err = engine.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}

	result, err := legacyimport.Run(ctx, engine, os.DirFS(f.dir), f.files)
	if err != nil {
		return err
	}

	logger.Info(
		"import completed",
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"total", result.Total(),
		shell.LogAttrDurationMS, shell.ToMilliseconds(time.Since(start)),
	)

	return nil
}
