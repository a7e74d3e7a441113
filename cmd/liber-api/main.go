// Command liber-api serves the circulation REST API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/Jehd061990/liber/core"
	"github.com/Jehd061990/liber/features/command/addbook"
	"github.com/Jehd061990/liber/features/command/cancelreservation"
	"github.com/Jehd061990/liber/features/command/changereaderstatus"
	"github.com/Jehd061990/liber/features/command/issuefine"
	"github.com/Jehd061990/liber/features/command/lendbook"
	"github.com/Jehd061990/liber/features/command/payfine"
	"github.com/Jehd061990/liber/features/command/placereservation"
	"github.com/Jehd061990/liber/features/command/registerreader"
	"github.com/Jehd061990/liber/features/command/returnbook"
	"github.com/Jehd061990/liber/features/command/updatebook"
	"github.com/Jehd061990/liber/features/query/booklist"
	"github.com/Jehd061990/liber/features/query/dashboard"
	"github.com/Jehd061990/liber/features/query/finelist"
	"github.com/Jehd061990/liber/features/query/loanlist"
	"github.com/Jehd061990/liber/features/query/readerlist"
	"github.com/Jehd061990/liber/features/query/readerprofile"
	"github.com/Jehd061990/liber/httpapi"
	"github.com/Jehd061990/liber/shell"
	"github.com/Jehd061990/liber/shell/cache"
	"github.com/Jehd061990/liber/shell/config"
	"github.com/Jehd061990/liber/shell/observable"
	"github.com/Jehd061990/liber/shell/oteladapters"
	"github.com/Jehd061990/liber/store/postgresengine"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("liber-api stopped", shell.LogAttrError, err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := wiring{schedule: cfg.FineSchedule, logger: logger}
	engineOpts := []postgresengine.Option{postgresengine.WithContextualLogger(logger)}

	if cfg.MetricsEndpoint != "" {
		provider, providerErr := config.NewMeterProvider(ctx, cfg)
		if providerErr != nil {
			return providerErr
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = provider.Shutdown(flushCtx)
		}()

		w.metrics = oteladapters.NewMetricsCollector(otel.Meter(config.ServiceName))
		engineOpts = append(engineOpts, postgresengine.WithMetrics(w.metrics))
		logger.Info("metrics export enabled", "endpoint", cfg.MetricsEndpoint, "interval", cfg.MetricsInterval.String())
	}

	engine, closeDB, err := config.OpenEngine(ctx, cfg, engineOpts...)
	if err != nil {
		return err
	}
	defer closeDB()

	if err = engine.Migrate(ctx); err != nil {
		return err
	}

	w.engine = engine
	w.dashboardStore = engine

	if cfg.RedisAddr != "" {
		client, redisErr := cache.NewRedisClient(ctx, cfg.RedisAddr)
		if redisErr != nil {
			return redisErr
		}
		defer func() { _ = client.Close() }()

		cached := cache.NewCachedDashboard(engine, cache.NewRedisCache(client), cfg.CacheTTL, cache.WithContextualLogger(logger))
		w.dashboardStore = cached
		w.invalidator = cached
		logger.Info("dashboard cache enabled", "redis_addr", cfg.RedisAddr, "ttl", cfg.CacheTTL.String())
	}

	handlers, err := w.buildHandlers()
	if err != nil {
		return err
	}

	server, err := httpapi.NewServer(handlers, httpapi.WithContextualLogger(logger))
	if err != nil {
		return err
	}

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("liber-api listening", "addr", cfg.HTTPAddr, "adapter", string(cfg.AdapterType))
		listenErr <- server.Listen(cfg.HTTPAddr)
	}()

	select {
	case err = <-listenErr:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return nil
}

// wiring holds what the handlers are built from. A nil invalidator disables cache invalidation,
// a nil metrics collector disables handler metrics.
type wiring struct {
	engine         *postgresengine.Engine
	dashboardStore dashboard.Store
	invalidator    cache.Invalidator
	metrics        shell.MetricsCollector
	schedule       core.FineSchedule
	logger         *slog.Logger
}

func (w wiring) buildHandlers() (httpapi.Handlers, error) {
	var (
		handlers httpapi.Handlers
		errs     []error
	)

	handlers.AddBook, errs = observeCommand[addbook.Command](w, addbook.NewCommandHandler(w.engine,
		addbook.WithRetryOptions(w.retryOptions(addbook.Command{})...)), errs)
	handlers.UpdateBook, errs = observeCommand[updatebook.Command](w, updatebook.NewCommandHandler(w.engine,
		updatebook.WithRetryOptions(w.retryOptions(updatebook.Command{})...)), errs)
	handlers.RegisterReader, errs = observeCommand[registerreader.Command](w, registerreader.NewCommandHandler(w.engine,
		registerreader.WithRetryOptions(w.retryOptions(registerreader.Command{})...)), errs)
	handlers.ChangeReaderStatus, errs = observeCommand[changereaderstatus.Command](w, changereaderstatus.NewCommandHandler(w.engine,
		changereaderstatus.WithRetryOptions(w.retryOptions(changereaderstatus.Command{})...)), errs)
	handlers.LendBook, errs = observeCommand[lendbook.Command](w, lendbook.NewCommandHandler(w.engine,
		lendbook.WithRetryOptions(w.retryOptions(lendbook.Command{})...)), errs)
	handlers.ReturnBook, errs = observeCommand[returnbook.Command](w, returnbook.NewCommandHandler(w.engine,
		returnbook.WithFineSchedule(w.schedule),
		returnbook.WithRetryOptions(w.retryOptions(returnbook.Command{})...)), errs)
	handlers.IssueFine, errs = observeCommand[issuefine.Command](w, issuefine.NewCommandHandler(w.engine,
		issuefine.WithRetryOptions(w.retryOptions(issuefine.Command{})...)), errs)
	handlers.PayFine, errs = observeCommand[payfine.Command](w, payfine.NewCommandHandler(w.engine,
		payfine.WithRetryOptions(w.retryOptions(payfine.Command{})...)), errs)
	handlers.PlaceReservation, errs = observeCommand[placereservation.Command](w, placereservation.NewCommandHandler(w.engine,
		placereservation.WithRetryOptions(w.retryOptions(placereservation.Command{})...)), errs)
	handlers.CancelReservation, errs = observeCommand[cancelreservation.Command](w, cancelreservation.NewCommandHandler(w.engine,
		cancelreservation.WithRetryOptions(w.retryOptions(cancelreservation.Command{})...)), errs)

	handlers.BookList, errs = observeQuery[booklist.Query, booklist.Books](w, booklist.NewQueryHandler(w.engine), errs)
	handlers.ReaderList, errs = observeQuery[readerlist.Query, readerlist.Readers](w, readerlist.NewQueryHandler(w.engine), errs)
	handlers.ReaderProfile, errs = observeQuery[readerprofile.Query, readerprofile.Profile](w, readerprofile.NewQueryHandler(w.engine), errs)
	handlers.LoanList, errs = observeQuery[loanlist.Query, loanlist.Loans](w, loanlist.NewQueryHandler(w.engine), errs)
	handlers.FineList, errs = observeQuery[finelist.Query, finelist.Fines](w, finelist.NewQueryHandler(w.engine), errs)
	handlers.Dashboard, errs = observeQuery[dashboard.Query, core.DashboardStats](w, dashboard.NewQueryHandler(w.dashboardStore), errs)

	return handlers, errors.Join(errs...)
}

func (w wiring) retryOptions(command shell.Command) []shell.RetryOption {
	if w.metrics == nil {
		return nil
	}

	return []shell.RetryOption{shell.WithMetrics(w.metrics, command.CommandType())}
}

func observeCommand[C shell.Command](
	w wiring,
	handler shell.CommandHandler[C],
	errs []error,
) (shell.CommandHandler[C], []error) {

	if w.invalidator != nil {
		handler = cache.InvalidateAfter(handler, w.invalidator)
	}

	opts := []observable.CommandOption[C]{observable.WithCommandContextualLogging[C](w.logger)}
	if w.metrics != nil {
		opts = append(opts, observable.WithCommandMetrics[C](w.metrics))
	}

	wrapper, err := observable.NewCommandWrapper(handler, opts...)
	if err != nil {
		return nil, append(errs, err)
	}

	return wrapper, errs
}

func observeQuery[Q shell.Query, R any](
	w wiring,
	handler shell.QueryHandler[Q, R],
	errs []error,
) (shell.QueryHandler[Q, R], []error) {

	opts := []observable.QueryOption[Q, R]{observable.WithQueryContextualLogging[Q, R](w.logger)}
	if w.metrics != nil {
		opts = append(opts, observable.WithQueryMetrics[Q, R](w.metrics))
	}

	wrapper, err := observable.NewQueryWrapper(handler, opts...)
	if err != nil {
		return nil, append(errs, err)
	}

	return wrapper, errs
}
