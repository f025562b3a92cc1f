package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/dporto/repspark-sync/internal/api"
	"github.com/dporto/repspark-sync/internal/browser"
	"github.com/dporto/repspark-sync/internal/config"
	"github.com/dporto/repspark-sync/internal/database"
	"github.com/dporto/repspark-sync/internal/events"
	"github.com/dporto/repspark-sync/internal/parser"
	"github.com/dporto/repspark-sync/internal/portal"
	"github.com/dporto/repspark-sync/internal/runner"
	"github.com/dporto/repspark-sync/internal/sheets"
)

func main() {
	serve := flag.Bool("serve", false, "run the HTTP API instead of a one-shot sync")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.Logging.Level)
	logger := slog.Default()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	if err := sheets.WriteServiceAccountFile(cfg.Sheets.ServiceAccountFile, cfg.Sheets.ServiceAccountJSON); err != nil {
		logger.Error("failed to materialize service account credential", "error", err)
		os.Exit(1)
	}

	sheetSync, err := sheets.NewClient(ctx, cfg.Sheets.ServiceAccountFile)
	if err != nil {
		logger.Error("failed to create sheets client", "error", err)
		os.Exit(1)
	}

	var store *database.Store
	if cfg.HistoryEnabled() {
		store, err = database.New(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("failed to connect to run-history database", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		logger.Info("run history enabled")
	}

	var publisher *events.Publisher
	if cfg.EventsEnabled() {
		publisher = events.NewPublisher(redis.NewClient(&redis.Options{Addr: cfg.Events.RedisAddr}), cfg.Events.Stream)
		defer publisher.Close()
		logger.Info("run events enabled", "stream", cfg.Events.Stream)
	}

	browserOpts := browser.DefaultOptions()
	browserOpts.Headless = cfg.Browser.Headless
	browserOpts.ViewportWidth = cfg.Browser.ViewportWidth
	browserOpts.ViewportHeight = cfg.Browser.ViewportHeight

	portalSvc := portal.New(cfg.Portal, browserOpts)

	job := func(jobCtx context.Context) (runner.Result, error) {
		path, attempts, err := portalSvc.FetchExport(jobCtx)
		if err != nil {
			return runner.Result{Attempts: attempts}, err
		}

		rows, err := parser.ReadTable(path)
		if err != nil {
			return runner.Result{Artifact: path, Attempts: attempts}, err
		}

		if err := sheetSync.Overwrite(jobCtx, cfg.Sheets.SpreadsheetID, cfg.Sheets.Tab, rows); err != nil {
			return runner.Result{Artifact: path, Attempts: attempts}, err
		}

		return runner.Result{Artifact: path, Attempts: attempts, RowsSynced: len(rows)}, nil
	}

	// store and publisher are optional; pass typed nils through as untyped.
	var historyStore runner.HistoryStore
	if store != nil {
		historyStore = store
	}
	var eventPublisher runner.EventPublisher
	if publisher != nil {
		eventPublisher = publisher
	}

	run := runner.New(job, historyStore, eventPublisher)

	if *serve {
		serveHTTP(ctx, cfg, run, store)
		return
	}

	if err := run.Run(ctx); err != nil {
		logger.Error("sync failed", "error", err)
		os.Exit(1)
	}
}

func serveHTTP(ctx context.Context, cfg *config.Config, run *runner.Runner, store *database.Store) {
	logger := slog.Default()

	var history api.RunHistory
	if store != nil {
		history = store
	}

	handlers := api.NewHandlers(run, history)
	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      handlers.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("serving sync API", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	// Cancellation takes effect at run boundaries only: an in-flight run must
	// complete (and record its outcome) before the process exits.
	logger.Info("waiting for in-flight sync run to finish")
	run.Wait()
}

func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}
