package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"floosafandy/internal/amqp"
	"floosafandy/internal/config"
	applog "floosafandy/internal/log"
	"floosafandy/internal/report/google"
	"floosafandy/internal/storage"
	"floosafandy/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting floosafandy-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if !cfg.SheetExportEnabled() {
		logger.Error("Sheet export not configured - set GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink, err := google.NewClient(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(repo, sink, cfg.SyncBatchSize)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)

	// Periodic sweep catches rows whose events were lost.
	g.Go(func() error {
		return syncWorker.Run(gctx, cfg.SyncInterval)
	})

	// Event consumption pushes rows as soon as the web process commits
	// them. Optional: the sweep alone keeps the export eventually
	// consistent.
	if cfg.AMQPURL != "" {
		events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, relying on periodic sweep only", "error", err)
		} else {
			defer events.Close()
			g.Go(func() error {
				return events.ConsumeWithRetry(gctx, func(ev *amqp.TransactionEvent) error {
					return syncWorker.HandleEvent(gctx, ev)
				})
			})
		}
	} else {
		logger.Info("AMQP disabled - relying on periodic sweep only")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
