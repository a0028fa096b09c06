package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"expenses/internal/amqp"
	"expenses/internal/cli"
	"expenses/internal/config"
	applog "expenses/internal/log"
	"expenses/internal/storage"
	"expenses/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger = logger.WithComponent(applog.ComponentWorker)
	logger.Info("Starting expenses-worker")

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

// run returns only after the database and broker connections are closed.
func run(cfg *config.Config, logger *applog.Logger) error {
	if !cfg.EventsEnabled() {
		return errors.New("AMQP_URL is required for the worker")
	}

	// The worker reads the same database file the web server writes.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("initialize SQLite repository at %s: %w", cfg.SQLiteDBPath, err)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		amqp.WithPrefetch(cfg.WorkerPrefetch))
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer client.Close()

	ctx, stop := cli.SignalContext(logger)
	defer stop()
	ctx = applog.NewContext(ctx, logger)

	summaries := worker.NewSummaryWorker(repo, logger)

	// A failed startup pass is not fatal; events will refresh the months.
	if err := summaries.StartupSummary(ctx); err != nil {
		logger.Error("Startup summary failed", applog.FieldError, err)
	}

	if err := client.ConsumeExpenseEvents(ctx, summaries.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume expense events: %w", err)
	}
	return nil
}
