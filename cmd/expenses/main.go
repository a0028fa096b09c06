package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/config"
	apphttp "expenses/internal/http"
	applog "expenses/internal/log"
	"expenses/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// run returns only after the backend has been cleaned up.
func run(cfg *config.Config, logger *applog.Logger) (err error) {
	ctx, stop := cli.SignalContext(logger)
	defer stop()
	ctx = applog.NewContext(ctx, logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid backend configuration: %w", err)
	}

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("initialize %s backend: %w", cfg.DataBackend, err)
	}
	defer func() {
		if cerr := result.Cleanup(); cerr != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, cerr)
			err = errors.Join(err, cerr)
		}
	}()

	opts := []services.Option{services.WithLogger(logger.WithComponent(applog.ComponentExpense))}
	if result.Events != nil {
		opts = append(opts, services.WithPublisher(result.Events))
	} else {
		logger.Info("Change events disabled")
	}
	svc := services.NewExpenseService(result.Store, opts...)

	srv, err := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		FlashSecret:        cfg.FlashSecret,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})
	if err != nil {
		return fmt.Errorf("create HTTP server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expenses server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server", "timeout", cfg.ShutdownTimeout.String())
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
