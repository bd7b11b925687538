// Command venueflow serves the venue booking and approval workflow over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"venueflow/internal/adapters/httpapi"
	"venueflow/internal/auth"
	"venueflow/internal/config"
	"venueflow/internal/core"
	"venueflow/internal/logging"
)

const shutdownTimeout = 10 * time.Second

var exitFunc = os.Exit

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, *envFile); err != nil {
		fmt.Fprintln(os.Stderr, "venueflow:", err)
		exitFunc(1)
	}
}

func run(ctx context.Context, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := core.NewMetrics(registry)

	store, err := core.OpenPersistentStore(ctx, cfg.Storage, core.NewDefaultRulesEngine(), metrics, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("close storage")
		}
	}()

	svc := core.NewService(store, core.WithLogger(logger), core.WithMetrics(metrics))
	if cfg.Seed {
		seeded, err := svc.SeedIfEmpty(ctx)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if seeded {
			logger.Info().Msg("demo data seeded")
		}
	}

	accounts, err := auth.DefaultAccounts()
	if err != nil {
		return err
	}
	directory, err := auth.NewDirectory(accounts)
	if err != nil {
		return err
	}
	if cfg.UsesDevSecret() {
		logger.Warn().Msg("VENUEFLOW_JWT_SECRET not set, using the development secret")
	}
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	router, err := httpapi.NewRouter(httpapi.Options{
		Service:     svc,
		Accounts:    directory,
		Tokens:      issuer,
		Logger:      logger,
		Registry:    registry,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		return err
	}
	return serve(ctx, logger, &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	})
}

func serve(ctx context.Context, logger zerolog.Logger, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
