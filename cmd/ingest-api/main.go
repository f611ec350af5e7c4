package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zenbox/zenbox/internal/api"
	"github.com/zenbox/zenbox/internal/avatar"
	"github.com/zenbox/zenbox/internal/classify"
	"github.com/zenbox/zenbox/internal/config"
	"github.com/zenbox/zenbox/internal/core"
	"github.com/zenbox/zenbox/internal/db"
	"github.com/zenbox/zenbox/internal/logging"
	"github.com/zenbox/zenbox/internal/metrics"
	"github.com/zenbox/zenbox/internal/notify"
	"github.com/zenbox/zenbox/internal/payment"
	"github.com/zenbox/zenbox/internal/relay"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("ingest-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	collab := core.Collaborators{
		Payments:   payment.NewClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey),
		Notifier:   notify.NewClient(cfg.NotifyAPIURL, cfg.NotifyAPIKey, cfg.OperatorEmail),
		Classifier: classify.NewClient(cfg.ClassifierAPIURL, cfg.ClassifierAPIKey),
		Avatars:    avatar.NewClient(cfg.AvatarAPIURL),
		Relay:      relay.NewClient(cfg.RelayAPIURL, cfg.RelayAPIKey),
	}

	services, err := core.NewServices(pool, cfg, collab, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize services")
	}

	srv := api.NewServer(logger, pool, services, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting ingest API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	// Drain queued best-effort effects before exiting.
	services.Close()
}
