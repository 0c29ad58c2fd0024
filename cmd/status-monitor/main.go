package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"status-monitor-api/internal/api"
	"status-monitor-api/internal/api/handlers"
	"status-monitor-api/internal/catalog"
	"status-monitor-api/internal/config"
	"status-monitor-api/internal/db"
	"status-monitor-api/internal/history"
	"status-monitor-api/internal/lock"
	"status-monitor-api/internal/logging"
	"status-monitor-api/internal/probe"
	"status-monitor-api/internal/registry"
	"status-monitor-api/internal/scheduler"
	"status-monitor-api/internal/webhook"
)

func main() {
	cfgPath := os.Getenv("SM_CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}

	if err := logging.Setup(cfg); err != nil {
		log.Fatal().Err(err).Msg("Logger setup failed")
	}

	log.Info().
		Str("listen_addr", cfg.ListenAddr).
		Str("db_path", cfg.DBPath).
		Msg("Status monitor starting")

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", filepath.Dir(cfg.DBPath)).Msg("Failed to create database directory")
	}

	// DB + migrations
	log.Info().Str("db_path", cfg.DBPath).Msg("Opening database")
	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	if err := db.RunMigrations(cfg.DBPath, cfg.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Service catalog, fixed for the process lifetime.
	services, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("Failed to load service catalog")
	}
	reg := registry.New(services)
	log.Info().Int("service_count", len(services)).Msg("Service catalog loaded")

	// History + webhook layer
	histStore := &history.Store{DB: database}
	whRegistry, err := webhook.NewRegistry(database, reg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open webhook registry")
	}
	notifier := webhook.NewNotifier(whRegistry, cfg.WebhookTimeout())

	// Single-instance guard. Without the lock the process still
	// serves queries and webhook CRUD but never probes or notifies.
	guard, err := lock.Acquire(cfg.LockPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.LockPath).Msg("Failed to access lock file")
	}

	var sched *scheduler.Scheduler
	var recheckTrigger chan struct{}
	if guard != nil {
		recheckTrigger = make(chan struct{}, 1)
		sched = scheduler.New(
			reg,
			probe.New(cfg.ProbeTimeout()),
			histStore,
			notifier,
			cfg.RecheckInterval(),
			cfg.DueAfter(),
			cfg.ShutdownGrace(),
			recheckTrigger,
		)
		log.Info().
			Str("lock", guard.Path()).
			Dur("recheck_after", cfg.RecheckInterval()).
			Dur("due_after", cfg.DueAfter()).
			Msg("Single-instance lock acquired, scheduler enabled")
	} else {
		log.Error().
			Str("path", cfg.LockPath).
			Msg("Single-instance lock held elsewhere, running degraded without scheduler")
	}

	router := api.NewRouter(
		&handlers.ServiceHandler{Registry: reg, HistoryStore: histStore},
		&handlers.ReportHandler{Registry: reg, History: histStore},
		&handlers.WebhookHandler{Registry: whRegistry},
		&handlers.ExportHandler{Registry: reg, History: histStore},
		&handlers.RecheckHandler{Trigger: recheckTrigger},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if sched != nil {
		sched.Start(ctx)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen_addr", cfg.ListenAddr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
	}

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown incomplete")
	}

	if guard != nil {
		if err := guard.Release(); err != nil {
			log.Warn().Err(err).Msg("Failed to release single-instance lock")
		}
	}
	if err := database.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database")
	}

	log.Info().Msg("Status monitor stopped")
}
