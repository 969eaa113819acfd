// URLSync - Site URL Inventory Synchronization for Change Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/urlsync

// urlsyncd keeps a website's URL inventory synchronized with a remote
// change-tracking service.
//
// The daemon enumerates the site's content store into a normalized URL
// inventory, uploads it to the tracking API in category-grouped batches,
// and commits each batch set with a single start-sync call. Full passes
// are rate-gated to one per configured interval; content-save triggers
// are debounced through a persistent deferred-job queue.
//
// Configuration is layered: struct defaults, then a YAML file, then
// URLSYNC_* environment variables. For example:
//
//	URLSYNC_REMOTE_API_TOKEN=token \
//	URLSYNC_REMOTE_DOMAIN=example.com \
//	urlsyncd
//
// # Endpoints
//
//	POST /api/v1/sync              run a full sync now (rate-gated, ?force=true overrides)
//	POST /api/v1/sync/deferred     enqueue a debounced full sync
//	POST /api/v1/content/{id}/sync enqueue a debounced single-content sync
//	GET  /api/v1/sync/status       last sync time and gate state
//	GET  /api/v1/account           tracking-service account state
//	GET  /healthz                  liveness probe
//	GET  /metrics                  Prometheus metrics
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

	"github.com/tomtom215/urlsync/internal/api"
	"github.com/tomtom215/urlsync/internal/config"
	"github.com/tomtom215/urlsync/internal/database"
	"github.com/tomtom215/urlsync/internal/inventory"
	"github.com/tomtom215/urlsync/internal/logging"
	"github.com/tomtom215/urlsync/internal/remote"
	"github.com/tomtom215/urlsync/internal/scheduler"
	"github.com/tomtom215/urlsync/internal/supervisor"
	"github.com/tomtom215/urlsync/internal/supervisor/services"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("remote", cfg.Remote.BaseURL).
		Str("domain", cfg.Remote.Domain).
		Str("db_path", cfg.Database.Path).
		Dur("rate_interval", cfg.Sync.RateInterval).
		Msg("Starting urlsyncd")

	if cfg.Remote.APIToken == "" {
		logging.Warn().Msg("No API token configured, sync calls will report no-credential")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	// Remote client, optionally behind the circuit breaker.
	var trackingAPI remote.API = remote.NewClient(&cfg.Remote)
	if cfg.Remote.BreakerEnabled {
		trackingAPI = remote.NewBreakerClient(trackingAPI)
		logging.Info().Msg("Circuit breaker enabled for tracking API")
	}

	// Inventory pipeline over the content store.
	adapter := inventory.NewAdapter(db, &cfg.Sync)
	collector := inventory.NewCollector(db,
		inventory.NewTypeCache(db, cfg.Sync.RateInterval),
		inventory.NewResolver(db, db, db),
		inventory.NewMerger(adapter, db))

	uploader := remote.NewUploader(trackingAPI, &cfg.Sync)
	engine := scheduler.NewEngine(collector, uploader, db, &cfg.Sync)
	queue := scheduler.NewQueue(db, cfg.Sync.Delay)

	// HTTP trigger and status surface.
	handler := api.NewHandler(engine, queue, trackingAPI)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler, &cfg.Server),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddSyncService(scheduler.NewWorker(db, engine, cfg.Sync.WorkerInterval))
	tree.AddSyncService(scheduler.NewCron(queue, cfg.Sync.DailyHour))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("urlsyncd stopped gracefully")
}
