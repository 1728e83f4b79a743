// Afritable - Restaurant Directory Data Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/afritable

// Package main runs the Afritable pipeline server.
//
// The server loads configuration (koanf: defaults, then config.yaml, then the
// environment), opens the DuckDB store and the quota store, registers the cron
// jobs and runs everything under a suture supervisor tree:
//
//   - data layer: enhancement and jobs queue workers, the cron scheduler, the
//     event log and the database checkpointer
//   - api layer: the admin HTTP API and the websocket event hub
//
// # Scheduled jobs
//
//	collection_sweep  0 */6 * * *   primary region of every metro, first terms
//	daily_quality     0 2 * * *     flag discrepancies, then the fleet report
//	staleness_sweep   0 3 * * 0     queue enhancement for outdated restaurants
//	metro_collection  0 4 * * 0     every region with every search term
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains for up to
// the supervisor shutdown timeout, queued tasks are cancelled and the database
// is checkpointed before it is closed.
//
// # Example Usage
//
//	export GOOGLE_PLACES_API_KEY=...
//	export YELP_API_KEY=...
//	export DUCKDB_PATH=/data/afritable.duckdb
//	./afritable-server
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/afritable/internal/app"
	"github.com/tomtom215/afritable/internal/config"
	"github.com/tomtom215/afritable/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("quota_store", cfg.Quota.Store).
		Bool("google", cfg.Sources.Google.Configured()).
		Bool("yelp", cfg.Sources.Yelp.Configured()).
		Bool("foursquare", cfg.Sources.Foursquare.Configured()).
		Bool("nats", cfg.Events.NATSURL != "").
		Msg("Configuration loaded")

	a, err := app.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize pipeline")
	}

	if code := serve(a); code != 0 {
		os.Exit(code)
	}
}

func serve(a *app.App) int {
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("Error during shutdown")
		}
	}()

	tree, err := a.SupervisorTree()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to build supervisor tree")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", a.Addr()).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// errCh receives exactly once and is never closed.
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services to stop")
		serveErr = <-errCh
	case serveErr = <-errCh:
		stop()
	}

	code := 0
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
		code = 1
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}
	logging.Info().Msg("Afritable stopped")
	return code
}
