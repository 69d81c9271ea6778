// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

// Package main is the entry point for the Coursebridge server.
//
// Coursebridge mirrors courses and coursework from an external classroom
// platform into a local DuckDB store, merges them with user-created
// records, and serves the combined view over a REST API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered loading via Koanf v2 (defaults < file < env)
//  2. Database: embedded DuckDB with the course/assignment/snapshot schema
//  3. Classroom client: paced HTTP client wrapped in a circuit breaker
//  4. Sync engine: reconciler, per-owner rate limiter, orchestrator, pruner
//  5. Read side: integrated query service and submission snapshot cache
//  6. Supervisor tree: snapshot sweeper and HTTP server under suture v4
//
// # Configuration
//
// Settings come from config.yaml and environment variables (see
// internal/config for the mapping, e.g. CLASSROOM_BASE_URL, HTTP_PORT).
// The platform credential is supplied via classroom.token (or a custom
// CredentialSource for multi-tenant deployments).
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, pending debounced syncs are canceled, and the
// database is closed last.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/coursebridge/coursebridge/internal/api"
	"github.com/coursebridge/coursebridge/internal/classroom"
	"github.com/coursebridge/coursebridge/internal/config"
	"github.com/coursebridge/coursebridge/internal/database"
	"github.com/coursebridge/coursebridge/internal/logging"
	"github.com/coursebridge/coursebridge/internal/query"
	"github.com/coursebridge/coursebridge/internal/snapshot"
	"github.com/coursebridge/coursebridge/internal/supervisor"
	syncpkg "github.com/coursebridge/coursebridge/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config is not available yet; the default logger has to do.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("platform_url", cfg.Classroom.BaseURL).
		Msg("Starting Coursebridge")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	// Circuit breaker on top of the paced client: repeated platform
	// failures short-circuit instead of piling up timeouts.
	creds := classroom.NewStaticTokenSource(cfg.Classroom.Token)
	client := classroom.NewBreakerClient(classroom.NewClient(&cfg.Classroom, creds))

	reconciler := syncpkg.NewReconciler(db, client, &cfg.Sync)
	limiter := syncpkg.NewWindowLimiter(&cfg.RateLimit)
	orchestrator := syncpkg.NewOrchestrator(reconciler, limiter, &cfg.Sync)
	defer orchestrator.Stop()

	handlers := api.NewHandlers(
		db,
		orchestrator,
		syncpkg.NewPruner(db, client),
		query.NewService(db, client),
		snapshot.NewService(db, client, cfg.Snapshot.TTL),
	)
	router := api.NewRouter(handlers, &cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	// suture speaks slog; bridge it to zerolog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddBackgroundService(snapshot.NewSweeper(db, cfg.Snapshot.SweepInterval))
	tree.AddAPIService(supervisor.NewHTTPService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Serving")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("Supervisor tree failed")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop before timeout")
		}
	}

	logging.Info().Msg("Shutdown complete")
}
