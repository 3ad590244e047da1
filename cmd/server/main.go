// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

// Package main is the CloudSIEM server.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. Logging and tracing
//  3. Event store (Badger on disk, or in memory)
//  4. Detection engine, alert sink and notification channels
//  5. HTTP router
//  6. Supervisor tree: data layer (store GC), messaging layer (websocket hub,
//     embedded NATS), API layer (HTTP server)
//
// SIGINT or SIGTERM cancels the tree; each service drains within its
// shutdown timeout and the store is closed last.
//
// Minting a dashboard token for the configured JWT secret:
//
//	./cloudsiem -mint-token analyst
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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tomtom215/cloudsiem/internal/alerting"
	"github.com/tomtom215/cloudsiem/internal/api"
	"github.com/tomtom215/cloudsiem/internal/auth"
	"github.com/tomtom215/cloudsiem/internal/config"
	"github.com/tomtom215/cloudsiem/internal/detection"
	"github.com/tomtom215/cloudsiem/internal/ingest"
	"github.com/tomtom215/cloudsiem/internal/logging"
	"github.com/tomtom215/cloudsiem/internal/metrics"
	"github.com/tomtom215/cloudsiem/internal/query"
	"github.com/tomtom215/cloudsiem/internal/store"
	"github.com/tomtom215/cloudsiem/internal/supervisor"
	"github.com/tomtom215/cloudsiem/internal/supervisor/services"
	"github.com/tomtom215/cloudsiem/internal/telemetry"
	ws "github.com/tomtom215/cloudsiem/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const gcDiscardRatio = 0.5

func main() {
	mintSubject := flag.String("mint-token", "", "print a dashboard JWT for `subject` and exit")
	mintRole := flag.String("role", "analyst", "role claim for -mint-token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.Logging.LoggerOptions())

	if *mintSubject != "" {
		if err := mintToken(cfg, *mintSubject, *mintRole); err != nil {
			logging.Fatal().Err(err).Msg("Failed to mint token")
		}
		return
	}

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func mintToken(cfg *config.Config, subject, role string) error {
	if !cfg.AuthEnabled() {
		return errors.New("JWT_SECRET is not configured")
	}
	m, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	if err != nil {
		return err
	}
	token, err := m.GenerateToken(subject, role)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

//nolint:gocyclo // sequential wiring
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("version", version).
		Str("store_backend", cfg.Store.Backend).
		Str("addr", cfg.Server.Addr()).
		Bool("auth", cfg.AuthEnabled()).
		Msg("Starting CloudSIEM")

	cfg.Tracing.ServiceVersion = version
	tracing, err := telemetry.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("Tracer shutdown failed")
		}
	}()

	events, err := store.Open(cfg.Store.StoreOptions())
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	defer func() {
		if err := events.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event store")
		}
	}()

	emitter := metrics.NewEmitter(cfg.Notify.MetricNamespace, prometheus.DefaultRegisterer)
	engine := detection.NewEngine(events, detection.WithRuleTimeout(cfg.Detection.RuleTimeout))
	hub := ws.NewHub()

	channels, err := buildNotifiers(cfg, hub)
	if err != nil {
		return err
	}
	defer channels.Close()

	sink := alerting.NewSink(events, emitter, channels.publisher,
		alerting.WithNotifyTimeout(cfg.Notify.Timeout),
		alerting.WithStoreTimeout(cfg.Store.OpTimeout))
	pipeline := ingest.NewPipeline(events, emitter, engine, sink,
		ingest.WithStoreTimeout(cfg.Store.OpTimeout))

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled() {
		jwtManager, err = auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
		if err != nil {
			return fmt.Errorf("init jwt: %w", err)
		}
		logging.Info().Msg("JWT authentication enabled for dashboard reads")
	} else {
		logging.Warn().Msg("JWT_SECRET not set: dashboard reads are unauthenticated")
	}

	handler := api.NewHandler(api.HandlerDeps{
		Ingester:     pipeline,
		Query:        query.NewService(events),
		Detection:    engine,
		Store:        events,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	router := api.NewRouter(handler, api.RouterConfig{
		Middleware: api.MiddlewareConfig{
			CORSAllowedOrigins: cfg.Security.CORSOrigins,
			CORSMaxAge:         api.DefaultMiddlewareConfig().CORSMaxAge,
			RateLimitRequests:  cfg.Security.RateLimitReqs,
			RateLimitWindow:    cfg.Security.RateLimitWindow,
			RateLimitDisabled:  cfg.Security.RateLimitDisabled,
		},
		JWT:         jwtManager,
		Live:        ws.NewHandler(hub, cfg.Security.CORSOrigins),
		SlowRequest: cfg.Server.SlowRequest,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	if cfg.Store.Backend != config.BackendMemory {
		tree.AddDataService(store.NewGCService(events, cfg.Store.GCInterval, gcDiscardRatio))
	}
	tree.AddMessagingService(hub)
	if channels.embedded != nil {
		tree.AddMessagingService(services.NewEmbeddedNATSService(channels.embedded, cfg.Server.ShutdownTimeout))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("supervisor tree: %w", err)
		}
	}
	stop()

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("CloudSIEM stopped")
	return runErr
}
