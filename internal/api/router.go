// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cloudsiem/internal/auth"
	"github.com/tomtom215/cloudsiem/internal/middleware"
)

// RouterConfig wires optional pieces into the router.
type RouterConfig struct {
	Middleware MiddlewareConfig
	// JWT guards the read surface and the websocket feed. Nil disables auth.
	JWT *auth.JWTManager
	// Live serves the websocket alert feed. Nil omits the route.
	Live http.Handler
	// SlowRequest is the access-log threshold for slow request warnings.
	SlowRequest time.Duration
	// Metrics serves /metrics. Defaults to promhttp.Handler().
	Metrics http.Handler
}

// NewRouter builds the chi router.
//
// Ingestion stays open so collectors need no credentials; every read route
// goes through auth.Authenticate when a JWT manager is configured.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog(cfg.SlowRequest))
	r.Use(auth.SecurityHeaders)
	r.Use(CORS(cfg.Middleware))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	metricsHandler := cfg.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health/live", h.HealthLive)
		r.Get("/health/ready", h.HealthReady)

		r.Group(func(r chi.Router) {
			r.Use(RateLimit(cfg.Middleware))
			r.Post("/events", h.IngestEvent)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(cfg.JWT))
			r.Get("/events", h.RecentEvents)
			r.Get("/alerts", h.RecentAlerts)
			r.Get("/stats", h.Stats)
			r.Get("/detection/metrics", h.DetectionMetrics)
			if cfg.Live != nil {
				r.Method(http.MethodGet, "/ws", cfg.Live)
			}
		})
	})

	return r
}
