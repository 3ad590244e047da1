// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package api

import (
	"context"
	"net/http"
	"time"
)

const readinessTimeout = 2 * time.Second

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status    string  `json:"status"`
	Uptime    float64 `json:"uptime_seconds"`
	StoreOK   bool    `json:"store_ok"`
	StoreNote string  `json:"store_error,omitempty"`
}

// HealthLive handles GET /api/v1/health/live. It never touches dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, HealthStatus{
		Status:  "alive",
		Uptime:  time.Since(h.startTime).Seconds(),
		StoreOK: true,
	}, time.Now())
}

// HealthReady handles GET /api/v1/health/ready.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := HealthStatus{Status: "ready", Uptime: time.Since(h.startTime).Seconds(), StoreOK: true}
	code := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		status.Status = "not_ready"
		status.StoreOK = false
		status.StoreNote = "event store unavailable"
		code = http.StatusServiceUnavailable
	}
	respondData(w, r, code, status, start)
}

// DetectionMetrics handles GET /api/v1/detection/metrics.
func (h *Handler) DetectionMetrics(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, h.detection.Metrics(), time.Now())
}
