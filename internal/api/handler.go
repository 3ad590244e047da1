// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package api

import (
	"context"
	"time"

	"github.com/tomtom215/cloudsiem/internal/models"
)

// Ingester runs the ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, in models.IncomingEvent) (*models.IngestResult, error)
}

// Querier serves dashboard reads.
type Querier interface {
	RecentEvents(ctx context.Context, limit int) ([]models.Event, error)
	RecentAlerts(ctx context.Context, limit int) ([]models.Alert, error)
	Histogram(ctx context.Context, windowMinutes int) (*models.EventHistogram, error)
}

// DetectionMetricsSource exposes rule engine counters.
type DetectionMetricsSource interface {
	Metrics() models.DetectionMetrics
}

// Pinger reports backing store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the HTTP handlers and their collaborators.
type Handler struct {
	ingester     Ingester
	query        Querier
	detection    DetectionMetricsSource
	store        Pinger
	maxBodyBytes int64
	startTime    time.Time
}

// HandlerDeps lists Handler collaborators.
type HandlerDeps struct {
	Ingester  Ingester
	Query     Querier
	Detection DetectionMetricsSource
	Store     Pinger
	// MaxBodyBytes caps ingestion payloads. Default 1 MiB.
	MaxBodyBytes int64
}

// NewHandler creates the handlers.
func NewHandler(deps HandlerDeps) *Handler {
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = 1 << 20
	}
	return &Handler{
		ingester:     deps.Ingester,
		query:        deps.Query,
		detection:    deps.Detection,
		store:        deps.Store,
		maxBodyBytes: deps.MaxBodyBytes,
		startTime:    time.Now(),
	}
}
