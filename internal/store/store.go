// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

// Package store persists security events and alerts.
//
// Events are indexed twice: by time for dashboard reads, and by actor key
// plus time so that behavioral rules can read back an exact per-actor
// window. Alerts are indexed by time.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/cloudsiem/internal/models"
)

// ErrUnavailable is returned when the backing store cannot serve a read or
// write. Callers surface it as an internal error.
var ErrUnavailable = errors.New("event store unavailable")

// ErrInvalidLimit is returned by recent-item reads given a limit below 1.
var ErrInvalidLimit = errors.New("limit must be at least 1")

// EventStore is the persistence contract used by the ingestion pipeline,
// the detection rules and the query surface.
type EventStore interface {
	// Append assigns an ID and actor key, defaults a zero timestamp to now,
	// and persists the event. The returned event is what was stored.
	Append(ctx context.Context, e models.Event) (models.Event, error)

	// AppendAlert persists a fully identified alert.
	AppendAlert(ctx context.Context, a models.Alert) error

	// QueryActorWindow returns every event for actorKey with timestamp >= since,
	// oldest first. Results are never truncated.
	QueryActorWindow(ctx context.Context, actorKey string, since time.Time) ([]models.Event, error)

	// QueryRecentEvents returns up to limit events, newest first. Callers
	// bound limit; values below 1 are rejected with ErrInvalidLimit.
	QueryRecentEvents(ctx context.Context, limit int) ([]models.Event, error)

	// QueryRecentAlerts returns up to limit alerts, newest first. Callers
	// bound limit; values below 1 are rejected with ErrInvalidLimit.
	QueryRecentAlerts(ctx context.Context, limit int) ([]models.Alert, error)

	// QueryEventsSince returns every event with timestamp >= since, oldest first.
	QueryEventsSince(ctx context.Context, since time.Time) ([]models.Event, error)

	// Ping reports whether the store can serve requests.
	Ping(ctx context.Context) error

	Close() error
}
