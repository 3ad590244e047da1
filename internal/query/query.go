// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

// Package query serves the read-only dashboard views: recent events, recent
// alerts and the ingest-volume histogram.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/cloudsiem/internal/models"
)

// Recent-item result count bounds.
const (
	MinRecentLimit     = 1
	MaxRecentLimit     = 500
	DefaultRecentLimit = 100
)

// Histogram window bounds, in minutes.
const (
	MinWindowMinutes     = 5
	MaxWindowMinutes     = 1440
	DefaultWindowMinutes = 60
)

const (
	bucketsPerWindow = 30
	minBucketWidth   = 15 * time.Second
)

// Reader is the subset of the event store the query surface needs.
type Reader interface {
	QueryRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
	QueryRecentAlerts(ctx context.Context, limit int) ([]models.Alert, error)
	QueryEventsSince(ctx context.Context, since time.Time) ([]models.Event, error)
}

// Service answers dashboard reads.
type Service struct {
	store Reader
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source the histogram is anchored to.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a query service over r.
func NewService(r Reader, opts ...Option) *Service {
	s := &Service{store: r, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClampLimit bounds a result count to [1, 500].
func ClampLimit(limit int) int {
	switch {
	case limit < MinRecentLimit:
		return MinRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return limit
	}
}

// ClampWindowMinutes bounds a histogram window to [5, 1440] minutes.
func ClampWindowMinutes(minutes int) int {
	switch {
	case minutes < MinWindowMinutes:
		return MinWindowMinutes
	case minutes > MaxWindowMinutes:
		return MaxWindowMinutes
	default:
		return minutes
	}
}

// BucketWidth is max(window/30, 15s).
func BucketWidth(window time.Duration) time.Duration {
	return max(window/bucketsPerWindow, minBucketWidth)
}

// RecentEvents returns up to limit events, newest first.
func (s *Service) RecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	events, err := s.store.QueryRecentEvents(ctx, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}

// RecentAlerts returns up to limit alerts, newest first.
func (s *Service) RecentAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	alerts, err := s.store.QueryRecentAlerts(ctx, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	return alerts, nil
}

// Histogram buckets the events of the trailing window. Buckets start at
// now-window and step by BucketWidth while the bucket start is not after now.
func (s *Service) Histogram(ctx context.Context, windowMinutes int) (*models.EventHistogram, error) {
	windowMinutes = ClampWindowMinutes(windowMinutes)
	window := time.Duration(windowMinutes) * time.Minute
	width := BucketWidth(window)

	now := s.now().UTC()
	since := now.Add(-window)

	events, err := s.store.QueryEventsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}

	var buckets []models.TimeBucket
	for start := since; !start.After(now); start = start.Add(width) {
		buckets = append(buckets, models.TimeBucket{Start: start})
	}

	total := 0
	for i := range events {
		ts := events[i].Timestamp
		if ts.Before(since) || ts.After(now) {
			continue
		}
		idx := int(ts.Sub(since) / width)
		if idx >= len(buckets) {
			idx = len(buckets) - 1
		}
		buckets[idx].Count++
		total++
	}

	return &models.EventHistogram{
		WindowMinutes: windowMinutes,
		BucketSeconds: int(width / time.Second),
		TotalEvents:   total,
		Buckets:       buckets,
	}, nil
}
