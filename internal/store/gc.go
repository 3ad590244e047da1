// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package store

import (
	"context"
	"time"

	"github.com/tomtom215/cloudsiem/internal/logging"
)

// GCService periodically reclaims value log space left behind by expired
// records. It implements suture.Service.
type GCService struct {
	store        *BadgerStore
	interval     time.Duration
	discardRatio float64
}

// NewGCService creates a GC loop. Non-positive values fall back to 10m and 0.5.
func NewGCService(s *BadgerStore, interval time.Duration, discardRatio float64) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = 0.5
	}
	return &GCService{store: s, interval: interval, discardRatio: discardRatio}
}

// Serve runs until ctx is canceled.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := g.store.RunGC(g.discardRatio); err != nil {
				logging.Error().Err(err).Msg("Event store GC failed")
				continue
			}
			logging.Debug().Dur("duration", time.Since(start)).Msg("Event store GC completed")
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (g *GCService) String() string {
	return "store-gc"
}
