// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package detection

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/cloudsiem/internal/models"
)

// BruteForceDetector flags users accumulating failed logins.
type BruteForceDetector struct {
	history EventHistory
	now     func() time.Time
}

// NewBruteForceDetector creates a brute-force detector.
func NewBruteForceDetector(history EventHistory, now func() time.Time) *BruteForceDetector {
	return &BruteForceDetector{history: history, now: now}
}

// Type returns the alert type.
func (d *BruteForceDetector) Type() models.AlertType {
	return models.AlertTypeBruteForce
}

// Check counts failed auth events for the user in the trailing window,
// the triggering event included.
func (d *BruteForceDetector) Check(ctx context.Context, event *models.Event) (*models.AlertCandidate, error) {
	if event.EventType != models.EventTypeAuth || !event.Failed() || event.UserID == "" {
		return nil, nil
	}

	actorKey := models.ActorKey(event)
	window, err := d.history.QueryActorWindow(ctx, actorKey, d.now().Add(-BruteForceWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to query auth window: %w", err)
	}

	failures := 0
	for i := range window {
		if window[i].EventType == models.EventTypeAuth && window[i].Failed() {
			failures++
		}
	}
	if failures < BruteForceThreshold {
		return nil, nil
	}

	return &models.AlertCandidate{
		Severity:    models.SeverityHigh,
		Type:        models.AlertTypeBruteForce,
		SourceKey:   actorKey,
		Description: fmt.Sprintf("Detected %d failed login attempts in %d minutes", failures, int(BruteForceWindow/time.Minute)),
		Context: models.BruteForceEvidence{
			UserID:         event.UserID,
			IPAddress:      event.IPAddress,
			FailedAttempts: failures,
		},
	}, nil
}
