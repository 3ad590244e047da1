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

// APIAbuseDetector flags API keys (or anonymous IPs) exceeding the request rate.
type APIAbuseDetector struct {
	history EventHistory
	now     func() time.Time
}

// NewAPIAbuseDetector creates an API abuse detector.
func NewAPIAbuseDetector(history EventHistory, now func() time.Time) *APIAbuseDetector {
	return &APIAbuseDetector{history: history, now: now}
}

// Type returns the alert type.
func (d *APIAbuseDetector) Type() models.AlertType {
	return models.AlertTypeAPIAbuse
}

// Check counts api events for the caller in the trailing window.
func (d *APIAbuseDetector) Check(ctx context.Context, event *models.Event) (*models.AlertCandidate, error) {
	if event.EventType != models.EventTypeAPI {
		return nil, nil
	}

	key := models.ActorKey(event)
	window, err := d.history.QueryActorWindow(ctx, key, d.now().Add(-APIAbuseWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to query api window: %w", err)
	}

	requests := 0
	for i := range window {
		if window[i].EventType == models.EventTypeAPI {
			requests++
		}
	}
	if requests < APIAbuseThreshold {
		return nil, nil
	}

	return &models.AlertCandidate{
		Severity:    models.SeverityHigh,
		Type:        models.AlertTypeAPIAbuse,
		SourceKey:   key,
		Description: fmt.Sprintf("Detected %d API calls in %ds", requests, int(APIAbuseWindow/time.Second)),
		Context: models.APIAbuseEvidence{
			Key:      key,
			Endpoint: event.Endpoint,
			Requests: requests,
		},
	}, nil
}
