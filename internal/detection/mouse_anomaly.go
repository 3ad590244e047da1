// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package detection

import (
	"context"
	"fmt"
	"math"

	"github.com/tomtom215/cloudsiem/internal/models"
)

// MouseAnomalyDetector flags pointer paths that deviate from the expected
// distance, a common signature of scripted input. It needs no history.
type MouseAnomalyDetector struct{}

// NewMouseAnomalyDetector creates a mouse anomaly detector.
func NewMouseAnomalyDetector() *MouseAnomalyDetector {
	return &MouseAnomalyDetector{}
}

// Type returns the alert type.
func (d *MouseAnomalyDetector) Type() models.AlertType {
	return models.AlertTypeMouseAnomaly
}

// Check compares the recorded and expected path distances of the event.
func (d *MouseAnomalyDetector) Check(_ context.Context, event *models.Event) (*models.AlertCandidate, error) {
	if event.EventType != models.EventTypeMouse || event.MousePathDistance == nil || event.ExpectedPathDistance == nil {
		return nil, nil
	}
	expected, actual := *event.ExpectedPathDistance, *event.MousePathDistance
	if expected == 0 {
		return nil, nil
	}

	ratio := math.Abs(expected-actual) / expected
	if math.IsNaN(ratio) || ratio < MouseErrorRatioThreshold {
		return nil, nil
	}

	return &models.AlertCandidate{
		Severity:    models.SeverityMedium,
		Type:        models.AlertTypeMouseAnomaly,
		SourceKey:   models.IPActorKey(event.IPAddress),
		Description: fmt.Sprintf("Mouse path variance %d%% exceeds threshold", int(math.Round(ratio*100))),
		Context: models.MouseAnomalyEvidence{
			IPAddress:            event.IPAddress,
			ExpectedPathDistance: expected,
			MousePathDistance:    actual,
			ErrorRatio:           ratio,
		},
	}, nil
}
