// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Severity indicates how urgent an alert is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AlertType identifies the rule that produced an alert.
type AlertType string

const (
	AlertTypeBruteForce   AlertType = "BRUTE_FORCE"
	AlertTypeMouseAnomaly AlertType = "MOUSE_ANOMALY"
	AlertTypeAPIAbuse     AlertType = "API_ABUSE"
)

// Evidence is the typed context attached to an alert. Each alert type has
// exactly one evidence variant; the set is closed.
type Evidence interface {
	AlertType() AlertType
	isEvidence()
}

// BruteForceEvidence accompanies BRUTE_FORCE alerts.
type BruteForceEvidence struct {
	UserID         string `json:"userId"`
	IPAddress      string `json:"ipAddress"`
	FailedAttempts int    `json:"failedAttempts"`
}

// MouseAnomalyEvidence accompanies MOUSE_ANOMALY alerts.
type MouseAnomalyEvidence struct {
	IPAddress            string  `json:"ipAddress"`
	ExpectedPathDistance float64 `json:"expectedPathDistance"`
	MousePathDistance    float64 `json:"mousePathDistance"`
	ErrorRatio           float64 `json:"errorRatio"`
}

// APIAbuseEvidence accompanies API_ABUSE alerts.
type APIAbuseEvidence struct {
	Key      string `json:"key"`
	Endpoint string `json:"endpoint,omitempty"`
	Requests int    `json:"requests"`
}

func (BruteForceEvidence) AlertType() AlertType   { return AlertTypeBruteForce }
func (MouseAnomalyEvidence) AlertType() AlertType { return AlertTypeMouseAnomaly }
func (APIAbuseEvidence) AlertType() AlertType     { return AlertTypeAPIAbuse }

func (BruteForceEvidence) isEvidence()   {}
func (MouseAnomalyEvidence) isEvidence() {}
func (APIAbuseEvidence) isEvidence()     {}

// AlertCandidate is a rule finding that has not yet been given identity.
type AlertCandidate struct {
	Severity    Severity
	Type        AlertType
	SourceKey   string
	Description string
	Context     Evidence
}

// Alert is a persisted detection finding. Immutable once raised.
type Alert struct {
	ID          string    `json:"alertId"`
	Timestamp   time.Time `json:"timestamp"`
	Severity    Severity  `json:"severity"`
	Type        AlertType `json:"type"`
	SourceKey   string    `json:"sourceKey"`
	Description string    `json:"description"`
	Context     Evidence  `json:"context"`
}

// NewAlert gives a candidate its identity and raise time.
func NewAlert(id string, ts time.Time, c AlertCandidate) Alert {
	return Alert{
		ID:          id,
		Timestamp:   ts.UTC(),
		Severity:    c.Severity,
		Type:        c.Type,
		SourceKey:   c.SourceKey,
		Description: c.Description,
		Context:     c.Context,
	}
}

// Subject is the human-readable notification subject line.
func (a *Alert) Subject() string {
	return fmt.Sprintf("[CloudSIEM] %s (%s)", a.Type, a.Severity)
}

// UnmarshalJSON decodes the evidence variant selected by type.
func (a *Alert) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string          `json:"alertId"`
		Timestamp   time.Time       `json:"timestamp"`
		Severity    Severity        `json:"severity"`
		Type        AlertType       `json:"type"`
		SourceKey   string          `json:"sourceKey"`
		Description string          `json:"description"`
		Context     json.RawMessage `json:"context"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = Alert{
		ID:          raw.ID,
		Timestamp:   raw.Timestamp,
		Severity:    raw.Severity,
		Type:        raw.Type,
		SourceKey:   raw.SourceKey,
		Description: raw.Description,
	}
	if len(raw.Context) == 0 || string(raw.Context) == "null" {
		return nil
	}

	ev, err := decodeEvidence(raw.Type, raw.Context)
	if err != nil {
		return err
	}
	a.Context = ev
	return nil
}

func decodeEvidence(t AlertType, data []byte) (Evidence, error) {
	switch t {
	case AlertTypeBruteForce:
		var ev BruteForceEvidence
		err := json.Unmarshal(data, &ev)
		return ev, err
	case AlertTypeMouseAnomaly:
		var ev MouseAnomalyEvidence
		err := json.Unmarshal(data, &ev)
		return ev, err
	case AlertTypeAPIAbuse:
		var ev APIAbuseEvidence
		err := json.Unmarshal(data, &ev)
		return ev, err
	default:
		return nil, fmt.Errorf("unknown alert type %q", t)
	}
}
