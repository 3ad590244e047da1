// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package models

import "time"

// TimeBucket is one histogram bar.
type TimeBucket struct {
	Start time.Time `json:"start"`
	Count int       `json:"count"`
}

// EventHistogram is the dashboard ingest-volume view.
type EventHistogram struct {
	WindowMinutes int          `json:"windowMinutes"`
	BucketSeconds int          `json:"bucketSeconds"`
	TotalEvents   int          `json:"totalEvents"`
	Buckets       []TimeBucket `json:"buckets"`
}

// IngestResult is returned by the ingestion pipeline.
type IngestResult struct {
	EventID       string  `json:"eventId"`
	AlertsCreated int     `json:"alertsCreated"`
	Alerts        []Alert `json:"alerts"`
}

// DetectionMetrics is a point-in-time snapshot of engine counters.
type DetectionMetrics struct {
	EventsProcessed int64                  `json:"eventsProcessed"`
	AlertsGenerated int64                  `json:"alertsGenerated"`
	RuleErrors      int64                  `json:"ruleErrors"`
	RuleTimeouts    int64                  `json:"ruleTimeouts"`
	Rules           map[AlertType]RuleStat `json:"rules"`
}

// RuleStat holds per-rule counters.
type RuleStat struct {
	Evaluations int64 `json:"evaluations"`
	Alerts      int64 `json:"alerts"`
	Errors      int64 `json:"errors"`
}
