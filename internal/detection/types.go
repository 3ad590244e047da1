// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

// Package detection evaluates freshly stored events against a fixed set of
// behavioral rules and produces alert candidates.
//
// Rules are independent: the engine runs them concurrently, bounds each one
// with a timeout, and joins their results. A rule that fails, panics or times
// out contributes no candidate and is reported as a RuleError; it never
// prevents the other rules from producing theirs.
//
// Built-in rules:
//
//	BRUTE_FORCE    >= 5 failed auth events for a user within 10 minutes   (high)
//	MOUSE_ANOMALY  |expected - actual| / expected >= 0.35                  (medium)
//	API_ABUSE      >= 120 api events for a key or IP within 60 seconds     (high)
package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/cloudsiem/internal/models"
)

// Detector is implemented by each detection rule.
type Detector interface {
	// Type returns the alert type this rule raises.
	Type() models.AlertType

	// Check evaluates the event. It returns nil, nil when the rule does not
	// apply or the threshold is not reached.
	Check(ctx context.Context, event *models.Event) (*models.AlertCandidate, error)
}

// EventHistory is the read side of the event store needed by windowed rules.
type EventHistory interface {
	QueryActorWindow(ctx context.Context, actorKey string, since time.Time) ([]models.Event, error)
}

// Rule thresholds. Boundaries are inclusive.
const (
	BruteForceWindow         = 10 * time.Minute
	BruteForceThreshold      = 5
	MouseErrorRatioThreshold = 0.35
	APIAbuseWindow           = 60 * time.Second
	APIAbuseThreshold        = 120
)

// RuleError reports a rule that contributed no result.
type RuleError struct {
	Rule     models.AlertType
	TimedOut bool
	Err      error
}

func (e *RuleError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("rule %s timed out: %v", e.Rule, e.Err)
	}
	return fmt.Sprintf("rule %s failed: %v", e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// IsRuleError reports whether err is or wraps a *RuleError.
func IsRuleError(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}

// Evaluation is the joined outcome of all rules for one event.
type Evaluation struct {
	Candidates []models.AlertCandidate
	Errors     []*RuleError
}

// Degraded reports whether any rule failed to produce a result.
func (ev *Evaluation) Degraded() bool {
	return len(ev.Errors) > 0
}
