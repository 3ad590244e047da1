// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package detection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/cloudsiem/internal/models"
)

func TestNewEngine_RegistersBuiltInRules(t *testing.T) {
	e := NewEngine(&mockEventHistory{})
	want := []models.AlertType{models.AlertTypeBruteForce, models.AlertTypeMouseAnomaly, models.AlertTypeAPIAbuse}
	if len(e.detectors) != len(want) {
		t.Fatalf("got %d detectors, want %d", len(e.detectors), len(want))
	}
	for i, d := range e.detectors {
		if d.Type() != want[i] {
			t.Errorf("detector %d = %s, want %s", i, d.Type(), want[i])
		}
	}
}

func TestEngine_EvaluateJoinsCandidates(t *testing.T) {
	history := &mockEventHistory{}
	for i := 0; i < BruteForceThreshold; i++ {
		history.add(failedLogin("eve", "10.0.0.7", testNow))
	}
	e := NewEngine(history, WithClock(fixedClock))

	trigger := failedLogin("eve", "10.0.0.7", testNow)
	ev := e.Evaluate(context.Background(), &trigger)

	if ev.Degraded() {
		t.Fatalf("unexpected rule errors: %v", ev.Errors)
	}
	if len(ev.Candidates) != 1 || ev.Candidates[0].Type != models.AlertTypeBruteForce {
		t.Fatalf("candidates = %+v, want one BRUTE_FORCE", ev.Candidates)
	}

	m := e.Metrics()
	if m.EventsProcessed != 1 || m.AlertsGenerated != 1 {
		t.Errorf("metrics = %+v", m)
	}
	if got := m.Rules[models.AlertTypeBruteForce].Alerts; got != 1 {
		t.Errorf("brute force alerts = %d, want 1", got)
	}
	if got := m.Rules[models.AlertTypeMouseAnomaly].Evaluations; got != 1 {
		t.Errorf("mouse evaluations = %d, want 1", got)
	}
}

func TestEngine_RuleFailureIsIsolated(t *testing.T) {
	good := &models.AlertCandidate{Type: models.AlertTypeMouseAnomaly, Severity: models.SeverityMedium}
	boom := errors.New("store down")

	e := NewEngine(nil, withDetectors(
		&stubDetector{alertType: models.AlertTypeBruteForce, err: boom},
		&stubDetector{alertType: models.AlertTypeMouseAnomaly, candidate: good},
		&stubDetector{alertType: models.AlertTypeAPIAbuse, panicMsg: "nil map"},
	))

	ev := e.Evaluate(context.Background(), &models.Event{ID: "e1"})

	if len(ev.Candidates) != 1 || ev.Candidates[0].Type != models.AlertTypeMouseAnomaly {
		t.Fatalf("candidates = %+v, want the healthy rule's candidate", ev.Candidates)
	}
	if len(ev.Errors) != 2 {
		t.Fatalf("errors = %v, want 2", ev.Errors)
	}
	if ev.Errors[0].Rule != models.AlertTypeBruteForce || !errors.Is(ev.Errors[0], boom) {
		t.Errorf("first error = %v", ev.Errors[0])
	}
	if ev.Errors[1].Rule != models.AlertTypeAPIAbuse {
		t.Errorf("second error rule = %s", ev.Errors[1].Rule)
	}
	if !IsRuleError(ev.Errors[1]) {
		t.Error("IsRuleError should match")
	}
	if got := e.Metrics().RuleErrors; got != 2 {
		t.Errorf("RuleErrors = %d, want 2", got)
	}
}

func TestEngine_TimedOutRuleYieldsNoResult(t *testing.T) {
	slow := &stubDetector{
		alertType: models.AlertTypeAPIAbuse,
		block:     true,
		candidate: &models.AlertCandidate{Type: models.AlertTypeAPIAbuse},
	}
	e := NewEngine(nil, WithRuleTimeout(20*time.Millisecond), withDetectors(slow))

	start := time.Now()
	ev := e.Evaluate(context.Background(), &models.Event{})
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Evaluate waited %v for an abandoned rule", elapsed)
	}
	if len(ev.Candidates) != 0 {
		t.Errorf("timed-out rule contributed %d candidates", len(ev.Candidates))
	}
	if len(ev.Errors) != 1 || !ev.Errors[0].TimedOut {
		t.Fatalf("errors = %+v, want one timeout", ev.Errors)
	}
	if !errors.Is(ev.Errors[0], context.DeadlineExceeded) {
		t.Errorf("timeout error should wrap DeadlineExceeded: %v", ev.Errors[0])
	}
	if got := e.Metrics().RuleTimeouts; got != 1 {
		t.Errorf("RuleTimeouts = %d, want 1", got)
	}
}

func TestEngine_NoApplicableRules(t *testing.T) {
	e := NewEngine(&mockEventHistory{}, WithClock(fixedClock))
	ev := e.Evaluate(context.Background(), &models.Event{EventType: models.EventTypeSystem, IPAddress: "1.1.1.1"})
	if len(ev.Candidates) != 0 || ev.Degraded() {
		t.Errorf("system event produced %+v", ev)
	}
}
