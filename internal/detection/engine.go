// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package detection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tomtom215/cloudsiem/internal/logging"
	"github.com/tomtom215/cloudsiem/internal/models"
)

// DefaultRuleTimeout bounds a single rule evaluation.
const DefaultRuleTimeout = 2 * time.Second

var tracer = otel.Tracer("github.com/tomtom215/cloudsiem/internal/detection")

// Engine runs every detector against an event and joins the results.
type Engine struct {
	detectors   []Detector
	ruleTimeout time.Duration
	now         func() time.Time
	metrics     *EngineMetrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source windows are anchored to.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRuleTimeout bounds each rule evaluation.
func WithRuleTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.ruleTimeout = d
		}
	}
}

// withDetectors replaces the built-in rules.
func withDetectors(detectors ...Detector) Option {
	return func(e *Engine) { e.detectors = detectors }
}

// NewEngine creates an engine with the built-in rule set reading windows from history.
func NewEngine(history EventHistory, opts ...Option) *Engine {
	e := &Engine{
		ruleTimeout: DefaultRuleTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.detectors == nil {
		e.detectors = []Detector{
			NewBruteForceDetector(history, e.now),
			NewMouseAnomalyDetector(),
			NewAPIAbuseDetector(history, e.now),
		}
	}

	types := make([]models.AlertType, len(e.detectors))
	for i, d := range e.detectors {
		types[i] = d.Type()
		logging.Debug().Str("detector", string(d.Type())).Msg("Registered detector")
	}
	e.metrics = newEngineMetrics(types)
	return e
}

// Evaluate runs all rules concurrently against event. It never fails as a
// whole: rule failures are returned in Evaluation.Errors and logged.
func (e *Engine) Evaluate(ctx context.Context, event *models.Event) Evaluation {
	ctx, span := tracer.Start(ctx, "detection.Evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.id", event.ID),
		attribute.String("event.type", string(event.EventType)),
	)

	type outcome struct {
		candidate *models.AlertCandidate
		err       *RuleError
	}
	outcomes := make([]outcome, len(e.detectors))

	var wg sync.WaitGroup
	for i, d := range e.detectors {
		wg.Add(1)
		go func(i int, d Detector) {
			defer wg.Done()
			c, err := e.runRule(ctx, d, event)
			outcomes[i] = outcome{candidate: c, err: err}
		}(i, d)
	}
	wg.Wait()

	var ev Evaluation
	for _, o := range outcomes {
		if o.err != nil {
			ev.Errors = append(ev.Errors, o.err)
			logging.Ctx(ctx).Warn().
				Err(o.err.Err).
				Str("rule", string(o.err.Rule)).
				Bool("timed_out", o.err.TimedOut).
				Str("event_id", event.ID).
				Str("actor_key", event.ActorKey).
				Msg("Rule evaluation failed")
			continue
		}
		if o.candidate != nil {
			ev.Candidates = append(ev.Candidates, *o.candidate)
		}
	}

	e.metrics.eventsProcessed.Add(1)
	e.metrics.alertsGenerated.Add(int64(len(ev.Candidates)))
	span.SetAttributes(attribute.Int("detection.candidates", len(ev.Candidates)))
	if ev.Degraded() {
		span.SetStatus(codes.Error, fmt.Sprintf("%d rule(s) failed", len(ev.Errors)))
	}
	return ev
}

// runRule evaluates one detector under its own deadline. A detector that
// ignores ctx is abandoned when the deadline passes.
func (e *Engine) runRule(ctx context.Context, d Detector, event *models.Event) (*models.AlertCandidate, *RuleError) {
	rule := d.Type()
	ctx, span := tracer.Start(ctx, "detection.rule")
	defer span.End()
	span.SetAttributes(attribute.String("rule", string(rule)))

	ctx, cancel := context.WithTimeout(ctx, e.ruleTimeout)
	defer cancel()

	type result struct {
		candidate *models.AlertCandidate
		err       error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		c, err := d.Check(ctx, event)
		done <- result{candidate: c, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = result{err: ctx.Err()}
	}

	e.metrics.recordRule(rule, res.candidate != nil, res.err != nil)

	if res.err != nil {
		re := &RuleError{Rule: rule, Err: res.err, TimedOut: errors.Is(res.err, context.DeadlineExceeded)}
		if re.TimedOut {
			e.metrics.ruleTimeouts.Add(1)
		}
		span.RecordError(res.err)
		span.SetStatus(codes.Error, re.Error())
		return nil, re
	}
	return res.candidate, nil
}

// Metrics returns a snapshot of the engine counters.
func (e *Engine) Metrics() models.DetectionMetrics {
	return e.metrics.snapshot()
}

// EngineMetrics tracks detection engine activity.
type EngineMetrics struct {
	eventsProcessed atomic.Int64
	alertsGenerated atomic.Int64
	ruleErrors      atomic.Int64
	ruleTimeouts    atomic.Int64
	rules           map[models.AlertType]*ruleCounters
}

type ruleCounters struct {
	evaluations atomic.Int64
	alerts      atomic.Int64
	errors      atomic.Int64
}

// newEngineMetrics builds the per-rule map once; it is read-only afterwards.
func newEngineMetrics(types []models.AlertType) *EngineMetrics {
	m := &EngineMetrics{rules: make(map[models.AlertType]*ruleCounters, len(types))}
	for _, t := range types {
		m.rules[t] = &ruleCounters{}
	}
	return m
}

func (m *EngineMetrics) recordRule(rule models.AlertType, alerted, failed bool) {
	rc, ok := m.rules[rule]
	if !ok {
		return
	}
	rc.evaluations.Add(1)
	if alerted {
		rc.alerts.Add(1)
	}
	if failed {
		rc.errors.Add(1)
		m.ruleErrors.Add(1)
	}
}

func (m *EngineMetrics) snapshot() models.DetectionMetrics {
	out := models.DetectionMetrics{
		EventsProcessed: m.eventsProcessed.Load(),
		AlertsGenerated: m.alertsGenerated.Load(),
		RuleErrors:      m.ruleErrors.Load(),
		RuleTimeouts:    m.ruleTimeouts.Load(),
		Rules:           make(map[models.AlertType]models.RuleStat, len(m.rules)),
	}
	for t, rc := range m.rules {
		out.Rules[t] = models.RuleStat{
			Evaluations: rc.evaluations.Load(),
			Alerts:      rc.alerts.Load(),
			Errors:      rc.errors.Load(),
		}
	}
	return out
}
