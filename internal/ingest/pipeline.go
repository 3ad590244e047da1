// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

// Package ingest runs one incoming event through the pipeline:
// validate, store, detect, raise each alert, respond.
//
// The pipeline holds no state between calls. Side effects that have started
// are not cancelled when the caller goes away; each stage is bounded by its
// own timeout instead.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tomtom215/cloudsiem/internal/detection"
	"github.com/tomtom215/cloudsiem/internal/logging"
	"github.com/tomtom215/cloudsiem/internal/metrics"
	"github.com/tomtom215/cloudsiem/internal/models"
	"github.com/tomtom215/cloudsiem/internal/notify"
)

// DefaultStoreTimeout bounds the event append.
const DefaultStoreTimeout = 5 * time.Second

var tracer = otel.Tracer("github.com/tomtom215/cloudsiem/internal/ingest")

// Appender persists an incoming event.
type Appender interface {
	Append(ctx context.Context, e models.Event) (models.Event, error)
}

// Evaluator runs the detection rules.
type Evaluator interface {
	Evaluate(ctx context.Context, event *models.Event) detection.Evaluation
}

// Raiser materializes alert candidates.
type Raiser interface {
	Raise(ctx context.Context, c models.AlertCandidate) (models.Alert, error)
}

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	store        Appender
	emitter      notify.CounterEmitter
	engine       Evaluator
	sink         Raiser
	storeTimeout time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStoreTimeout bounds the event append.
func WithStoreTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.storeTimeout = d
		}
	}
}

// NewPipeline creates a pipeline. emitter may be nil.
func NewPipeline(store Appender, emitter notify.CounterEmitter, engine Evaluator, sink Raiser, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:        store,
		emitter:      emitter,
		engine:       engine,
		sink:         sink,
		storeTimeout: DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest processes one event. A *ValidationError means nothing was written.
// Any other error means the event or one of its alerts could not be
// persisted; alerts raised before the failure remain stored.
func (p *Pipeline) Ingest(ctx context.Context, in models.IncomingEvent) (*models.IngestResult, error) {
	if err := Validate(&in); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(context.WithoutCancel(ctx), "ingest.Ingest")
	defer span.End()
	span.SetAttributes(attribute.String("event.type", string(in.EventType)))

	stored, err := p.append(ctx, in.ToEvent())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store append failed")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("event.id", stored.ID),
		attribute.String("event.actor_key", stored.ActorKey),
	)

	p.emitIngested(ctx, stored)

	eval := p.engine.Evaluate(ctx, &stored)

	result := &models.IngestResult{
		EventID: stored.ID,
		Alerts:  make([]models.Alert, 0, len(eval.Candidates)),
	}
	for _, c := range eval.Candidates {
		alert, err := p.sink.Raise(ctx, c)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "alert persist failed")
			return nil, fmt.Errorf("raise %s alert for event %s: %w", c.Type, stored.ID, err)
		}
		result.Alerts = append(result.Alerts, alert)
	}
	result.AlertsCreated = len(result.Alerts)
	span.SetAttributes(attribute.Int("ingest.alerts", result.AlertsCreated))

	logging.Ctx(ctx).Debug().
		Str("event_id", stored.ID).
		Str("event_type", string(stored.EventType)).
		Str("actor_key", stored.ActorKey).
		Int("alerts", result.AlertsCreated).
		Int("rule_errors", len(eval.Errors)).
		Msg("Event ingested")

	return result, nil
}

func (p *Pipeline) append(ctx context.Context, e models.Event) (models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	stored, err := p.store.Append(ctx, e)
	if err != nil {
		return models.Event{}, fmt.Errorf("append event: %w", err)
	}
	return stored, nil
}

func (p *Pipeline) emitIngested(ctx context.Context, e models.Event) {
	if p.emitter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	err := p.emitter.EmitCounter(ctx, metrics.MetricLogIngested, map[string]string{
		metrics.DimEventType: string(e.EventType),
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("event_id", e.ID).Msg("Failed to emit ingest metric")
	}
}
