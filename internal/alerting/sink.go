// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

// Package alerting turns detection candidates into persisted alerts and hands
// them to the notification collaborators.
package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tomtom215/cloudsiem/internal/logging"
	"github.com/tomtom215/cloudsiem/internal/metrics"
	"github.com/tomtom215/cloudsiem/internal/models"
	"github.com/tomtom215/cloudsiem/internal/notify"
)

const (
	// DefaultNotifyTimeout bounds counter emission and publishing for one alert.
	DefaultNotifyTimeout = 5 * time.Second
	// DefaultStoreTimeout bounds the alert append.
	DefaultStoreTimeout = 5 * time.Second
)

var tracer = otel.Tracer("github.com/tomtom215/cloudsiem/internal/alerting")

// AlertWriter persists alerts.
type AlertWriter interface {
	AppendAlert(ctx context.Context, a models.Alert) error
}

// Sink raises alerts: identity, persistence, then best-effort notification.
type Sink struct {
	store         AlertWriter
	emitter       notify.CounterEmitter
	publisher     notify.Publisher
	notifyTimeout time.Duration
	storeTimeout  time.Duration
	now           func() time.Time
	newID         func() string
}

// Option configures a Sink.
type Option func(*Sink)

// WithClock overrides the alert timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) { s.now = now }
}

// WithIDGenerator overrides alert ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Sink) { s.newID = gen }
}

// WithNotifyTimeout bounds notification work per alert.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Sink) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// WithStoreTimeout bounds the alert append.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Sink) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// NewSink creates a sink. publisher may be nil when no channel is configured.
func NewSink(store AlertWriter, emitter notify.CounterEmitter, publisher notify.Publisher, opts ...Option) *Sink {
	s := &Sink{
		store:         store,
		emitter:       emitter,
		publisher:     publisher,
		notifyTimeout: DefaultNotifyTimeout,
		storeTimeout:  DefaultStoreTimeout,
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Raise assigns identity and time to c, persists it, then emits the alert
// counter and publishes. Only the persistence error is returned; once the
// alert is stored, notification failures are logged and swallowed.
func (s *Sink) Raise(ctx context.Context, c models.AlertCandidate) (models.Alert, error) {
	ctx, span := tracer.Start(ctx, "alerting.Raise")
	defer span.End()

	alert := models.NewAlert(s.newID(), s.now(), c)
	span.SetAttributes(
		attribute.String("alert.id", alert.ID),
		attribute.String("alert.type", string(alert.Type)),
		attribute.String("alert.severity", string(alert.Severity)),
	)

	if err := s.persist(ctx, alert); err != nil {
		span.RecordError(err)
		return models.Alert{}, err
	}

	logging.Ctx(ctx).Info().
		Str("alert_id", alert.ID).
		Str("alert_type", string(alert.Type)).
		Str("severity", string(alert.Severity)).
		Str("source_key", alert.SourceKey).
		Msg("Alert raised")

	s.notify(ctx, alert)
	return alert, nil
}

func (s *Sink) persist(ctx context.Context, alert models.Alert) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.store.AppendAlert(ctx, alert); err != nil {
		return fmt.Errorf("persist alert: %w", err)
	}
	return nil
}

func (s *Sink) notify(ctx context.Context, alert models.Alert) {
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	if s.emitter != nil {
		err := s.emitter.EmitCounter(ctx, metrics.MetricSecurityAlerts, map[string]string{
			metrics.DimAlertType: string(alert.Type),
			metrics.DimSeverity:  string(alert.Severity),
		})
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("alert_id", alert.ID).Msg("Failed to emit alert metric")
		}
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, alert); err != nil {
		logging.Ctx(ctx).Error().
			Err(err).
			Str("alert_id", alert.ID).
			Str("publisher", s.publisher.Name()).
			Msg("Failed to publish alert notification")
	}
}
