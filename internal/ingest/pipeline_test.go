// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/cloudsiem/internal/alerting"
	"github.com/tomtom215/cloudsiem/internal/detection"
	"github.com/tomtom215/cloudsiem/internal/metrics"
	"github.com/tomtom215/cloudsiem/internal/models"
	"github.com/tomtom215/cloudsiem/internal/store"
)

var now = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return now }

type recorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *recorder) add(step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

type fakeStore struct {
	rec *recorder
	err error
}

func (f *fakeStore) Append(_ context.Context, e models.Event) (models.Event, error) {
	f.rec.add("append")
	if f.err != nil {
		return models.Event{}, f.err
	}
	e.ID = "evt-1"
	e.ActorKey = models.ActorKey(&e)
	return e, nil
}

type fakeEmitter struct {
	rec  *recorder
	dims []map[string]string
}

func (f *fakeEmitter) EmitCounter(_ context.Context, name string, dims map[string]string) error {
	f.rec.add("emit:" + name)
	f.dims = append(f.dims, dims)
	return nil
}

type fakeEngine struct {
	rec  *recorder
	eval detection.Evaluation
}

func (f *fakeEngine) Evaluate(_ context.Context, _ *models.Event) detection.Evaluation {
	f.rec.add("evaluate")
	return f.eval
}

type fakeSink struct {
	rec    *recorder
	failOn int
	calls  int
}

func (f *fakeSink) Raise(_ context.Context, c models.AlertCandidate) (models.Alert, error) {
	f.rec.add("raise")
	f.calls++
	if f.failOn > 0 && f.calls == f.failOn {
		return models.Alert{}, store.ErrUnavailable
	}
	return models.NewAlert("alert-"+string(c.Type), now, c), nil
}

func validEvent() models.IncomingEvent {
	return models.IncomingEvent{
		IPAddress: "198.51.100.7",
		Action:    "login",
		EventType: models.EventTypeAuth,
		UserID:    "u-1",
		Success:   models.Bool(false),
	}
}

func candidates(types ...models.AlertType) []models.AlertCandidate {
	out := make([]models.AlertCandidate, len(types))
	for i, t := range types {
		out[i] = models.AlertCandidate{Type: t, Severity: models.SeverityHigh, SourceKey: "k"}
	}
	return out
}

func TestIngest_ValidationHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.IncomingEvent)
		field  string
	}{
		{"missing ip", func(e *models.IncomingEvent) { e.IPAddress = "" }, "ipAddress"},
		{"missing action", func(e *models.IncomingEvent) { e.Action = "" }, "action"},
		{"missing event type", func(e *models.IncomingEvent) { e.EventType = "" }, "eventType"},
		{"unknown event type", func(e *models.IncomingEvent) { e.EventType = "keyboard" }, "eventType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			p := NewPipeline(&fakeStore{rec: rec}, &fakeEmitter{rec: rec}, &fakeEngine{rec: rec}, &fakeSink{rec: rec})

			in := validEvent()
			tt.mutate(&in)
			res, err := p.Ingest(context.Background(), in)
			if res != nil {
				t.Errorf("expected nil result, got %+v", res)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range ve.Fields() {
				if fe.Field() == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("field %q not reported in %v", tt.field, ve.Fields())
			}
			if len(rec.steps) != 0 {
				t.Errorf("side effects before validation: %v", rec.steps)
			}
		})
	}
}

func TestIngest_StageOrder(t *testing.T) {
	rec := &recorder{}
	emitter := &fakeEmitter{rec: rec}
	engine := &fakeEngine{rec: rec, eval: detection.Evaluation{
		Candidates: candidates(models.AlertTypeBruteForce, models.AlertTypeAPIAbuse),
	}}
	p := NewPipeline(&fakeStore{rec: rec}, emitter, engine, &fakeSink{rec: rec})

	res, err := p.Ingest(context.Background(), validEvent())
	if err != nil {
		t.Fatal(err)
	}
	if res.EventID != "evt-1" || res.AlertsCreated != 2 || len(res.Alerts) != 2 {
		t.Errorf("result = %+v", res)
	}

	want := []string{"append", "emit:" + metrics.MetricLogIngested, "evaluate", "raise", "raise"}
	if len(rec.steps) != len(want) {
		t.Fatalf("steps = %v, want %v", rec.steps, want)
	}
	for i := range want {
		if rec.steps[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, rec.steps[i], want[i])
		}
	}
	if emitter.dims[0][metrics.DimEventType] != "auth" {
		t.Errorf("dims = %v", emitter.dims[0])
	}
}

func TestIngest_StoreFailureIsTerminal(t *testing.T) {
	rec := &recorder{}
	p := NewPipeline(&fakeStore{rec: rec, err: store.ErrUnavailable}, &fakeEmitter{rec: rec}, &fakeEngine{rec: rec}, &fakeSink{rec: rec})

	_, err := p.Ingest(context.Background(), validEvent())
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
	if IsValidationError(err) {
		t.Error("store failure must not be reported as a validation error")
	}
	if len(rec.steps) != 1 || rec.steps[0] != "append" {
		t.Errorf("work continued after store failure: %v", rec.steps)
	}
}

func TestIngest_RuleErrorsDoNotFailRequest(t *testing.T) {
	rec := &recorder{}
	engine := &fakeEngine{rec: rec, eval: detection.Evaluation{
		Candidates: candidates(models.AlertTypeMouseAnomaly),
		Errors: []*detection.RuleError{
			{Rule: models.AlertTypeBruteForce, Err: errors.New("query failed")},
		},
	}}
	p := NewPipeline(&fakeStore{rec: rec}, nil, engine, &fakeSink{rec: rec})

	res, err := p.Ingest(context.Background(), validEvent())
	if err != nil {
		t.Fatal(err)
	}
	if res.AlertsCreated != 1 {
		t.Errorf("alertsCreated = %d, want 1", res.AlertsCreated)
	}
}

func TestIngest_AlertPersistFailure(t *testing.T) {
	rec := &recorder{}
	engine := &fakeEngine{rec: rec, eval: detection.Evaluation{
		Candidates: candidates(models.AlertTypeBruteForce, models.AlertTypeAPIAbuse),
	}}
	p := NewPipeline(&fakeStore{rec: rec}, nil, engine, &fakeSink{rec: rec, failOn: 2})

	if _, err := p.Ingest(context.Background(), validEvent()); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}

func TestIngest_CanceledCallerDoesNotAbortWrite(t *testing.T) {
	rec := &recorder{}
	p := NewPipeline(&fakeStore{rec: rec}, nil, &fakeEngine{rec: rec}, &fakeSink{rec: rec})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Ingest(ctx, validEvent()); err != nil {
		t.Fatalf("abandoned request should still complete: %v", err)
	}
}

// End to end over an in-memory store with the real rules.

func newPipeline(t *testing.T) (*Pipeline, *store.BadgerStore) {
	t.Helper()
	s, err := store.Open(store.Config{InMemory: true}, store.WithClock(clock))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	engine := detection.NewEngine(s, detection.WithClock(clock))
	sink := alerting.NewSink(s, nil, nil, alerting.WithClock(clock))
	return NewPipeline(s, nil, engine, sink), s
}

func TestIngest_BruteForceFifthFailureAlerts(t *testing.T) {
	p, s := newPipeline(t)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		res, err := p.Ingest(ctx, validEvent())
		if err != nil {
			t.Fatal(err)
		}
		if res.AlertsCreated != 0 {
			t.Fatalf("attempt %d raised %d alerts", i, res.AlertsCreated)
		}
	}

	res, err := p.Ingest(ctx, validEvent())
	if err != nil {
		t.Fatal(err)
	}
	if res.AlertsCreated != 1 {
		t.Fatalf("fifth attempt raised %d alerts, want 1", res.AlertsCreated)
	}
	alert := res.Alerts[0]
	if alert.Type != models.AlertTypeBruteForce || alert.Severity != models.SeverityHigh {
		t.Errorf("alert = %+v", alert)
	}
	ev, ok := alert.Context.(models.BruteForceEvidence)
	if !ok || ev.FailedAttempts != 5 || ev.UserID != "u-1" {
		t.Errorf("evidence = %#v", alert.Context)
	}

	stored, err := s.QueryRecentAlerts(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].ID != alert.ID {
		t.Errorf("stored alerts = %+v", stored)
	}
}

func TestIngest_APIAbuseAtOneHundredTwentyRequests(t *testing.T) {
	p, s := newPipeline(t)
	ctx := context.Background()

	in := models.IncomingEvent{
		IPAddress: "198.51.100.7",
		APIKeyID:  "key-42",
		Endpoint:  "/v1/orders",
		Action:    "GET",
		EventType: models.EventTypeAPI,
	}

	for i := 1; i <= 119; i++ {
		res, err := p.Ingest(ctx, in)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if res.AlertsCreated != 0 {
			t.Fatalf("request %d raised %d alerts", i, res.AlertsCreated)
		}
	}

	res, err := p.Ingest(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if res.AlertsCreated != 1 {
		t.Fatalf("request 120 raised %d alerts, want 1", res.AlertsCreated)
	}
	alert := res.Alerts[0]
	if alert.Type != models.AlertTypeAPIAbuse || alert.SourceKey != "API_KEY#key-42" {
		t.Errorf("alert = %+v", alert)
	}
	ev, ok := alert.Context.(models.APIAbuseEvidence)
	if !ok || ev.Requests != 120 || ev.Endpoint != "/v1/orders" {
		t.Errorf("evidence = %#v", alert.Context)
	}

	// Sustained traffic re-raises on every request past the threshold.
	res, err = p.Ingest(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if res.AlertsCreated != 1 {
		t.Fatalf("request 121 raised %d alerts, want 1", res.AlertsCreated)
	}

	stored, err := s.QueryRecentAlerts(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Errorf("stored %d alerts, want 2", len(stored))
	}
}

func TestIngest_MouseAnomalyEndToEnd(t *testing.T) {
	p, _ := newPipeline(t)

	in := models.IncomingEvent{
		IPAddress:            "203.0.113.4",
		Action:               "move",
		EventType:            models.EventTypeMouse,
		ExpectedPathDistance: models.Float(100),
		MousePathDistance:    models.Float(135),
	}
	res, err := p.Ingest(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if res.AlertsCreated != 1 || res.Alerts[0].SourceKey != "IP#203.0.113.4" {
		t.Errorf("result = %+v", res)
	}
}

func TestIngest_SystemEventStoredWithoutAlerts(t *testing.T) {
	p, s := newPipeline(t)

	in := models.IncomingEvent{IPAddress: "10.0.0.1", Action: "boot", EventType: models.EventTypeSystem}
	res, err := p.Ingest(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if res.AlertsCreated != 0 || res.Alerts == nil {
		t.Errorf("result = %+v", res)
	}

	events, err := s.QueryRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].ID != res.EventID || events[0].ActorKey != "IP#10.0.0.1" {
		t.Errorf("stored = %+v", events)
	}
}
