// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package detection

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/cloudsiem/internal/models"
)

var testNow = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// mockEventHistory serves windows from an in-memory slice and records queries.
type mockEventHistory struct {
	mu      sync.Mutex
	events  []models.Event
	err     error
	queries []windowQuery
}

type windowQuery struct {
	actorKey string
	since    time.Time
}

func (m *mockEventHistory) add(e models.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ActorKey = models.ActorKey(&e)
	m.events = append(m.events, e)
}

func (m *mockEventHistory) QueryActorWindow(_ context.Context, actorKey string, since time.Time) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, windowQuery{actorKey: actorKey, since: since})
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Event
	for _, e := range m.events {
		if e.ActorKey == actorKey && !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

// stubDetector returns a canned result, optionally blocking or panicking.
type stubDetector struct {
	alertType models.AlertType
	candidate *models.AlertCandidate
	err       error
	block     bool
	panicMsg  string
}

func (s *stubDetector) Type() models.AlertType { return s.alertType }

func (s *stubDetector) Check(ctx context.Context, _ *models.Event) (*models.AlertCandidate, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.block {
		// Ignores ctx on purpose to exercise abandonment.
		time.Sleep(time.Second)
	}
	return s.candidate, s.err
}

func failedLogin(user, ip string, ts time.Time) models.Event {
	return models.Event{
		EventType: models.EventTypeAuth,
		UserID:    user,
		IPAddress: ip,
		Action:    "login",
		Success:   models.Bool(false),
		Timestamp: ts,
	}
}

func apiCall(key, ip string, ts time.Time) models.Event {
	return models.Event{
		EventType: models.EventTypeAPI,
		APIKeyID:  key,
		IPAddress: ip,
		Action:    "GET",
		Endpoint:  "/v1/orders",
		Timestamp: ts,
	}
}
