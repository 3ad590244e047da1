// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/cloudsiem/internal/logging"
	"github.com/tomtom215/cloudsiem/internal/models"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T, opts ...Option) *BadgerStore {
	t.Helper()
	s, err := Open(Config{InMemory: true}, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func authEvent(user, ip string, ok bool, ts time.Time) models.Event {
	return models.Event{
		EventType: models.EventTypeAuth,
		UserID:    user,
		IPAddress: ip,
		Action:    "login",
		Success:   models.Bool(ok),
		Timestamp: ts,
	}
}

func TestAppendAssignsIdentity(t *testing.T) {
	s := openTestStore(t, WithClock(func() time.Time { return baseTime }))
	ctx := context.Background()

	stored, err := s.Append(ctx, models.Event{EventType: models.EventTypeAPI, APIKeyID: "k1", IPAddress: "10.0.0.1", Action: "GET"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if stored.ID == "" {
		t.Error("expected an assigned ID")
	}
	if !stored.Timestamp.Equal(baseTime) {
		t.Errorf("timestamp = %v, want defaulted %v", stored.Timestamp, baseTime)
	}
	if stored.ActorKey != "API_KEY#k1" {
		t.Errorf("actor key = %q, want API_KEY#k1", stored.ActorKey)
	}

	explicit := baseTime.Add(-time.Hour)
	stored2, err := s.Append(ctx, authEvent("bob", "10.0.0.2", true, explicit))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !stored2.Timestamp.Equal(explicit) {
		t.Errorf("explicit timestamp overwritten: %v", stored2.Timestamp)
	}
	if stored.ID == stored2.ID {
		t.Error("IDs must be unique")
	}
}

func TestAppendThenWindowContainsEventOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	stored, err := s.Append(ctx, authEvent("alice", "10.0.0.1", false, baseTime))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	events, err := s.QueryActorWindow(ctx, stored.ActorKey, baseTime)
	if err != nil {
		t.Fatalf("QueryActorWindow: %v", err)
	}
	count := 0
	for _, e := range events {
		if e.ID == stored.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("stored event appears %d times in its window, want 1", count)
	}
}

func TestQueryActorWindowBoundsAndIsolation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ts := baseTime.Add(time.Duration(i) * time.Minute)
		if _, err := s.Append(ctx, models.Event{EventType: models.EventTypeMouse, IPAddress: "10.0.0.1", Action: "move", Timestamp: ts}); err != nil {
			t.Fatal(err)
		}
	}
	// Actor keys that extend the queried key must not leak into its window.
	for _, ip := range []string{"10.0.0.10", "10.0.0.100"} {
		if _, err := s.Append(ctx, models.Event{EventType: models.EventTypeMouse, IPAddress: ip, Action: "move", Timestamp: baseTime.Add(2 * time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		since time.Time
		want  int
	}{
		{baseTime.Add(-time.Hour), 5},
		{baseTime, 5},
		{baseTime.Add(2 * time.Minute), 3},
		{baseTime.Add(2*time.Minute + time.Nanosecond), 2},
		{baseTime.Add(time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.since.Format(time.RFC3339Nano), func(t *testing.T) {
			events, err := s.QueryActorWindow(ctx, "IP#10.0.0.1", tt.since)
			if err != nil {
				t.Fatal(err)
			}
			if len(events) != tt.want {
				t.Fatalf("got %d events, want %d", len(events), tt.want)
			}
			for i, e := range events {
				if e.ActorKey != "IP#10.0.0.1" {
					t.Errorf("foreign actor %q in window", e.ActorKey)
				}
				if i > 0 && e.Timestamp.Before(events[i-1].Timestamp) {
					t.Error("window not ordered oldest first")
				}
			}
		})
	}
}

func TestQueryActorWindowIsNotTruncated(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const n = 750
	for i := 0; i < n; i++ {
		ts := baseTime.Add(time.Duration(i) * time.Millisecond)
		if _, err := s.Append(ctx, models.Event{EventType: models.EventTypeAPI, APIKeyID: "bulk", IPAddress: "10.0.0.1", Action: "GET", Timestamp: ts}); err != nil {
			t.Fatal(err)
		}
	}
	events, err := s.QueryActorWindow(ctx, "API_KEY#bulk", baseTime)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != n {
		t.Errorf("got %d events, want %d", len(events), n)
	}
}

func TestQueryRecentOrderingAndLimits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		ts := baseTime.Add(time.Duration(i) * time.Second)
		if _, err := s.Append(ctx, authEvent(fmt.Sprintf("u%d", i), "10.0.0.1", true, ts)); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := s.QueryRecentEvents(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 {
		t.Fatalf("got %d events, want 3", len(recent))
	}
	if recent[0].UserID != "u9" || recent[2].UserID != "u7" {
		t.Errorf("unexpected order: %s, %s, %s", recent[0].UserID, recent[1].UserID, recent[2].UserID)
	}

	for _, limit := range []int{0, -3} {
		if _, err := s.QueryRecentEvents(ctx, limit); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("QueryRecentEvents(%d) error = %v, want ErrInvalidLimit", limit, err)
		}
		if _, err := s.QueryRecentAlerts(ctx, limit); !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("QueryRecentAlerts(%d) error = %v, want ErrInvalidLimit", limit, err)
		}
	}

	all, err := s.QueryRecentEvents(ctx, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 10 {
		t.Errorf("limit above the query bound returned %d events, want all 10", len(all))
	}

	again, err := s.QueryRecentEvents(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range recent {
		if recent[i].ID != again[i].ID {
			t.Error("repeated reads returned different results")
		}
	}
}

func TestAlertsRoundTripWithEvidence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		a := models.NewAlert(fmt.Sprintf("a%d", i), baseTime.Add(time.Duration(i)*time.Second), models.AlertCandidate{
			Severity:  models.SeverityHigh,
			Type:      models.AlertTypeAPIAbuse,
			SourceKey: "API_KEY#k",
			Context:   models.APIAbuseEvidence{Key: "API_KEY#k", Requests: 120 + i},
		})
		if err := s.AppendAlert(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	alerts, err := s.QueryRecentAlerts(ctx, 500)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 3 {
		t.Fatalf("got %d alerts, want 3", len(alerts))
	}
	if alerts[0].ID != "a2" {
		t.Errorf("newest alert = %s, want a2", alerts[0].ID)
	}
	ev, ok := alerts[0].Context.(models.APIAbuseEvidence)
	if !ok || ev.Requests != 122 {
		t.Errorf("evidence = %#v", alerts[0].Context)
	}
}

func TestQueryEventsSince(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		ts := baseTime.Add(time.Duration(i) * time.Minute)
		if _, err := s.Append(ctx, models.Event{EventType: models.EventTypeSystem, IPAddress: "10.0.0.1", Action: "boot", Timestamp: ts}); err != nil {
			t.Fatal(err)
		}
	}
	events, err := s.QueryEventsSince(ctx, baseTime.Add(4*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := s.Append(ctx, authEvent("a", "1.1.1.1", true, baseTime)); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Append after close: %v, want ErrUnavailable", err)
	}
	if _, err := s.QueryActorWindow(ctx, "IP#1.1.1.1", baseTime); !errors.Is(err, ErrUnavailable) {
		t.Errorf("QueryActorWindow after close: %v, want ErrUnavailable", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Ping after close: %v, want ErrUnavailable", err)
	}
}

func TestCanceledContextIsUnavailable(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.QueryRecentAlerts(ctx, 10); !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}

func TestOnDiskStorePersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(Config{Path: dir, SyncWrites: true})
	if err != nil {
		t.Fatal(err)
	}
	stored, err := s.Append(ctx, authEvent("carol", "10.1.1.1", false, baseTime))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(Config{Path: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	events, err := s2.QueryActorWindow(ctx, "AUTH_USER#carol", baseTime)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].ID != stored.ID {
		t.Errorf("reopened store lost the event: %+v", events)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (&Config{}).Validate(); err == nil {
		t.Error("expected error for missing path")
	}
	if err := (&Config{InMemory: true, Retention: -time.Second}).Validate(); err == nil {
		t.Error("expected error for negative retention")
	}
}

func TestOpenLogsStoreDetailsOnce(t *testing.T) {
	var buf bytes.Buffer
	logging.SetLogger(logging.NewTestLogger(&buf))
	t.Cleanup(func() { logging.Init(logging.DefaultConfig()) })

	openTestStore(t)

	out := buf.String()
	if n := strings.Count(out, "Event store opened"); n != 1 {
		t.Fatalf("open logged %d times, want 1: %s", n, out)
	}
	if !strings.Contains(out, `"in_memory":true`) {
		t.Errorf("open log missing in_memory field: %s", out)
	}
}
