// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/cloudsiem/internal/models"
	"github.com/tomtom215/cloudsiem/internal/store"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeReader struct {
	events    []models.Event
	err       error
	lastLimit int
	lastSince time.Time
}

func (f *fakeReader) QueryRecentEvents(_ context.Context, limit int) ([]models.Event, error) {
	f.lastLimit = limit
	return f.events, f.err
}

func (f *fakeReader) QueryRecentAlerts(_ context.Context, limit int) ([]models.Alert, error) {
	f.lastLimit = limit
	return nil, f.err
}

func (f *fakeReader) QueryEventsSince(_ context.Context, since time.Time) ([]models.Event, error) {
	f.lastSince = since
	return f.events, f.err
}

func TestClampWindowMinutes(t *testing.T) {
	tests := []struct{ in, want int }{
		{-1, 5}, {0, 5}, {4, 5}, {5, 5}, {60, 60}, {1440, 1440}, {1441, 1440}, {100000, 1440},
	}
	for _, tt := range tests {
		if got := ClampWindowMinutes(tt.in); got != tt.want {
			t.Errorf("ClampWindowMinutes(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 1}, {-5, 1}, {1, 1}, {100, 100}, {500, 500}, {501, 500},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBucketWidth(t *testing.T) {
	tests := []struct {
		window time.Duration
		want   time.Duration
	}{
		{5 * time.Minute, 15 * time.Second},
		{7 * time.Minute, 15 * time.Second},
		{60 * time.Minute, 2 * time.Minute},
		{1440 * time.Minute, 48 * time.Minute},
	}
	for _, tt := range tests {
		if got := BucketWidth(tt.window); got != tt.want {
			t.Errorf("BucketWidth(%v) = %v, want %v", tt.window, got, tt.want)
		}
	}
}

func TestHistogram(t *testing.T) {
	r := &fakeReader{events: []models.Event{
		{ID: "old", Timestamp: now.Add(-2 * time.Hour)},
		{ID: "first", Timestamp: now.Add(-60 * time.Minute)},
		{ID: "a", Timestamp: now.Add(-59 * time.Minute)},
		{ID: "b", Timestamp: now.Add(-10 * time.Minute)},
		{ID: "c", Timestamp: now.Add(-30 * time.Second)},
		{ID: "last", Timestamp: now},
		{ID: "future", Timestamp: now.Add(time.Minute)},
	}}
	svc := NewService(r, WithClock(func() time.Time { return now }))

	h, err := svc.Histogram(context.Background(), 60)
	if err != nil {
		t.Fatal(err)
	}
	if !r.lastSince.Equal(now.Add(-time.Hour)) {
		t.Errorf("since = %v", r.lastSince)
	}
	if h.WindowMinutes != 60 || h.BucketSeconds != 120 {
		t.Errorf("window/bucket = %d/%d", h.WindowMinutes, h.BucketSeconds)
	}
	// 60m / 2m stepping from since while start <= now gives 31 buckets.
	if len(h.Buckets) != 31 {
		t.Fatalf("len(buckets) = %d, want 31", len(h.Buckets))
	}
	if !h.Buckets[0].Start.Equal(now.Add(-time.Hour)) || !h.Buckets[30].Start.Equal(now) {
		t.Errorf("bucket range %v..%v", h.Buckets[0].Start, h.Buckets[30].Start)
	}
	if h.TotalEvents != 5 {
		t.Errorf("total = %d, want 5", h.TotalEvents)
	}
	if h.Buckets[0].Count != 2 {
		t.Errorf("first bucket = %d, want 2", h.Buckets[0].Count)
	}
	if h.Buckets[25].Count != 1 {
		t.Errorf("bucket 25 = %d, want 1", h.Buckets[25].Count)
	}
	if h.Buckets[29].Count != 1 || h.Buckets[30].Count != 1 {
		t.Errorf("tail buckets = %d, %d", h.Buckets[29].Count, h.Buckets[30].Count)
	}

	sum := 0
	for _, b := range h.Buckets {
		sum += b.Count
	}
	if sum != h.TotalEvents {
		t.Errorf("bucket sum %d != total %d", sum, h.TotalEvents)
	}
}

func TestHistogramClampsWindow(t *testing.T) {
	svc := NewService(&fakeReader{}, WithClock(func() time.Time { return now }))

	h, err := svc.Histogram(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if h.WindowMinutes != 5 || h.BucketSeconds != 15 || len(h.Buckets) != 21 {
		t.Errorf("got window=%d bucket=%d buckets=%d", h.WindowMinutes, h.BucketSeconds, len(h.Buckets))
	}
}

func TestRecentClampsLimit(t *testing.T) {
	r := &fakeReader{}
	svc := NewService(r)

	if _, err := svc.RecentEvents(context.Background(), 10000); err != nil {
		t.Fatal(err)
	}
	if r.lastLimit != 500 {
		t.Errorf("events limit = %d", r.lastLimit)
	}
	if _, err := svc.RecentAlerts(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if r.lastLimit != 1 {
		t.Errorf("alerts limit = %d", r.lastLimit)
	}
}

func TestStoreErrorsPropagate(t *testing.T) {
	svc := NewService(&fakeReader{err: store.ErrUnavailable})
	ctx := context.Background()

	if _, err := svc.RecentEvents(ctx, 10); !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("RecentEvents: %v", err)
	}
	if _, err := svc.RecentAlerts(ctx, 10); !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("RecentAlerts: %v", err)
	}
	if _, err := svc.Histogram(ctx, 60); !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("Histogram: %v", err)
	}
}
