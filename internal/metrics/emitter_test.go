// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEmitterCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := NewEmitter("CloudSEIM", reg)
	ctx := context.Background()

	if e.Namespace() != "cloudseim" {
		t.Errorf("namespace = %q, want cloudseim", e.Namespace())
	}

	for i := 0; i < 3; i++ {
		if err := e.EmitCounter(ctx, MetricLogIngested, map[string]string{DimEventType: "auth"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.EmitCounter(ctx, MetricSecurityAlerts, map[string]string{DimAlertType: "BRUTE_FORCE", DimSeverity: "high"}); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(e.counters[MetricLogIngested].WithLabelValues("auth")); got != 3 {
		t.Errorf("events ingested = %v, want 3", got)
	}
	if got := testutil.ToFloat64(e.counters[MetricSecurityAlerts].WithLabelValues("BRUTE_FORCE", "high")); got != 1 {
		t.Errorf("alerts = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(e.counters[MetricLogIngested], "cloudseim_events_ingested_total"); n != 1 {
		t.Errorf("expected one series, got %d", n)
	}
}

func TestEmitterRejectsBadInput(t *testing.T) {
	e := NewEmitter("", prometheus.NewRegistry())
	ctx := context.Background()

	if e.Namespace() != DefaultNamespace {
		t.Errorf("namespace = %q, want default", e.Namespace())
	}
	if err := e.EmitCounter(ctx, "Nope", nil); err == nil {
		t.Error("expected error for unknown metric")
	}
	if err := e.EmitCounter(ctx, MetricSecurityAlerts, map[string]string{DimAlertType: "X"}); err == nil {
		t.Error("expected error for missing dimension")
	}
}
