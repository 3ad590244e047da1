// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package metrics

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operational counter names and their dimensions.
const (
	MetricLogIngested    = "LogIngested"
	MetricSecurityAlerts = "SecurityAlerts"

	DimEventType = "EventType"
	DimAlertType = "AlertType"
	DimSeverity  = "Severity"

	DefaultNamespace = "cloudsiem"
)

// Emitter maps named counters with dimensions onto Prometheus counter vectors.
type Emitter struct {
	namespace string
	counters  map[string]*prometheus.CounterVec
}

var namespacePattern = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// NewEmitter registers the operational counters under namespace with reg.
// The namespace is lower-cased and sanitized to a valid metric prefix, so the
// conventional "CloudSEIM" becomes "cloudseim".
func NewEmitter(namespace string, reg prometheus.Registerer) *Emitter {
	ns := strings.ToLower(namespacePattern.ReplaceAllString(namespace, "_"))
	if ns == "" {
		ns = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Emitter{
		namespace: ns,
		counters: map[string]*prometheus.CounterVec{
			MetricLogIngested: factory.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: ns,
					Name:      "events_ingested_total",
					Help:      "Security events stored, by event type",
				},
				[]string{DimEventType},
			),
			MetricSecurityAlerts: factory.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: ns,
					Name:      "security_alerts_total",
					Help:      "Alerts raised, by alert type and severity",
				},
				[]string{DimAlertType, DimSeverity},
			),
		},
	}
}

// Namespace returns the sanitized metric namespace.
func (e *Emitter) Namespace() string {
	return e.namespace
}

// EmitCounter increments the named counter by one. Dimensions must match the
// counter's label set exactly.
func (e *Emitter) EmitCounter(_ context.Context, name string, dimensions map[string]string) error {
	vec, ok := e.counters[name]
	if !ok {
		return fmt.Errorf("unknown metric %q", name)
	}
	c, err := vec.GetMetricWith(prometheus.Labels(dimensions))
	if err != nil {
		return fmt.Errorf("metric %s: %w", name, err)
	}
	c.Inc()
	return nil
}
