// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package notify

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cloudsiem/internal/logging"
	"github.com/tomtom215/cloudsiem/internal/metrics"
	"github.com/tomtom215/cloudsiem/internal/models"
)

// BreakerConfig configures a publish circuit breaker.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32 `koanf:"max_requests"`
	// Interval after which closed-state counts reset. Zero never resets.
	Interval time.Duration `koanf:"interval"`
	// Timeout spent open before probing again.
	Timeout time.Duration `koanf:"timeout"`
	// FailureThreshold consecutive failures trip the breaker.
	FailureThreshold uint32 `koanf:"failure_threshold"`
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// NewCircuitBreaker creates a named breaker that reports its state to Prometheus.
func NewCircuitBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker[any] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker[any](settings)
}

// IsRejected reports whether err came from an open or saturated breaker
// rather than from the channel itself.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Breaker guards a publisher with a circuit breaker.
type Breaker struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreaker wraps next with a breaker named after it.
func NewBreaker(next Publisher, cfg BreakerConfig) *Breaker {
	return &Breaker{next: next, cb: NewCircuitBreaker(next.Name(), cfg)}
}

// Name implements Publisher.
func (b *Breaker) Name() string {
	return b.next.Name()
}

// State returns the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Publish implements Publisher.
func (b *Breaker) Publish(ctx context.Context, alert models.Alert) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Publish(ctx, alert)
	})

	result := "success"
	switch {
	case IsRejected(err):
		result = "rejected"
	case err != nil:
		result = "failure"
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.Name(), result).Inc()
	return err
}
