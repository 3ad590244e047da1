// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/cloudsiem/internal/metrics"
	"github.com/tomtom215/cloudsiem/internal/models"
)

// Fanout publishes each alert to every wrapped publisher concurrently.
type Fanout struct {
	publishers []Publisher
}

// NewFanout combines publishers, skipping nil entries. It returns nil when no
// publisher remains, which callers treat as "no channel configured".
func NewFanout(publishers ...Publisher) Publisher {
	var ps []Publisher
	for _, p := range publishers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	switch len(ps) {
	case 0:
		return nil
	case 1:
		return instrumented{ps[0]}
	}
	wrapped := make([]Publisher, len(ps))
	for i, p := range ps {
		wrapped[i] = instrumented{p}
	}
	return &Fanout{publishers: wrapped}
}

// Name implements Publisher.
func (f *Fanout) Name() string {
	return "fanout"
}

// Publish implements Publisher. The returned error joins every failure.
func (f *Fanout) Publish(ctx context.Context, alert models.Alert) error {
	errs := make([]error, len(f.publishers))
	var wg sync.WaitGroup
	for i, p := range f.publishers {
		wg.Add(1)
		go func(i int, p Publisher) {
			defer wg.Done()
			if err := p.Publish(ctx, alert); err != nil {
				errs[i] = fmt.Errorf("%s: %w", p.Name(), err)
			}
		}(i, p)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// instrumented records delivery outcomes per publisher.
type instrumented struct {
	Publisher
}

func (p instrumented) Publish(ctx context.Context, alert models.Alert) error {
	err := p.Publisher.Publish(ctx, alert)
	switch {
	case err == nil:
		metrics.RecordNotification(p.Name(), "success")
	case IsRejected(err):
		metrics.RecordNotification(p.Name(), "rejected")
	default:
		metrics.RecordNotification(p.Name(), "failure")
	}
	return err
}
