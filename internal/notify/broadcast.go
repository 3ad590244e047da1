// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package notify

import (
	"context"

	"github.com/tomtom215/cloudsiem/internal/models"
)

// Broadcaster fans a typed JSON message out to live clients.
type Broadcaster interface {
	BroadcastJSON(messageType string, data any)
}

// BroadcastPublisher pushes alerts to dashboard websocket clients.
type BroadcastPublisher struct {
	b Broadcaster
}

// NewBroadcastPublisher wraps b.
func NewBroadcastPublisher(b Broadcaster) *BroadcastPublisher {
	return &BroadcastPublisher{b: b}
}

// Name implements Publisher.
func (p *BroadcastPublisher) Name() string {
	return "websocket"
}

// Publish implements Publisher. Delivery to slow clients is dropped by the hub,
// so this never fails.
func (p *BroadcastPublisher) Publish(_ context.Context, alert models.Alert) error {
	p.b.BroadcastJSON(MessageTypeDetectionAlert, alert)
	return nil
}
