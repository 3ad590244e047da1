// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

// Package notify delivers operational counters and out-of-band alert
// notifications. Delivery is best-effort: callers log failures and never
// retry inline.
//
// Publishers:
//
//	NATSPublisher       watermill-nats, one message per alert on a subject
//	WebhookPublisher    JSON POST, paced by a token bucket
//	BroadcastPublisher  live feed to connected dashboard websockets
//
// Publishers compose with NewBreaker (fail fast while a channel is down) and
// NewFanout (deliver to every configured channel).
package notify

import (
	"context"

	"github.com/tomtom215/cloudsiem/internal/models"
)

// CounterEmitter records operational counters.
type CounterEmitter interface {
	EmitCounter(ctx context.Context, name string, dimensions map[string]string) error
}

// Publisher sends an alert to one notification channel.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, alert models.Alert) error
}

// Message metadata keys attached to published alerts.
const (
	MetadataSubject   = "subject"
	MetadataAlertType = "alert_type"
	MetadataSeverity  = "severity"
	MetadataSourceKey = "source_key"
)

// MessageTypeDetectionAlert is the websocket/webhook message type for alerts.
const MessageTypeDetectionAlert = "detection_alert"
