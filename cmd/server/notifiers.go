// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/cloudsiem/internal/config"
	"github.com/tomtom215/cloudsiem/internal/logging"
	"github.com/tomtom215/cloudsiem/internal/notify"
)

// notifiers holds the alert channels built from configuration and the
// resources they own.
type notifiers struct {
	publisher notify.Publisher
	embedded  *notify.EmbeddedNATS
	nats      *notify.NATSPublisher
	names     []string
}

// buildNotifiers assembles every configured alert channel behind a fanout.
// NATS and webhook deliveries each get their own circuit breaker.
func buildNotifiers(cfg *config.Config, hub notify.Broadcaster) (*notifiers, error) {
	n := &notifiers{}
	var channels []notify.Publisher

	if cfg.Notify.NATS.Enabled {
		url := cfg.Notify.NATS.URL
		if cfg.Notify.NATS.Embedded {
			embedded, err := notify.StartEmbeddedNATS(cfg.Notify.NATS.EmbeddedHost, cfg.Notify.NATS.EmbeddedPort)
			if err != nil {
				return nil, fmt.Errorf("start embedded nats: %w", err)
			}
			n.embedded = embedded
			url = embedded.ClientURL()
		}

		pub, err := notify.NewNATSPublisher(cfg.Notify.NATS.PublisherOptions(url), notify.NewWatermillLogger())
		if err != nil {
			n.Close()
			return nil, fmt.Errorf("connect nats publisher: %w", err)
		}
		n.nats = pub
		channels = append(channels, notify.NewBreaker(pub, cfg.Notify.Breaker))
	}

	if cfg.Notify.Webhook.URL != "" {
		hook, err := notify.NewWebhookPublisher(cfg.Notify.Webhook.PublisherOptions())
		if err != nil {
			n.Close()
			return nil, fmt.Errorf("create webhook publisher: %w", err)
		}
		channels = append(channels, notify.NewBreaker(hook, cfg.Notify.Breaker))
	}

	if cfg.Notify.Websocket && hub != nil {
		channels = append(channels, notify.NewBroadcastPublisher(hub))
	}

	for _, c := range channels {
		n.names = append(n.names, c.Name())
	}
	n.publisher = notify.NewFanout(channels...)

	if len(n.names) == 0 {
		logging.Info().Msg("No alert notification channels configured")
	} else {
		logging.Info().Strs("channels", n.names).Msg("Alert notification channels configured")
	}
	return n, nil
}

// Close releases the NATS connection and the embedded server. Both are
// idempotent with respect to the supervisor's own shutdown.
func (n *notifiers) Close() {
	if n.nats != nil {
		if err := n.nats.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing NATS publisher")
		}
	}
	if n.embedded != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := n.embedded.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Error stopping embedded NATS")
		}
	}
}
