// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cloudsiem/internal/models"
)

// WebhookConfig configures the webhook publisher.
type WebhookConfig struct {
	URL     string
	Headers map[string]string
	// RateLimit is the minimum spacing between deliveries. Default 500ms.
	RateLimit time.Duration
	// Timeout bounds one HTTP round trip. Default 10s.
	Timeout time.Duration
}

// WebhookPayload is the JSON body POSTed for each alert.
type WebhookPayload struct {
	Type      string       `json:"type"`
	Subject   string       `json:"subject"`
	Alert     models.Alert `json:"alert"`
	Timestamp time.Time    `json:"timestamp"`
	Source    string       `json:"source"`
}

// WebhookPublisher POSTs alerts to an HTTP endpoint.
type WebhookPublisher struct {
	url     string
	headers map[string]string
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// NewWebhookPublisher creates a webhook publisher.
func NewWebhookPublisher(cfg WebhookConfig) (*WebhookPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook url is required")
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 500 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &WebhookPublisher{
		url:     cfg.URL,
		headers: headers,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.RateLimit), 1),
		now:     time.Now,
	}, nil
}

// Name implements Publisher.
func (w *WebhookPublisher) Name() string {
	return "webhook"
}

// Publish implements Publisher. It waits for a send token or ctx, whichever first.
func (w *WebhookPublisher) Publish(ctx context.Context, alert models.Alert) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook rate limit: %w", err)
	}

	body, err := json.Marshal(WebhookPayload{
		Type:      MessageTypeDetectionAlert,
		Subject:   alert.Subject(),
		Alert:     alert,
		Timestamp: w.now().UTC(),
		Source:    "cloudsiem",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
