// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/cloudsiem/internal/auth"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true,
	"error": true, "fatal": true, "panic": true, "disabled": true,
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		add("server read and write timeouts must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		add("server.max_body_bytes must be positive")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendBadger:
		if c.Store.Path == "" {
			add("store.path is required for the badger backend")
		}
	default:
		add("store.backend must be %q or %q, got %q", BackendBadger, BackendMemory, c.Store.Backend)
	}
	if c.Store.Retention < 0 {
		add("store.retention must not be negative")
	}
	if c.Store.OpTimeout <= 0 {
		add("store.op_timeout must be positive")
	}

	if c.Detection.RuleTimeout <= 0 {
		add("detection.rule_timeout must be positive")
	}

	if c.Notify.Timeout <= 0 {
		add("notify.timeout must be positive")
	}
	if c.Notify.NATS.Enabled {
		if strings.TrimSpace(c.Notify.NATS.Subject) == "" {
			add("notify.nats.subject is required when NATS is enabled")
		}
		if !c.Notify.NATS.Embedded && c.Notify.NATS.URL == "" {
			add("notify.nats.url is required unless the embedded server is used")
		}
		if c.Notify.NATS.Embedded && (c.Notify.NATS.EmbeddedPort < -1 || c.Notify.NATS.EmbeddedPort > 65535) {
			add("notify.nats.embedded_port is out of range: %d", c.Notify.NATS.EmbeddedPort)
		}
	}
	if c.Notify.Webhook.URL != "" {
		u, err := url.Parse(c.Notify.Webhook.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("notify.webhook.url must be an absolute http(s) URL")
		}
	}

	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < auth.MinSecretLength {
		add("security.jwt_secret must be at least %d characters", auth.MinSecretLength)
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 || c.Security.RateLimitWindow <= 0 {
			add("security rate limit requests and window must be positive")
		}
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		add("logging.level %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		add("logging.format must be json or console, got %q", c.Logging.Format)
	}

	if c.Tracing.Enabled {
		if c.Tracing.Endpoint == "" {
			add("tracing.endpoint is required when tracing is enabled")
		}
		if c.Tracing.SamplingRatio < 0 || c.Tracing.SamplingRatio > 1 {
			add("tracing.sampling_ratio must be within [0, 1]")
		}
	}

	return errors.Join(errs...)
}
