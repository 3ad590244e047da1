// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package config

import (
	"time"

	"github.com/tomtom215/cloudsiem/internal/logging"
	"github.com/tomtom215/cloudsiem/internal/notify"
	"github.com/tomtom215/cloudsiem/internal/store"
	"github.com/tomtom215/cloudsiem/internal/telemetry"
)

// Store backends.
const (
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Store     StoreConfig      `koanf:"store"`
	Detection DetectionConfig  `koanf:"detection"`
	Notify    NotifyConfig     `koanf:"notify"`
	Security  SecurityConfig   `koanf:"security"`
	Logging   LoggingConfig    `koanf:"logging"`
	Tracing   telemetry.Config `koanf:"tracing"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	// SlowRequest promotes access log lines to warn level.
	SlowRequest time.Duration `koanf:"slow_request"`
}

// StoreConfig configures event persistence.
type StoreConfig struct {
	Backend    string        `koanf:"backend"`
	Path       string        `koanf:"path"`
	SyncWrites bool          `koanf:"sync_writes"`
	Retention  time.Duration `koanf:"retention"`
	GCInterval time.Duration `koanf:"gc_interval"`
	// OpTimeout bounds each store call made while ingesting.
	OpTimeout time.Duration `koanf:"op_timeout"`
}

// DetectionConfig configures the rule engine.
type DetectionConfig struct {
	RuleTimeout time.Duration `koanf:"rule_timeout"`
}

// NotifyConfig configures metric emission and alert notification.
type NotifyConfig struct {
	MetricNamespace string               `koanf:"metric_namespace"`
	Timeout         time.Duration        `koanf:"timeout"`
	NATS            NATSConfig           `koanf:"nats"`
	Webhook         WebhookConfig        `koanf:"webhook"`
	Breaker         notify.BreakerConfig `koanf:"breaker"`
	// Websocket pushes alerts to connected dashboard clients.
	Websocket bool `koanf:"websocket"`
}

// NATSConfig configures the NATS alert channel.
type NATSConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URL           string        `koanf:"url"`
	Subject       string        `koanf:"subject"`
	Embedded      bool          `koanf:"embedded"`
	EmbeddedHost  string        `koanf:"embedded_host"`
	EmbeddedPort  int           `koanf:"embedded_port"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// WebhookConfig configures the webhook alert channel. Empty URL disables it.
type WebhookConfig struct {
	URL       string            `koanf:"url"`
	Headers   map[string]string `koanf:"headers"`
	RateLimit time.Duration     `koanf:"rate_limit"`
	Timeout   time.Duration     `koanf:"timeout"`
}

// SecurityConfig configures the HTTP surface protections.
type SecurityConfig struct {
	// JWTSecret enables token checks on dashboard reads when set.
	JWTSecret         string        `koanf:"jwt_secret"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// AuthEnabled reports whether dashboard reads require a token.
func (c *Config) AuthEnabled() bool {
	return c.Security.JWTSecret != ""
}

// Addr returns the HTTP listen address.
func (c *ServerConfig) Addr() string {
	return joinHostPort(c.Host, c.Port)
}

// StoreOptions converts to the store package configuration.
func (c *StoreConfig) StoreOptions() store.Config {
	return store.Config{
		Path:       c.Path,
		InMemory:   c.Backend == BackendMemory,
		SyncWrites: c.SyncWrites,
		Retention:  c.Retention,
	}
}

// PublisherOptions converts to the NATS publisher configuration.
func (c *NATSConfig) PublisherOptions(url string) notify.NATSConfig {
	return notify.NATSConfig{
		URL:           url,
		Subject:       c.Subject,
		MaxReconnects: c.MaxReconnects,
		ReconnectWait: c.ReconnectWait,
	}
}

// PublisherOptions converts to the webhook publisher configuration.
func (c *WebhookConfig) PublisherOptions() notify.WebhookConfig {
	return notify.WebhookConfig{
		URL:       c.URL,
		Headers:   c.Headers,
		RateLimit: c.RateLimit,
		Timeout:   c.Timeout,
	}
}

// LoggerOptions converts to the logging package configuration.
func (c *LoggingConfig) LoggerOptions() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Level
	lc.Format = c.Format
	lc.Caller = c.Caller
	return lc
}
