// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/cloudsiem/internal/notify"
	"github.com/tomtom215/cloudsiem/internal/telemetry"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cloudsiem/config.yaml",
	"/etc/cloudsiem/config.yml",
}

// ConfigPathEnvVar names an explicit config file.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
			SlowRequest:     500 * time.Millisecond,
		},
		Store: StoreConfig{
			Backend:    BackendBadger,
			Path:       "/data/cloudsiem",
			SyncWrites: true,
			Retention:  0,
			GCInterval: 10 * time.Minute,
			OpTimeout:  5 * time.Second,
		},
		Detection: DetectionConfig{
			RuleTimeout: 2 * time.Second,
		},
		Notify: NotifyConfig{
			MetricNamespace: "cloudsiem",
			Timeout:         5 * time.Second,
			NATS: NATSConfig{
				Enabled:       false,
				URL:           "nats://127.0.0.1:4222",
				Subject:       "cloudsiem.alerts",
				Embedded:      false,
				EmbeddedHost:  "127.0.0.1",
				EmbeddedPort:  4222,
				MaxReconnects: -1,
				ReconnectWait: 2 * time.Second,
			},
			Webhook: WebhookConfig{
				RateLimit: 500 * time.Millisecond,
				Timeout:   10 * time.Second,
			},
			Breaker:   notify.DefaultBreakerConfig(),
			Websocket: true,
		},
		Security: SecurityConfig{
			TokenTTL:        24 * time.Hour,
			RateLimitReqs:   600,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: telemetry.Config{
			Enabled:       false,
			Endpoint:      "localhost:4318",
			Insecure:      true,
			SamplingRatio: 1.0,
			ServiceName:   "cloudsiem",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths may arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"http_max_body_bytes":   "server.max_body_bytes",
	"http_slow_request":     "server.slow_request",

	"store_backend":     "store.backend",
	"store_path":        "store.path",
	"store_sync_writes": "store.sync_writes",
	"store_retention":   "store.retention",
	"store_gc_interval": "store.gc_interval",
	"store_op_timeout":  "store.op_timeout",

	"rule_timeout": "detection.rule_timeout",

	"metric_namespace":     "notify.metric_namespace",
	"notify_timeout":       "notify.timeout",
	"notify_websocket":     "notify.websocket",
	"nats_enabled":         "notify.nats.enabled",
	"nats_url":             "notify.nats.url",
	"alert_subject":        "notify.nats.subject",
	"nats_embedded":        "notify.nats.embedded",
	"nats_embedded_host":   "notify.nats.embedded_host",
	"nats_embedded_port":   "notify.nats.embedded_port",
	"nats_max_reconnects":  "notify.nats.max_reconnects",
	"nats_reconnect_wait":  "notify.nats.reconnect_wait",
	"webhook_url":          "notify.webhook.url",
	"webhook_rate_limit":   "notify.webhook.rate_limit",
	"webhook_timeout":      "notify.webhook.timeout",
	"breaker_max_requests": "notify.breaker.max_requests",
	"breaker_interval":     "notify.breaker.interval",
	"breaker_timeout":      "notify.breaker.timeout",
	"breaker_failures":     "notify.breaker.failure_threshold",

	"jwt_secret":          "security.jwt_secret",
	"token_ttl":           "security.token_ttl",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"tracing_enabled":        "tracing.enabled",
	"otel_exporter_endpoint": "tracing.endpoint",
	"tracing_insecure":       "tracing.insecure",
	"tracing_sampling_ratio": "tracing.sampling_ratio",
	"otel_service_name":      "tracing.service_name",
}

// envTransformFunc maps environment variables to config paths. Unmapped
// variables are dropped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
