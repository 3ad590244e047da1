// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

/*
Package middleware provides HTTP middleware shared by every route.

  - RequestID: propagates or generates X-Request-ID and seeds the logging
    context with request and correlation IDs.
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled by
    the chi route pattern so path parameters do not explode cardinality.
  - AccessLog: one structured log line per request, promoted to warn level
    when the request is slower than the configured threshold.

Typical chain, outermost first:

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog(500 * time.Millisecond))
*/
package middleware
