// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

/*
Package api is the HTTP adapter: a chi router in front of the ingestion
pipeline and the dashboard query surface.

Routes:

	POST /api/v1/events                 ingest one event (201)
	GET  /api/v1/events?limit=N         recent events, newest first
	GET  /api/v1/alerts?limit=N         recent alerts, newest first
	GET  /api/v1/stats?windowMinutes=M  ingest-volume histogram
	GET  /api/v1/detection/metrics      rule engine counters
	GET  /api/v1/ws                     live alert feed (websocket)
	GET  /api/v1/health/live            liveness
	GET  /api/v1/health/ready           readiness (event store reachable)
	GET  /metrics                       Prometheus exposition

Every JSON response uses the models.APIResponse envelope. Validation
failures are 400 VALIDATION_ERROR with field details; every other failure is
a 500 INTERNAL_ERROR with a generic message, the detail going to the log.
*/
package api
