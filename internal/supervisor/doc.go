// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

/*
Package supervisor runs CloudSIEM's long-lived services under suture v4.

Services are grouped into three layers so a crash-looping component is
restarted without taking the others down:

	RootSupervisor ("cloudsiem")
	├── data-layer       store GC
	├── messaging-layer  embedded NATS (optional), websocket hub
	└── api-layer        HTTP server

Supervisor events (restarts, backoff, timeouts) are logged through
sutureslog on the zerolog-backed slog logger.
*/
package supervisor
