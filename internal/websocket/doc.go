// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

/*
Package websocket streams live alerts to dashboard clients.

The Hub owns the client set. It runs as a supervised service and fans every
broadcast message out to connected clients; a client whose send buffer is
full is disconnected rather than allowed to stall the others.

Wire format, one JSON object per frame:

	{"type":"detection_alert","data":{"alertId":"...","type":"BRUTE_FORCE",...}}

Clients may send {"type":"ping"} and receive {"type":"pong"}.
*/
package websocket
