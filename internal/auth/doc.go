// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

/*
Package auth guards the read-only dashboard surface.

Authentication is optional. When a JWT secret is configured, dashboard reads
(recent events, recent alerts, stats, detection metrics and the websocket
feed) require an HS256 bearer token, taken from the Authorization header or,
for browser websocket clients, the "token" cookie. Ingestion is never
guarded here; producers authenticate at the network edge.

	jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	r.With(auth.Authenticate(jwtManager)).Get("/api/v1/alerts", h.Alerts)
*/
package auth
