// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package models

// Actor key prefixes.
const (
	ActorPrefixUser   = "AUTH_USER#"
	ActorPrefixAPIKey = "API_KEY#"
	ActorPrefixIP     = "IP#"
)

// ActorKeyFor derives the actor key from the identifying fields of an event.
// It is pure and total: every combination of inputs maps to exactly one key.
func ActorKeyFor(eventType EventType, userID, apiKeyID, ipAddress string) string {
	switch {
	case eventType == EventTypeAuth && userID != "":
		return ActorPrefixUser + userID
	case eventType == EventTypeAPI && apiKeyID != "":
		return ActorPrefixAPIKey + apiKeyID
	default:
		return IPActorKey(ipAddress)
	}
}

// ActorKey derives the actor key of e.
func ActorKey(e *Event) string {
	return ActorKeyFor(e.EventType, e.UserID, e.APIKeyID, e.IPAddress)
}

// IPActorKey returns the IP-scoped actor key for ip.
func IPActorKey(ip string) string {
	return ActorPrefixIP + ip
}
