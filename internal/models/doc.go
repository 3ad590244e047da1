// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

/*
Package models defines the data shared by every CloudSIEM layer: ingested
security events, alert candidates and persisted alerts, the typed evidence
attached to each alert type, histogram buckets, and the HTTP response
envelope.

# Actor Keys

Every stored event is indexed by an actor key, the identity behavioral
rules aggregate over:

	AUTH_USER#<userId>   auth events that name a user
	API_KEY#<apiKeyId>   api events that name an API key
	IP#<ipAddress>       everything else

ActorKey is the single derivation used both when an event is written and
when a rule reads its window back, so the two can never disagree.
*/
package models
