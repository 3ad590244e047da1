// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package models

import (
	"time"
)

// EventType categorizes an ingested event.
type EventType string

const (
	EventTypeAuth   EventType = "auth"
	EventTypeMouse  EventType = "mouse"
	EventTypeAPI    EventType = "api"
	EventTypeSystem EventType = "system"
)

// EventTypes lists every declared event type.
var EventTypes = []EventType{EventTypeAuth, EventTypeMouse, EventTypeAPI, EventTypeSystem}

// IncomingEvent is the ingestion payload before identity and time are assigned.
// Field names match the public JSON contract.
type IncomingEvent struct {
	UserID               string         `json:"userId,omitempty"`
	IPAddress            string         `json:"ipAddress" validate:"required,max=64"`
	APIKeyID             string         `json:"apiKeyId,omitempty"`
	Endpoint             string         `json:"endpoint,omitempty" validate:"max=2048"`
	Action               string         `json:"action" validate:"required,max=256"`
	Success              *bool          `json:"success,omitempty"`
	Timestamp            *time.Time     `json:"timestamp,omitempty"`
	EventType            EventType      `json:"eventType" validate:"required,oneof=auth mouse api system"`
	Metadata             map[string]any `json:"metadata,omitempty"`
	MousePathDistance    *float64       `json:"mousePathDistance,omitempty"`
	ExpectedPathDistance *float64       `json:"expectedPathDistance,omitempty"`
}

// Event is a stored, immutable security event. ID, Timestamp and ActorKey are
// assigned by the event store on append.
type Event struct {
	ID                   string         `json:"eventId"`
	Timestamp            time.Time      `json:"timestamp"`
	ActorKey             string         `json:"actorKey"`
	EventType            EventType      `json:"eventType"`
	IPAddress            string         `json:"ipAddress"`
	Action               string         `json:"action"`
	Success              *bool          `json:"success,omitempty"`
	UserID               string         `json:"userId,omitempty"`
	APIKeyID             string         `json:"apiKeyId,omitempty"`
	Endpoint             string         `json:"endpoint,omitempty"`
	Metadata             map[string]any `json:"metadata,omitempty"`
	MousePathDistance    *float64       `json:"mousePathDistance,omitempty"`
	ExpectedPathDistance *float64       `json:"expectedPathDistance,omitempty"`
}

// ToEvent converts the payload to an Event without identity. A zero Timestamp
// means "now" and is filled in by the store.
func (in *IncomingEvent) ToEvent() Event {
	e := Event{
		EventType:            in.EventType,
		IPAddress:            in.IPAddress,
		Action:               in.Action,
		Success:              in.Success,
		UserID:               in.UserID,
		APIKeyID:             in.APIKeyID,
		Endpoint:             in.Endpoint,
		Metadata:             in.Metadata,
		MousePathDistance:    in.MousePathDistance,
		ExpectedPathDistance: in.ExpectedPathDistance,
	}
	if in.Timestamp != nil {
		e.Timestamp = in.Timestamp.UTC()
	}
	return e
}

// Failed reports whether the event explicitly records a failure.
// An absent success flag is not a failure.
func (e *Event) Failed() bool {
	return e.Success != nil && !*e.Success
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }
