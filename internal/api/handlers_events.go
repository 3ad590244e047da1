// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cloudsiem/internal/ingest"
	"github.com/tomtom215/cloudsiem/internal/models"
	"github.com/tomtom215/cloudsiem/internal/query"
)

// IngestEvent handles POST /api/v1/events.
func (h *Handler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Request body too large", err)
			return
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Failed to read request body", err)
		return
	}

	var in models.IncomingEvent
	if err := json.Unmarshal(body, &in); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Malformed JSON body", err)
		return
	}

	result, err := h.ingester.Ingest(r.Context(), in)
	if err != nil {
		var ve *ingest.ValidationError
		if errors.As(err, &ve) {
			apiErr := ve.APIError()
			respondJSON(w, r, http.StatusBadRequest, &models.APIResponse{
				Status: "error",
				Error: &models.APIError{
					Code:    apiErr.Code,
					Message: apiErr.Message,
					Details: apiErr.Details,
				},
			})
			return
		}
		respondInternalError(w, r, err)
		return
	}

	respondData(w, r, http.StatusCreated, result, start)
}

// RecentEvents handles GET /api/v1/events?limit=N.
func (h *Handler) RecentEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit, ok := intParam(w, r, "limit", query.DefaultRecentLimit)
	if !ok {
		return
	}
	events, err := h.query.RecentEvents(r.Context(), limit)
	if err != nil {
		respondInternalError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, events, start)
}

// RecentAlerts handles GET /api/v1/alerts?limit=N.
func (h *Handler) RecentAlerts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit, ok := intParam(w, r, "limit", query.DefaultRecentLimit)
	if !ok {
		return
	}
	alerts, err := h.query.RecentAlerts(r.Context(), limit)
	if err != nil {
		respondInternalError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, alerts, start)
}

// Stats handles GET /api/v1/stats?windowMinutes=M.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	minutes, ok := intParam(w, r, "windowMinutes", query.DefaultWindowMinutes)
	if !ok {
		return
	}
	hist, err := h.query.Histogram(r.Context(), minutes)
	if err != nil {
		respondInternalError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, hist, start)
}

// intParam parses an optional integer query parameter. Out-of-range values
// are clamped downstream; only non-integers are rejected.
func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, name+" must be an integer", nil)
		return 0, false
	}
	return v, true
}
