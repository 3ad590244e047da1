// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package ingest

import (
	"errors"

	"github.com/tomtom215/cloudsiem/internal/models"
	"github.com/tomtom215/cloudsiem/internal/validation"
)

// ValidationError is a client-caused rejection. It is returned before any
// side effect has happened and must not be retried unchanged.
type ValidationError struct {
	cause *validation.RequestValidationError
}

func (e *ValidationError) Error() string {
	return e.cause.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

// Fields returns the individual field failures.
func (e *ValidationError) Fields() []validation.FieldError {
	return e.cause.Errors()
}

// APIError returns the client-facing representation.
func (e *ValidationError) APIError() *validation.APIError {
	return e.cause.ToAPIError()
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks an ingestion payload. The returned error, when non-nil, is
// always a *ValidationError.
func Validate(in *models.IncomingEvent) error {
	if verr := validation.ValidateStruct(in); verr != nil {
		return &ValidationError{cause: verr}
	}
	return nil
}
