// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package services

import (
	"context"
	"time"

	"github.com/tomtom215/cloudsiem/internal/logging"
)

// Shutdowner is satisfied by *notify.EmbeddedNATS.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// EmbeddedNATSService ties an already started embedded NATS server to the
// supervisor so it is shut down with the rest of the tree.
type EmbeddedNATSService struct {
	server          Shutdowner
	shutdownTimeout time.Duration
}

// NewEmbeddedNATSService wraps server.
func NewEmbeddedNATSService(server Shutdowner, shutdownTimeout time.Duration) *EmbeddedNATSService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EmbeddedNATSService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve blocks until ctx is done, then shuts the server down.
func (s *EmbeddedNATSService) Serve(ctx context.Context) error {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("Embedded NATS shutdown incomplete")
	}
	return ctx.Err()
}

func (s *EmbeddedNATSService) String() string {
	return "embedded-nats"
}
