// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/cloudsiem/internal/logging"
	"github.com/tomtom215/cloudsiem/internal/metrics"
	"github.com/tomtom215/cloudsiem/internal/models"
)

// Config configures the Badger-backed store.
type Config struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in RAM. Data is lost on Close.
	InMemory bool

	// SyncWrites fsyncs every write before acknowledging it.
	SyncWrites bool

	// Retention expires events and alerts after this duration. Zero keeps them forever.
	Retention time.Duration
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return errors.New("store path is required unless running in memory")
	}
	if c.Retention < 0 {
		return errors.New("store retention must not be negative")
	}
	return nil
}

// Option customizes a BadgerStore.
type Option func(*BadgerStore)

// WithClock overrides the time source used to default event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *BadgerStore) { s.now = now }
}

// WithIDGenerator overrides event ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *BadgerStore) { s.newID = gen }
}

// BadgerStore implements EventStore on BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	config Config
	now    func() time.Time
	newID  func() string

	mu     sync.RWMutex
	closed bool
}

var _ EventStore = (*BadgerStore)(nil)

// Open opens (or creates) the store.
func Open(cfg Config, opts ...Option) (*BadgerStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}

	var bopts badger.Options
	if cfg.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		bopts = badger.DefaultOptions(cfg.Path)
		bopts.SyncWrites = cfg.SyncWrites
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		config: cfg,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Dur("retention", cfg.Retention).
		Msg("Event store opened")
	return s, nil
}

// DB exposes the underlying database for maintenance tasks.
func (s *BadgerStore) DB() *badger.DB {
	return s.db
}

func (s *BadgerStore) checkOpen(ctx context.Context) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return fmt.Errorf("%w: store closed", ErrUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

func (s *BadgerStore) entry(key, value []byte) *badger.Entry {
	e := badger.NewEntry(key, value)
	if s.config.Retention > 0 {
		e = e.WithTTL(s.config.Retention)
	}
	return e
}

// Append implements EventStore.
func (s *BadgerStore) Append(ctx context.Context, e models.Event) (models.Event, error) {
	if err := s.checkOpen(ctx); err != nil {
		return models.Event{}, err
	}

	e.ID = s.newID()
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	e.Timestamp = e.Timestamp.UTC()
	e.ActorKey = models.ActorKey(&e)

	data, err := json.Marshal(e)
	if err != nil {
		return models.Event{}, fmt.Errorf("marshal event: %w", err)
	}

	key := eventKey(e.Timestamp, e.ID)
	start := time.Now()
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(s.entry(key, data)); err != nil {
			return err
		}
		return txn.SetEntry(s.entry(actorIndexKey(e.ActorKey, e.Timestamp, e.ID), key))
	})
	metrics.RecordStoreOperation("append_event", time.Since(start), err)
	if err != nil {
		return models.Event{}, unavailable("append event", err)
	}
	return e, nil
}

// AppendAlert implements EventStore.
func (s *BadgerStore) AppendAlert(ctx context.Context, a models.Alert) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	if a.ID == "" {
		return errors.New("alert has no id")
	}

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	start := time.Now()
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(s.entry(alertKey(a.Timestamp, a.ID), data))
	})
	metrics.RecordStoreOperation("append_alert", time.Since(start), err)
	if err != nil {
		return unavailable("append alert", err)
	}
	return nil
}

// QueryActorWindow implements EventStore.
func (s *BadgerStore) QueryActorWindow(ctx context.Context, actorKey string, since time.Time) ([]models.Event, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	var events []models.Event
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := actorPrefix(actorKey)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(actorSeekKey(actorKey, since)); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			evtKey, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			item, err := txn.Get(evtKey)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			var e models.Event
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
				logging.Warn().Err(err).Str("key", string(evtKey)).Msg("Skipping undecodable event")
				continue
			}
			if e.ActorKey != actorKey || e.Timestamp.Before(since) {
				continue
			}
			events = append(events, e)
		}
		return nil
	})
	metrics.RecordStoreOperation("query_actor_window", time.Since(start), err)
	if err != nil {
		return nil, unavailable("query actor window", err)
	}
	return events, nil
}

// QueryRecentEvents implements EventStore.
func (s *BadgerStore) QueryRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	start := time.Now()
	events, err := scanRecent[models.Event](ctx, s.db, []byte(prefixEvent), limit)
	metrics.RecordStoreOperation("query_recent_events", time.Since(start), err)
	if err != nil {
		return nil, unavailable("query recent events", err)
	}
	return events, nil
}

// QueryRecentAlerts implements EventStore.
func (s *BadgerStore) QueryRecentAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	start := time.Now()
	alerts, err := scanRecent[models.Alert](ctx, s.db, []byte(prefixAlert), limit)
	metrics.RecordStoreOperation("query_recent_alerts", time.Since(start), err)
	if err != nil {
		return nil, unavailable("query recent alerts", err)
	}
	return alerts, nil
}

// QueryEventsSince implements EventStore.
func (s *BadgerStore) QueryEventsSince(ctx context.Context, since time.Time) ([]models.Event, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	var events []models.Event
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixEvent)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefixEvent + tsKey(since))); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var e models.Event
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
				logging.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Skipping undecodable event")
				continue
			}
			events = append(events, e)
		}
		return nil
	})
	metrics.RecordStoreOperation("query_events_since", time.Since(start), err)
	if err != nil {
		return nil, unavailable("query events since", err)
	}
	return events, nil
}

// scanRecent walks prefix newest first and decodes at most limit records.
func scanRecent[T any](ctx context.Context, db *badger.DB, prefix []byte, limit int) ([]T, error) {
	var out []T
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		if limit < opts.PrefetchSize {
			opts.PrefetchSize = limit
		}
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(seekLast(prefix)); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var v T
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &v) }); err != nil {
				logging.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Skipping undecodable record")
				continue
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

// Ping implements EventStore.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return fmt.Errorf("%w: database closed", ErrUnavailable)
	}
	return nil
}

// RunGC reclaims value log space. badger.ErrNoRewrite means there was nothing to do.
func (s *BadgerStore) RunGC(discardRatio float64) error {
	if s.config.InMemory {
		return nil
	}
	err := s.db.RunValueLogGC(discardRatio)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// Close implements EventStore.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("Event store closed")
	return nil
}
