// Package store owns the expense collection and mirrors it to a kv.Store.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"expenses/internal/core"
	"expenses/internal/kv"
	"expenses/internal/log"
)

// Store holds every record in memory in insertion order. Each mutation is
// validated, applied and persisted under one lock; if persisting fails the
// mutation is undone so memory and storage never diverge.
type Store struct {
	mu      sync.RWMutex
	kv      kv.Store
	records []core.Record
	lastID  int64

	now    func() time.Time
	logger *log.Logger
	events *log.StructuredLogger
}

type Option func(*Store)

// WithClock overrides the time source used for ids and createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns an empty store. Call Load to populate it from kvs.
func New(kvs kv.Store, opts ...Option) *Store {
	s := &Store{kv: kvs, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentStore)
	s.events = log.NewStructuredLogger(s.logger)
	return s
}

// Load replaces the collection with what is stored under kv.KeyExpenses.
// Missing, empty or corrupt data results in an empty collection; only a
// backend failure is returned.
func (s *Store) Load(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, kv.KeyExpenses)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}

	records := s.decode(ctx, raw, ok)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.lastID = 0
	for _, r := range records {
		s.lastID = max(s.lastID, r.ID)
	}
	s.logger.Debug("Expenses loaded", log.FieldCount, len(records))
	return nil
}

func (s *Store) decode(ctx context.Context, raw string, ok bool) []core.Record {
	if !ok || raw == "" {
		return nil
	}

	// Elements are decoded one by one so a single bad record is skipped
	// instead of discarding the collection.
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		s.logger.LogFields(ctx, slog.LevelWarn, "Stored expenses are corrupt, starting empty",
			log.NewFields().WithError(err).WithOperation(log.OpLoad).WithErrorType(log.ErrorTypeCorruption))
		return nil
	}

	records := make([]core.Record, 0, len(elems))
	seen := make(map[int64]struct{}, len(elems))
	for i, elem := range elems {
		var r core.Record
		if err := json.Unmarshal(elem, &r); err != nil {
			s.logger.Warn("Skipping undecodable stored expense", "index", i, log.FieldError, err.Error())
			continue
		}
		if _, dup := seen[r.ID]; dup {
			s.logger.Warn("Skipping duplicate stored expense", log.FieldRecordID, r.ID)
			continue
		}
		if err := r.Validate(); err != nil {
			s.logger.Warn("Skipping invalid stored expense", log.FieldRecordID, r.ID, log.FieldError, err.Error())
			continue
		}
		seen[r.ID] = struct{}{}
		records = append(records, r)
	}
	return records
}

// Persist writes the whole collection under kv.KeyExpenses.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	records := s.records
	if records == nil {
		records = []core.Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := s.kv.Set(ctx, kv.KeyExpenses, string(b)); err != nil {
		s.events.LogError(ctx, "Failed to persist expenses", err, log.OpPersist,
			log.NewFields().With(log.FieldCount, len(records)))
		return fmt.Errorf("persist expenses: %w", err)
	}
	return nil
}

// Create validates in, assigns a fresh id and appends the record.
func (s *Store) Create(ctx context.Context, in core.Input) (core.Record, error) {
	fields, err := in.Validate()
	if err != nil {
		return core.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec := core.Record{ID: s.nextIDLocked(now), CreatedAt: now}.Apply(fields)

	s.records = append(s.records, rec)
	if err := s.persistLocked(ctx); err != nil {
		s.records = s.records[:len(s.records)-1]
		return core.Record{}, err
	}

	s.logMutation(ctx, log.OpCreate, rec)
	return rec, nil
}

// Update replaces title, amount, category and date of the record with id.
func (s *Store) Update(ctx context.Context, id int64, in core.Input) (core.Record, error) {
	fields, err := in.Validate()
	if err != nil {
		return core.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return core.Record{}, &core.NotFoundError{ID: id}
	}

	prev := s.records[i]
	updated := prev.Apply(fields)
	s.records[i] = updated
	if err := s.persistLocked(ctx); err != nil {
		s.records[i] = prev
		return core.Record{}, err
	}

	s.logMutation(ctx, log.OpUpdate, updated)
	return updated, nil
}

// Delete removes the record with id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return &core.NotFoundError{ID: id}
	}

	prev := slices.Clone(s.records)
	removed := s.records[i]
	s.records = slices.Delete(s.records, i, i+1)
	if err := s.persistLocked(ctx); err != nil {
		s.records = prev
		return err
	}

	s.logMutation(ctx, log.OpDelete, removed)
	return nil
}

// All returns a copy of the collection in insertion order.
func (s *Store) All() []core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

func (s *Store) Get(id int64) (core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.records[i], nil
	}
	return core.Record{}, &core.NotFoundError{ID: id}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// nextIDLocked derives ids from the wall clock in milliseconds, bumping past
// the last issued id when two records land in the same millisecond.
func (s *Store) nextIDLocked(now time.Time) int64 {
	id := max(now.UnixMilli(), s.lastID+1)
	s.lastID = id
	return id
}

func (s *Store) indexLocked(id int64) int {
	return slices.IndexFunc(s.records, func(r core.Record) bool { return r.ID == id })
}

func (s *Store) logMutation(ctx context.Context, op string, r core.Record) {
	s.events.LogMutation(ctx, op, r.ID, r.Title, r.Amount.String(), string(r.Category), r.Date.String())
}
