package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/store"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishEvent(ctx context.Context, e *amqp.RecordEvent) error
}

// ExpenseService mutates the record store and announces every change.
// Events are best effort: a publish failure is logged and never fails the
// mutation, which is already persisted locally.
type ExpenseService struct {
	store     *store.Store
	publisher EventPublisher
	logger    *log.Logger

	hooksMu  sync.RWMutex
	onChange []func()
}

func NewExpenseService(s *store.Store, publisher EventPublisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseService{
		store:     s,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentStore),
	}
}

// OnChange registers fn to run after every successful mutation, e.g. to
// invalidate caches.
func (s *ExpenseService) OnChange(fn func()) {
	s.hooksMu.Lock()
	s.onChange = append(s.onChange, fn)
	s.hooksMu.Unlock()
}

func (s *ExpenseService) Create(ctx context.Context, in core.Input) (core.Record, error) {
	r, err := s.store.Create(ctx, in)
	if err != nil {
		return core.Record{}, err
	}
	s.changed(ctx, amqp.EventCreated, r)
	return r, nil
}

func (s *ExpenseService) Update(ctx context.Context, id int64, in core.Input) (core.Record, error) {
	r, err := s.store.Update(ctx, id, in)
	if err != nil {
		return core.Record{}, err
	}
	s.changed(ctx, amqp.EventUpdated, r)
	return r, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	r, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, amqp.EventDeleted, r)
	return nil
}

func (s *ExpenseService) Get(id int64) (core.Record, error) {
	return s.store.Get(id)
}

// All returns a snapshot of every record.
func (s *ExpenseService) All() []core.Record {
	return s.store.All()
}

func (s *ExpenseService) Load(ctx context.Context) error {
	if err := s.store.Load(ctx); err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	s.notify()
	return nil
}

func (s *ExpenseService) changed(ctx context.Context, t amqp.EventType, r core.Record) {
	s.notify()
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, amqp.NewRecordEvent(t, r)); err != nil {
		s.logger.LogFields(ctx, slog.LevelWarn, "Failed to publish expense event",
			log.NewFields().WithError(err).WithOperation(log.OpPublish).With(log.FieldRecordID, r.ID).With("type", string(t)))
	}
}

func (s *ExpenseService) notify() {
	s.hooksMu.RLock()
	hooks := s.onChange
	s.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}
