// Package session tracks the per-user interaction state around the record
// store: which record is being edited and which one is staged for deletion.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"expenses/internal/core"
	"expenses/internal/log"
)

// Records is the subset of the record store a session drives.
type Records interface {
	Create(ctx context.Context, in core.Input) (core.Record, error)
	Update(ctx context.Context, id int64, in core.Input) (core.Record, error)
	Delete(ctx context.Context, id int64) error
	Get(id int64) (core.Record, error)
}

// Confirmation describes a delete awaiting confirmation.
type Confirmation struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

// Session is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	records Records
	logger  *log.Logger

	editing    int64
	hasEditing bool
	staged     int64
	hasStaged  bool
}

func New(records Records, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Discard()
	}
	return &Session{records: records, logger: logger.WithComponent(log.ComponentSession)}
}

// BeginEdit selects id as the edit target and returns the record so a form
// can be pre-filled.
func (s *Session) BeginEdit(id int64) (core.Record, error) {
	r, err := s.records.Get(id)
	if err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	s.editing, s.hasEditing = id, true
	s.mu.Unlock()
	return r, nil
}

// Editing returns the current edit target, if any.
func (s *Session) Editing() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing, s.hasEditing
}

func (s *Session) CancelEdit() {
	s.mu.Lock()
	s.editing, s.hasEditing = 0, false
	s.mu.Unlock()
}

// Submit updates the edit target when one is selected, otherwise it creates
// a new record. created reports which of the two happened. A validation
// failure keeps the edit target so the form can be corrected.
func (s *Session) Submit(ctx context.Context, in core.Input) (rec core.Record, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasEditing {
		rec, err = s.records.Create(ctx, in)
		return rec, err == nil, err
	}

	rec, err = s.records.Update(ctx, s.editing, in)
	if errors.Is(err, core.ErrValidation) {
		return core.Record{}, false, err
	}
	s.editing, s.hasEditing = 0, false
	return rec, false, err
}

// StageDelete marks id for deletion and returns the text to confirm.
func (s *Session) StageDelete(id int64) (Confirmation, error) {
	r, err := s.records.Get(id)
	if err != nil {
		return Confirmation{}, err
	}

	s.mu.Lock()
	s.staged, s.hasStaged = id, true
	s.mu.Unlock()

	s.logger.Debug("Delete staged", log.FieldRecordID, id, log.FieldOperation, log.OpStage)
	return Confirmation{ID: id, Description: Describe(r)}, nil
}

// Staged returns the id awaiting confirmation, if any.
func (s *Session) Staged() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged, s.hasStaged
}

// ConfirmDelete deletes the staged record and returns its id. It returns 0
// without error when nothing was staged. The staging is cleared in every
// case.
func (s *Session) ConfirmDelete(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasStaged {
		return 0, nil
	}
	id := s.staged
	s.staged, s.hasStaged = 0, false

	if err := s.records.Delete(ctx, id); err != nil {
		return 0, fmt.Errorf("confirm delete: %w", err)
	}
	if s.hasEditing && s.editing == id {
		s.editing, s.hasEditing = 0, false
	}
	return id, nil
}

func (s *Session) CancelDelete() {
	s.mu.Lock()
	s.staged, s.hasStaged = 0, false
	s.mu.Unlock()
}

// Describe renders the confirmation text for r, e.g. "Rent - $1200.00".
func Describe(r core.Record) string {
	return r.Title + " - $" + r.Amount.String()
}
