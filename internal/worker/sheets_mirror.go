// Package worker keeps external copies of the expense collection in step
// with local changes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/sheets"
)

// Source provides the records to mirror.
type Source interface {
	Load(ctx context.Context) error
	All() []core.Record
}

// MirrorConfig holds configuration for the sheets mirror.
type MirrorConfig struct {
	// Interval is how often pending changes are flushed (default: 5s).
	Interval time.Duration

	// MaxRetries is the number of export attempts per flush (default: 3).
	MaxRetries int

	// RetryDelay is the first backoff between attempts; it doubles each
	// retry (default: 1s).
	RetryDelay time.Duration

	// Reload makes each flush re-read the source from storage first. Set it
	// when the changes were made by another process.
	Reload bool
}

// DefaultMirrorConfig returns sensible defaults
func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{
		Interval:   5 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// SheetsMirror coalesces change notifications and periodically replaces the
// sheet with a full snapshot of the source. Many changes between two ticks
// cost one export.
type SheetsMirror struct {
	source   Source
	exporter sheets.RecordExporter
	config   MirrorConfig
	logger   *log.Logger

	mu       sync.Mutex
	dirty    bool
	running  bool
	exports  int
	failures int
}

// NewSheetsMirror creates a mirror; zero config fields take their defaults.
func NewSheetsMirror(source Source, exporter sheets.RecordExporter, config MirrorConfig, logger *log.Logger) *SheetsMirror {
	def := DefaultMirrorConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = def.RetryDelay
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &SheetsMirror{
		source:   source,
		exporter: exporter,
		config:   config,
		logger:   logger.WithComponent(log.ComponentSheets),
	}
}

// MarkDirty schedules a flush on the next tick. It is cheap enough to be
// registered as a change hook.
func (m *SheetsMirror) MarkDirty() {
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
}

// HandleEvent is an amqp consumer handler that marks the mirror dirty for
// every change event.
func (m *SheetsMirror) HandleEvent(ctx context.Context, e *amqp.RecordEvent) error {
	m.logger.DebugContext(ctx, "Change event queued for mirror",
		log.FieldRecordID, e.ID,
		"type", string(e.Type))
	m.MarkDirty()
	return nil
}

// Pending reports whether changes are waiting to be flushed.
func (m *SheetsMirror) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Stats returns the number of successful exports and of flushes that gave up.
func (m *SheetsMirror) Stats() (exports, failures int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exports, m.failures
}

// Run flushes pending changes every Interval until ctx is done, then makes a
// last flush with a fresh context. It returns an error only if the mirror is
// already running.
func (m *SheetsMirror) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("sheets mirror is already running")
	}
	m.running = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	m.logger.InfoContext(ctx, "Sheets mirror started", "interval", m.config.Interval)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if m.Pending() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				m.Flush(flushCtx)
				cancel()
			}
			m.logger.Info("Sheets mirror stopped")
			return nil
		case <-ticker.C:
			m.Flush(ctx)
		}
	}
}

// Flush exports the current snapshot if changes are pending. A flush that
// exhausts its retries leaves the mirror dirty so the next tick tries again.
func (m *SheetsMirror) Flush(ctx context.Context) {
	m.mu.Lock()
	if !m.dirty {
		m.mu.Unlock()
		return
	}
	m.dirty = false
	m.mu.Unlock()

	if err := m.export(ctx); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.failures++
		m.mu.Unlock()
		m.logger.ErrorContext(ctx, "Failed to mirror expenses to Google Sheets",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpExport)
	}
}

func (m *SheetsMirror) export(ctx context.Context) error {
	if m.config.Reload {
		if err := m.source.Load(ctx); err != nil {
			return fmt.Errorf("reload source: %w", err)
		}
	}

	records := m.source.All()
	if len(records) == 0 {
		// The sheet keeps its last snapshot; an empty export is rejected.
		m.logger.DebugContext(ctx, "Nothing to mirror")
		return nil
	}

	delay := m.config.RetryDelay
	var err error
	for attempt := 1; attempt <= m.config.MaxRetries; attempt++ {
		var ref string
		ref, err = m.exporter.Export(ctx, records)
		if err == nil {
			m.mu.Lock()
			m.exports++
			m.mu.Unlock()
			m.logger.InfoContext(ctx, "Mirrored expenses to Google Sheets",
				log.FieldCount, len(records),
				log.FieldSheetsRef, ref,
				"attempt", attempt)
			return nil
		}
		if attempt == m.config.MaxRetries {
			break
		}

		m.logger.WarnContext(ctx, "Mirror export failed, retrying",
			log.FieldError, err.Error(),
			"attempt", attempt,
			"retry_in", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return fmt.Errorf("export after %d attempts: %w", m.config.MaxRetries, err)
}
