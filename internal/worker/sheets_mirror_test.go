package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	records []core.Record
	loads   int
	loadErr error
}

func (s *fakeSource) Load(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.loadErr
}

func (s *fakeSource) All() []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.records...)
}

type fakeExporter struct {
	mu    sync.Mutex
	calls int
	fails int // number of calls that fail before succeeding
	last  []core.Record
}

func (e *fakeExporter) Export(_ context.Context, records []core.Record) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.fails > 0 {
		e.fails--
		return "", errors.New("quota exceeded")
	}
	e.last = records
	return "Expenses!A1:D2", nil
}

func (e *fakeExporter) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func oneRecord() []core.Record {
	return []core.Record{{ID: 1, Title: "Rent", Amount: core.Money{Cents: 120000}, Category: core.Bills, Date: core.NewDate(2024, 3, 1)}}
}

func fastConfig() MirrorConfig {
	return MirrorConfig{Interval: 10 * time.Millisecond, MaxRetries: 3, RetryDelay: time.Millisecond}
}

func TestNewSheetsMirrorDefaults(t *testing.T) {
	m := NewSheetsMirror(&fakeSource{}, &fakeExporter{}, MirrorConfig{}, nil)
	assert.Equal(t, DefaultMirrorConfig(), m.config)
	assert.False(t, m.Pending())
}

func TestFlushOnlyWhenDirty(t *testing.T) {
	src := &fakeSource{records: oneRecord()}
	exp := &fakeExporter{}
	m := NewSheetsMirror(src, exp, fastConfig(), nil)

	m.Flush(context.Background())
	assert.Zero(t, exp.Calls())

	m.MarkDirty()
	m.MarkDirty()
	m.Flush(context.Background())
	assert.Equal(t, 1, exp.Calls())
	assert.Equal(t, oneRecord(), exp.last)
	assert.False(t, m.Pending())
	assert.Zero(t, src.loads, "source is not reloaded by default")

	exports, failures := m.Stats()
	assert.Equal(t, 1, exports)
	assert.Zero(t, failures)
}

func TestFlushRetries(t *testing.T) {
	exp := &fakeExporter{fails: 2}
	m := NewSheetsMirror(&fakeSource{records: oneRecord()}, exp, fastConfig(), nil)

	m.MarkDirty()
	m.Flush(context.Background())
	assert.Equal(t, 3, exp.Calls())
	assert.False(t, m.Pending())
}

func TestFlushGivesUpAndStaysDirty(t *testing.T) {
	exp := &fakeExporter{fails: 10}
	m := NewSheetsMirror(&fakeSource{records: oneRecord()}, exp, fastConfig(), nil)

	m.MarkDirty()
	m.Flush(context.Background())
	assert.Equal(t, 3, exp.Calls())
	assert.True(t, m.Pending())

	_, failures := m.Stats()
	assert.Equal(t, 1, failures)
}

func TestFlushSkipsEmptySource(t *testing.T) {
	exp := &fakeExporter{}
	m := NewSheetsMirror(&fakeSource{}, exp, fastConfig(), nil)

	m.MarkDirty()
	m.Flush(context.Background())
	assert.Zero(t, exp.Calls())
	assert.False(t, m.Pending())
}

func TestFlushReload(t *testing.T) {
	src := &fakeSource{records: oneRecord()}
	cfg := fastConfig()
	cfg.Reload = true
	m := NewSheetsMirror(src, &fakeExporter{}, cfg, nil)

	m.MarkDirty()
	m.Flush(context.Background())
	assert.Equal(t, 1, src.loads)

	src.loadErr = errors.New("disk gone")
	m.MarkDirty()
	m.Flush(context.Background())
	assert.True(t, m.Pending())
}

func TestRunFlushesEvents(t *testing.T) {
	exp := &fakeExporter{}
	m := NewSheetsMirror(&fakeSource{records: oneRecord()}, exp, fastConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.NoError(t, m.HandleEvent(ctx, amqp.NewRecordEvent(amqp.EventCreated, oneRecord()[0])))
	require.Eventually(t, func() bool { return exp.Calls() == 1 }, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.running
	}, time.Second, time.Millisecond)
	assert.Error(t, m.Run(ctx), "second Run is rejected")

	cancel()
	require.NoError(t, <-done)
}

func TestRunFinalFlushOnShutdown(t *testing.T) {
	exp := &fakeExporter{}
	cfg := fastConfig()
	cfg.Interval = time.Hour
	m := NewSheetsMirror(&fakeSource{records: oneRecord()}, exp, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	m.MarkDirty()
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, exp.Calls())
}
