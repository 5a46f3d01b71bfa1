package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/kv/memory"
	"expenses/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.RecordEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, e *amqp.RecordEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var rent = core.Input{Title: "Rent", Amount: "1200", Category: "bills", Date: "2024-03-01"}

func TestExpenseService_PublishesEveryMutation(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewExpenseService(store.New(memory.New()), pub, nil)

	changes := 0
	svc.OnChange(func() { changes++ })

	r, err := svc.Create(ctx, rent)
	require.NoError(t, err)
	_, err = svc.Update(ctx, r.ID, core.Input{Title: "Rent", Amount: "1300", Category: "bills", Date: "2024-03-01"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, r.ID))

	assert.Equal(t, []amqp.EventType{amqp.EventCreated, amqp.EventUpdated, amqp.EventDeleted}, pub.types())
	assert.Equal(t, r.ID, pub.events[2].ID)
	assert.Equal(t, "1300.00", pub.events[2].Record.Amount.String(), "deleted event carries last state")
	assert.Equal(t, 3, changes)
	assert.Empty(t, svc.All())
}

func TestExpenseService_FailedMutationPublishesNothing(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewExpenseService(store.New(memory.New()), pub, nil)

	_, err := svc.Create(context.Background(), core.Input{Title: "x"})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.ErrorIs(t, svc.Delete(context.Background(), 1), core.ErrNotFound)
	assert.Empty(t, pub.types())
}

func TestExpenseService_PublishErrorDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewExpenseService(store.New(memory.New()), pub, nil)

	r, err := svc.Create(context.Background(), rent)
	require.NoError(t, err)
	got, err := svc.Get(r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rent", got.Title)
}

func TestExpenseService_WithoutPublisher(t *testing.T) {
	svc := NewExpenseService(store.New(memory.New()), nil, nil)
	_, err := svc.Create(context.Background(), rent)
	require.NoError(t, err)
	require.NoError(t, svc.Load(context.Background()))
	assert.Len(t, svc.All(), 1)
}

func TestExpenseService_OnChangeWhileMutating(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(store.New(memory.New()), nil, nil)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		calls int
	)
	hook := func() {
		mu.Lock()
		calls++
		mu.Unlock()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 50 {
			svc.OnChange(func() {})
		}
	}()
	go func() {
		defer wg.Done()
		for range 50 {
			_, err := svc.Create(ctx, rent)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	svc.OnChange(hook)
	_, err := svc.Create(ctx, rent)
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "a hook registered before a write sees it")
}
