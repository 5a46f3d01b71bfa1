package memory

import (
	"context"
	"sync"
	"testing"

	"expenses/internal/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ kv.Store = (*Store)(nil)

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, ok, err := s.Get(ctx, kv.KeyExpenses)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, kv.KeyExpenses, "[]"))
	require.NoError(t, s.Set(ctx, kv.KeyExpenses, `[{"id":1}]`))

	v, ok, err := s.Get(ctx, kv.KeyExpenses)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, v)
}

func TestStore_EmptyValueIsPresent(t *testing.T) {
	s := NewWithValues(map[string]string{kv.KeyDarkMode: ""})
	v, ok, err := s.Get(context.Background(), kv.KeyDarkMode)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestStore_ConcurrentWrites(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Set(context.Background(), kv.KeyDarkMode, "true")
		}()
	}
	wg.Wait()

	v, _, _ := s.Get(context.Background(), kv.KeyDarkMode)
	assert.Equal(t, "true", v)
}
