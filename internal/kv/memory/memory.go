package memory

import (
	"context"
	"maps"
	"sync"
)

// Store keeps values in process memory. Contents are lost on exit.
type Store struct {
	mu     sync.Mutex
	values map[string]string
}

func New() *Store {
	return &Store{values: make(map[string]string)}
}

// NewWithValues seeds the store, mostly useful in tests.
func NewWithValues(seed map[string]string) *Store {
	s := New()
	maps.Copy(s.values, seed)
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Close is a no-op so the memory store satisfies the same lifecycle as sqlite.
func (s *Store) Close() error { return nil }
