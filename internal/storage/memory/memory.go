package memory

import (
	"context"
	"sort"
	"sync"

	"weekbudget/internal/storage"
)

// Store is an in-process KeyValueStore. Values are copied on the way in and
// out so callers cannot mutate stored slices.
type Store struct {
	mu    sync.Mutex
	items map[string][]byte
	// failWrites makes Set return ErrWriteFailed to exercise best-effort saves.
	failWrites bool
}

var _ storage.KeyValueStore = (*Store)(nil)

func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// NewSeeded returns a store preloaded with raw values.
func NewSeeded(seed map[string]string) *Store {
	s := New()
	for k, v := range seed {
		s.items[k] = []byte(v)
	}
	return s
}

// Get implements storage.KeyValueStore
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements storage.KeyValueStore
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return ErrWriteFailed
	}
	s.items[key] = append([]byte(nil), value...)
	return nil
}

// FailWrites toggles simulated write failures.
func (s *Store) FailWrites(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = fail
}

// Keys returns the stored keys sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
