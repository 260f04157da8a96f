package cache

import (
	"context"
	"time"

	"weekbudget/internal/storage"
)

// CachedStore is a read-through cache in front of a KeyValueStore. Writes go
// to the backing store first and then replace the cached value; a failed
// write evicts the key so the next read observes the store again.
type CachedStore struct {
	next  storage.KeyValueStore
	cache *LRUCache[[]byte]
}

var _ storage.KeyValueStore = (*CachedStore)(nil)

func NewCachedStore(next storage.KeyValueStore, maxSize int, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, cache: NewLRUCache[[]byte](maxSize, ttl)}
}

// Get implements storage.KeyValueStore
func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		return append([]byte(nil), v...), true, nil
	}
	v, ok, err := s.next.Get(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	s.cache.Set(key, append([]byte(nil), v...))
	return v, true, nil
}

// Set implements storage.KeyValueStore
func (s *CachedStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.next.Set(ctx, key, value); err != nil {
		s.cache.Delete(key)
		return err
	}
	s.cache.Set(key, append([]byte(nil), value...))
	return nil
}

// CleanExpired implements Cleaner
func (s *CachedStore) CleanExpired() int {
	return s.cache.CleanExpired()
}

func (s *CachedStore) Stats() Stats {
	return s.cache.Stats()
}
