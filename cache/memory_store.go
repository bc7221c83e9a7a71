package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type item struct {
	value   []byte
	expires time.Time
}

// MemoryStore expires keys lazily on read using its clock.
type MemoryStore struct {
	clock clockwork.Clock
	mu    sync.RWMutex
	items map[string]item
}

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{clock: clock, items: make(map[string]item)}
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	it := item{value: slices.Clone(value)}
	if ttl > 0 {
		it.expires = s.clock.Now().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = it
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}
	if !it.expires.IsZero() && !s.clock.Now().Before(it.expires) {
		s.mu.Lock()
		delete(s.items, key)
		s.mu.Unlock()
		return nil, ErrMiss
	}
	return slices.Clone(it.value), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}
