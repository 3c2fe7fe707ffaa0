package memory

import (
	"context"
	"sync"
	"time"
)

type idempotencyEntry struct {
	value   string
	expires time.Time
}

// IdempotencyStore keeps request keys in memory until their TTL elapses.
type IdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]idempotencyEntry
	now     func() time.Time
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{ttl: ttl, entries: make(map[string]idempotencyEntry), now: time.Now}
}

func (s *IdempotencyStore) Lookup(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if s.now().After(e.expires) {
		delete(s.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

// Remember stores value under key unless a live entry already exists.
func (s *IdempotencyStore) Remember(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && !s.now().After(e.expires) {
		return nil
	}
	s.entries[key] = idempotencyEntry{value: value, expires: s.now().Add(s.ttl)}
	return nil
}
