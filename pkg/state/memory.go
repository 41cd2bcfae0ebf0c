package state

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

type memoryEntry struct {
	state     string
	expiresAt time.Time
}

// MemoryStore is an in-memory Store suitable for single-process deployments
// and tests. Expired entries are dropped lazily on access.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memoryEntry
	now   func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTTL overrides the default pending-login TTL.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		ttl:   DefaultTTL,
		items: make(map[string]memoryEntry),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores the state for a session, replacing any pending one.
func (s *MemoryStore) Put(_ context.Context, sessionID, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked()
	s.items[sessionID] = memoryEntry{
		state:     state,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// TakeIfMatches compares and deletes under a single lock acquisition,
// so concurrent callbacks cannot both consume the same state.
func (s *MemoryStore) TakeIfMatches(_ context.Context, sessionID, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked()
	entry, ok := s.items[sessionID]
	if !ok {
		return false, nil
	}
	delete(s.items, sessionID)

	return subtle.ConstantTimeCompare([]byte(entry.state), []byte(state)) == 1, nil
}

func (s *MemoryStore) cleanupLocked() {
	if len(s.items) == 0 {
		return
	}
	now := s.now()
	for key, entry := range s.items {
		if entry.expiresAt.Before(now) {
			delete(s.items, key)
		}
	}
}
