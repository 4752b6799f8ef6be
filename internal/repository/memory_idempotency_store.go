package repository

import (
	"context"
	"sync"
	"time"

	"valentine-server/internal/domain"
)

type memoryEntry struct {
	record  *domain.Response // nil пока запрос в работе
	expires time.Time
}

// MemoryIdempotencyStore is the single-process fallback when Redis is not configured.
type MemoryIdempotencyStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	pendingTTL time.Duration
	doneTTL    time.Duration
	now        func() time.Time
}

var _ IdempotencyStore = (*MemoryIdempotencyStore)(nil)

func NewMemoryIdempotencyStore(pendingTTL, doneTTL time.Duration) *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		entries:    make(map[string]memoryEntry),
		pendingTTL: pendingTTL,
		doneTTL:    doneTTL,
		now:        time.Now,
	}
}

func (s *MemoryIdempotencyStore) Reserve(_ context.Context, key string) (*domain.Response, error) {
	if key == "" {
		return nil, errEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictLocked(now)
	if e, ok := s.entries[key]; ok {
		if e.record == nil {
			return nil, domain.ErrSubmissionInFlight
		}
		rec := *e.record
		return &rec, nil
	}
	s.entries[key] = memoryEntry{expires: now.Add(s.pendingTTL)}
	return nil, nil
}

func (s *MemoryIdempotencyStore) Complete(_ context.Context, key string, r *domain.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := *r
	s.entries[key] = memoryEntry{record: &rec, expires: s.now().Add(s.doneTTL)}
	return nil
}

func (s *MemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryIdempotencyStore) evictLocked(now time.Time) {
	for k, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, k)
		}
	}
}
