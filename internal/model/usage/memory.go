package usage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with a mutex-guarded map.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record

	// Now is the clock used for window arithmetic; tests override it.
	Now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		Now:     time.Now,
	}
}

func (s *MemoryStore) CheckAndIncrement(_ context.Context, callerID string, limit int, window time.Duration) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now().UTC()
	rec, ok := s.records[callerID]
	if !ok || now.Sub(rec.WindowStart) >= window {
		rec = Record{CallerID: callerID, Count: 1, WindowStart: now}
		s.records[callerID] = rec
		return rec, true, nil
	}

	if rec.Count >= limit {
		return rec, false, nil
	}

	rec.Count++
	s.records[callerID] = rec
	return rec, true, nil
}
