package entitlement

import (
	"context"
	"sync"
)

// MemoryStore implements Store with a mutex-guarded map. Callers
// without an entry are not entitled.
type MemoryStore struct {
	mu     sync.RWMutex
	active map[string]bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{active: make(map[string]bool)}
}

func (s *MemoryStore) IsEntitled(_ context.Context, callerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[callerID], nil
}

func (s *MemoryStore) SetEntitled(_ context.Context, callerID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active {
		s.active[callerID] = true
	} else {
		delete(s.active, callerID)
	}
	return nil
}
