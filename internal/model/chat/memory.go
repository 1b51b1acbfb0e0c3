package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type pairKey struct {
	companionID string
	callerID    string
}

// MemoryStore implements Store with in-memory slices keyed by
// conversation pair. The mutex is held only for map and slice
// mutation, never across I/O.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[pairKey][]Message

	// Now is the clock used for message timestamps; tests override it.
	Now func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		convs: make(map[pairKey][]Message),
		Now:   time.Now,
	}
}

func (s *MemoryStore) Append(_ context.Context, msg Message) (Message, error) {
	if msg.CompanionID == "" || msg.CallerID == "" {
		return Message{}, ErrMissingConversationKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{companionID: msg.CompanionID, callerID: msg.CallerID}
	existing := s.convs[key]

	msg.ID = uuid.NewString()
	msg.Seq = 1
	msg.CreatedAt = s.Now().UTC()
	if n := len(existing); n > 0 {
		last := existing[n-1]
		msg.Seq = last.Seq + 1
		// Clamp so CreatedAt never runs backwards within a pair.
		if msg.CreatedAt.Before(last.CreatedAt) {
			msg.CreatedAt = last.CreatedAt
		}
	}

	s.convs[key] = append(existing, msg)
	return msg, nil
}

func (s *MemoryStore) List(_ context.Context, companionID, callerID string) ([]Message, error) {
	if companionID == "" || callerID == "" {
		return nil, ErrMissingConversationKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	existing := s.convs[pairKey{companionID: companionID, callerID: callerID}]
	copied := make([]Message, len(existing))
	copy(copied, existing)
	return copied, nil
}

func (s *MemoryStore) Reset(_ context.Context, companionID, callerID string) error {
	if companionID == "" || callerID == "" {
		return ErrMissingConversationKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, pairKey{companionID: companionID, callerID: callerID})
	return nil
}

func (s *MemoryStore) DeleteCompanion(_ context.Context, companionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.convs {
		if key.companionID == companionID {
			delete(s.convs, key)
		}
	}
	return nil
}
