package companion

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore implements Store with an in-memory map, suitable for
// tests and single-process deployments without a database.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Companion
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Companion)}
}

func (s *MemoryStore) Create(_ context.Context, c Companion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[c.ID] = c
	return nil
}

func (s *MemoryStore) Update(_ context.Context, c Companion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[c.ID]; !ok {
		return ErrNotFound
	}
	s.items[c.ID] = c
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Companion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[id]
	if !ok {
		return Companion{}, ErrNotFound
	}
	return c, nil
}

// List returns companions matching the filter, newest first.
func (s *MemoryStore) List(_ context.Context, f Filter) ([]Companion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]Companion, 0, len(s.items))
	for _, c := range s.items {
		if f.CategoryID != "" && c.CategoryID != f.CategoryID {
			continue
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Name)) {
			continue
		}
		matched = append(matched, c)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// MemoryCategoryStore implements CategoryStore with a fixed slice.
type MemoryCategoryStore struct {
	items []Category
}

// NewMemoryCategoryStore returns a store preloaded with the supplied
// categories.
func NewMemoryCategoryStore(items []Category) *MemoryCategoryStore {
	return &MemoryCategoryStore{items: append([]Category(nil), items...)}
}

func (s *MemoryCategoryStore) ListCategories(_ context.Context) ([]Category, error) {
	return append([]Category(nil), s.items...), nil
}

func (s *MemoryCategoryStore) GetCategory(_ context.Context, id string) (Category, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return Category{}, ErrCategoryNotFound
}
