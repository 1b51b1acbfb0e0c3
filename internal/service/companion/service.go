package companion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/companionhq/companion/backend/internal/model/chat"
	"github.com/companionhq/companion/backend/internal/model/companion"
)

var ErrForbidden = errors.New("companion: forbidden")

// Service validates and writes companion definitions. Writes are
// all-or-nothing: a definition that fails any constraint never
// reaches the store.
type Service struct {
	companions companion.Store
	categories companion.CategoryStore
	messages   chat.Store

	now func() time.Time
}

// New wires the authoring service.
func New(companions companion.Store, categories companion.CategoryStore, messages chat.Store) *Service {
	return &Service{
		companions: companions,
		categories: categories,
		messages:   messages,
		now:        time.Now,
	}
}

// CreateOrUpdate validates the definition and persists it. With an
// existingID it overwrites the mutable fields of the caller's own
// companion, preserving id, owner, and creation time; without one it
// creates a new companion owned by the caller.
func (s *Service) CreateOrUpdate(ctx context.Context, callerID string, def companion.Definition, existingID string) (companion.Companion, error) {
	if err := def.Validate(); err != nil {
		return companion.Companion{}, err
	}

	// A dangling category is an authoring mistake the caller can fix,
	// so it reports as a validation failure on categoryId.
	if _, err := s.categories.GetCategory(ctx, def.CategoryID); err != nil {
		if errors.Is(err, companion.ErrCategoryNotFound) {
			return companion.Companion{}, &companion.ValidationError{Fields: []string{"categoryId"}}
		}
		return companion.Companion{}, fmt.Errorf("companion: resolve category: %w", err)
	}

	now := s.now().UTC()

	if existingID == "" {
		created := companion.Companion{
			ID:           uuid.NewString(),
			OwnerID:      callerID,
			Name:         def.Name,
			Description:  def.Description,
			Instructions: def.Instructions,
			Seed:         def.Seed,
			ImageRef:     def.ImageRef,
			CategoryID:   def.CategoryID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.companions.Create(ctx, created); err != nil {
			return companion.Companion{}, fmt.Errorf("companion: create: %w", err)
		}
		return created, nil
	}

	existing, err := s.companions.Get(ctx, existingID)
	if err != nil {
		return companion.Companion{}, fmt.Errorf("companion: resolve: %w", err)
	}
	if existing.OwnerID != callerID {
		return companion.Companion{}, ErrForbidden
	}

	existing.Name = def.Name
	existing.Description = def.Description
	existing.Instructions = def.Instructions
	existing.Seed = def.Seed
	existing.ImageRef = def.ImageRef
	existing.CategoryID = def.CategoryID
	existing.UpdatedAt = now

	if err := s.companions.Update(ctx, existing); err != nil {
		return companion.Companion{}, fmt.Errorf("companion: update: %w", err)
	}
	return existing, nil
}

// Get returns one companion by id.
func (s *Service) Get(ctx context.Context, id string) (companion.Companion, error) {
	c, err := s.companions.Get(ctx, id)
	if err != nil {
		return companion.Companion{}, fmt.Errorf("companion: resolve: %w", err)
	}
	return c, nil
}

// List returns companions matching the filter, newest first.
func (s *Service) List(ctx context.Context, f companion.Filter) ([]companion.Companion, error) {
	items, err := s.companions.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("companion: list: %w", err)
	}
	if items == nil {
		items = []companion.Companion{}
	}
	return items, nil
}

// ListCategories returns the category reference data.
func (s *Service) ListCategories(ctx context.Context) ([]companion.Category, error) {
	items, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("companion: list categories: %w", err)
	}
	return items, nil
}

// Delete removes the caller's own companion together with every
// conversation held with it.
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	existing, err := s.companions.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("companion: resolve: %w", err)
	}
	if existing.OwnerID != callerID {
		return ErrForbidden
	}

	if err := s.companions.Delete(ctx, id); err != nil {
		return fmt.Errorf("companion: delete: %w", err)
	}
	if err := s.messages.DeleteCompanion(ctx, id); err != nil {
		return fmt.Errorf("companion: delete conversations: %w", err)
	}
	return nil
}
