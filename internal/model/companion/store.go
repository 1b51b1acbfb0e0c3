package companion

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("companion: not found")
	ErrCategoryNotFound = errors.New("companion: category not found")
)

// Filter narrows List results. Zero values mean no filtering.
type Filter struct {
	CategoryID string
	Name       string // case-insensitive substring match
}

// Store persists companion definitions.
type Store interface {
	Create(ctx context.Context, c Companion) error
	Update(ctx context.Context, c Companion) error
	Get(ctx context.Context, id string) (Companion, error)
	List(ctx context.Context, f Filter) ([]Companion, error)
	Delete(ctx context.Context, id string) error
}

// CategoryStore exposes the read-only category reference data.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id string) (Category, error)
}
