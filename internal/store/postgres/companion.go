package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/companionhq/companion/backend/internal/model/companion"
)

func (s *Store) Create(ctx context.Context, c companion.Companion) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO companions (id, owner_id, name, description, instructions, seed, image_ref, category_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.OwnerID, c.Name, c.Description, c.Instructions, c.Seed, c.ImageRef, c.CategoryID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create companion: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, c companion.Companion) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE companions
		 SET name = $2, description = $3, instructions = $4, seed = $5, image_ref = $6, category_id = $7, updated_at = $8
		 WHERE id = $1`,
		c.ID, c.Name, c.Description, c.Instructions, c.Seed, c.ImageRef, c.CategoryID, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update companion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return companion.ErrNotFound
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (companion.Companion, error) {
	var c companion.Companion
	err := s.db.QueryRow(ctx,
		`SELECT id, owner_id, name, description, instructions, seed, image_ref, category_id, created_at, updated_at
		 FROM companions WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Description, &c.Instructions, &c.Seed, &c.ImageRef, &c.CategoryID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return companion.Companion{}, companion.ErrNotFound
		}
		return companion.Companion{}, fmt.Errorf("postgres: get companion: %w", err)
	}
	return c, nil
}

func (s *Store) List(ctx context.Context, f companion.Filter) ([]companion.Companion, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, owner_id, name, description, instructions, seed, image_ref, category_id, created_at, updated_at
		 FROM companions
		 WHERE ($1 = '' OR category_id = $1)
		   AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		 ORDER BY created_at DESC, id`,
		f.CategoryID, f.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list companions: %w", err)
	}
	defer rows.Close()

	var items []companion.Companion
	for rows.Next() {
		var c companion.Companion
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Description, &c.Instructions, &c.Seed, &c.ImageRef, &c.CategoryID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan companion: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list companions: %w", err)
	}
	return items, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM companions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete companion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return companion.ErrNotFound
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]companion.Category, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list categories: %w", err)
	}
	defer rows.Close()

	var items []companion.Category
	for rows.Next() {
		var c companion.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("postgres: scan category: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list categories: %w", err)
	}
	return items, nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (companion.Category, error) {
	var c companion.Category
	err := s.db.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return companion.Category{}, companion.ErrCategoryNotFound
		}
		return companion.Category{}, fmt.Errorf("postgres: get category: %w", err)
	}
	return c, nil
}
