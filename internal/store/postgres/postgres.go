package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/companionhq/companion/backend/internal/entitlement"
	"github.com/companionhq/companion/backend/internal/model/chat"
	"github.com/companionhq/companion/backend/internal/model/companion"
	"github.com/companionhq/companion/backend/internal/model/usage"
)

// Store implements every persistence contract of the service on a
// single postgres pool: companions, categories, conversations, usage
// windows, and entitlement state.
type Store struct {
	db *pgxpool.Pool
}

// New connects a pool and verifies the database is reachable.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse database config: %w", err)
	}

	cfg.MaxConns = 20
	cfg.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping database: %w", err)
	}

	return &Store{db: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.db.Close()
}

// ChatStore is the conversation-store view of the same pool. It is a
// separate type because chat.Store and companion.Store each declare a
// List method with a different signature, which one Go type cannot
// carry.
type ChatStore struct {
	db *pgxpool.Pool
}

// Chat returns the conversation store backed by the same pool.
func (s *Store) Chat() *ChatStore {
	return &ChatStore{db: s.db}
}

var (
	_ companion.Store         = (*Store)(nil)
	_ companion.CategoryStore = (*Store)(nil)
	_ chat.Store              = (*ChatStore)(nil)
	_ usage.Store             = (*Store)(nil)
	_ entitlement.Store       = (*Store)(nil)
)
