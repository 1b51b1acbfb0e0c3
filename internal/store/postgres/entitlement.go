package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// IsEntitled reads the caller's current entitlement state. Callers
// the webhook never mentioned are not entitled.
func (s *Store) IsEntitled(ctx context.Context, callerID string) (bool, error) {
	var active bool
	err := s.db.QueryRow(ctx,
		`SELECT active FROM entitlements WHERE caller_id = $1`,
		callerID,
	).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("postgres: get entitlement: %w", err)
	}
	return active, nil
}

// SetEntitled records the entitlement state delivered by the billing
// webhook.
func (s *Store) SetEntitled(ctx context.Context, callerID string, active bool) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO entitlements (caller_id, active, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (caller_id) DO UPDATE SET active = EXCLUDED.active, updated_at = now()`,
		callerID, active,
	)
	if err != nil {
		return fmt.Errorf("postgres: set entitlement: %w", err)
	}
	return nil
}
