package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/companionhq/companion/backend/internal/model/usage"
)

// CheckAndIncrement applies the quota reset-or-increment step inside
// one transaction, locking the caller's row so concurrent messages
// from the same caller cannot race the counter.
func (s *Store) CheckAndIncrement(ctx context.Context, callerID string, limit int, window time.Duration) (usage.Record, bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return usage.Record{}, false, fmt.Errorf("postgres: begin quota tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	rec := usage.Record{CallerID: callerID}

	err = tx.QueryRow(ctx,
		`SELECT count, window_start FROM usage_records WHERE caller_id = $1 FOR UPDATE`,
		callerID,
	).Scan(&rec.Count, &rec.WindowStart)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		rec.Count = 1
		rec.WindowStart = now
		if _, err := tx.Exec(ctx,
			`INSERT INTO usage_records (caller_id, count, window_start) VALUES ($1, $2, $3)`,
			callerID, rec.Count, rec.WindowStart,
		); err != nil {
			return usage.Record{}, false, fmt.Errorf("postgres: create usage record: %w", err)
		}

	case err != nil:
		return usage.Record{}, false, fmt.Errorf("postgres: lock usage record: %w", err)

	case now.Sub(rec.WindowStart) >= window:
		rec.Count = 1
		rec.WindowStart = now
		if _, err := tx.Exec(ctx,
			`UPDATE usage_records SET count = $2, window_start = $3 WHERE caller_id = $1`,
			callerID, rec.Count, rec.WindowStart,
		); err != nil {
			return usage.Record{}, false, fmt.Errorf("postgres: reset usage window: %w", err)
		}

	case rec.Count >= limit:
		// Over quota: no mutation, report denied.
		if err := tx.Commit(ctx); err != nil {
			return usage.Record{}, false, fmt.Errorf("postgres: commit quota tx: %w", err)
		}
		return rec, false, nil

	default:
		rec.Count++
		if _, err := tx.Exec(ctx,
			`UPDATE usage_records SET count = $2 WHERE caller_id = $1`,
			callerID, rec.Count,
		); err != nil {
			return usage.Record{}, false, fmt.Errorf("postgres: increment usage record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return usage.Record{}, false, fmt.Errorf("postgres: commit quota tx: %w", err)
	}
	return rec, true, nil
}
