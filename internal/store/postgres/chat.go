package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/companionhq/companion/backend/internal/model/chat"
)

const uniqueViolation = "23505"

// appendAttempts bounds the optimistic retry loop when two writers
// race for the same sequence number.
const appendAttempts = 5

// Append inserts a message with the next sequence number for its
// pair. The sequence is computed and inserted in one statement; the
// UNIQUE (companion_id, caller_id, seq) constraint turns a concurrent
// append into a retryable conflict instead of an ordering violation.
func (s *ChatStore) Append(ctx context.Context, msg chat.Message) (chat.Message, error) {
	if msg.CompanionID == "" || msg.CallerID == "" {
		return chat.Message{}, chat.ErrMissingConversationKey
	}

	msg.ID = uuid.NewString()

	var lastErr error
	for attempt := 0; attempt < appendAttempts; attempt++ {
		err := s.db.QueryRow(ctx,
			`INSERT INTO messages (id, companion_id, caller_id, role, content, seq, created_at)
			 VALUES ($1, $2, $3, $4, $5,
			         COALESCE((SELECT MAX(seq) FROM messages WHERE companion_id = $2 AND caller_id = $3), 0) + 1,
			         GREATEST(now(), COALESCE((SELECT MAX(created_at) FROM messages WHERE companion_id = $2 AND caller_id = $3), now())))
			 RETURNING seq, created_at`,
			msg.ID, msg.CompanionID, msg.CallerID, string(msg.Role), msg.Content,
		).Scan(&msg.Seq, &msg.CreatedAt)
		if err == nil {
			return msg, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			lastErr = err
			continue
		}
		return chat.Message{}, fmt.Errorf("postgres: append message: %w", err)
	}

	return chat.Message{}, fmt.Errorf("postgres: append message: retries exhausted: %w", lastErr)
}

func (s *ChatStore) List(ctx context.Context, companionID, callerID string) ([]chat.Message, error) {
	if companionID == "" || callerID == "" {
		return nil, chat.ErrMissingConversationKey
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, companion_id, caller_id, role, content, seq, created_at
		 FROM messages
		 WHERE companion_id = $1 AND caller_id = $2
		 ORDER BY seq ASC`,
		companionID, callerID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list messages: %w", err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var msg chat.Message
		var role string
		if err := rows.Scan(&msg.ID, &msg.CompanionID, &msg.CallerID, &role, &msg.Content, &msg.Seq, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan message: %w", err)
		}
		msg.Role = chat.Role(role)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list messages: %w", err)
	}
	return messages, nil
}

func (s *ChatStore) Reset(ctx context.Context, companionID, callerID string) error {
	if companionID == "" || callerID == "" {
		return chat.ErrMissingConversationKey
	}

	_, err := s.db.Exec(ctx,
		`DELETE FROM messages WHERE companion_id = $1 AND caller_id = $2`,
		companionID, callerID,
	)
	if err != nil {
		return fmt.Errorf("postgres: reset conversation: %w", err)
	}
	return nil
}

func (s *ChatStore) DeleteCompanion(ctx context.Context, companionID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM messages WHERE companion_id = $1`, companionID)
	if err != nil {
		return fmt.Errorf("postgres: delete companion conversations: %w", err)
	}
	return nil
}
