package chat

import (
	"context"
	"errors"
)

var ErrMissingConversationKey = errors.New("chat: companion and caller ids are required")

// Store persists ordered conversation history. Implementations must
// serialize appends per (companionID, callerID) pair so concurrent
// writers cannot interleave sequence numbers, and must keep callers'
// conversations with the same companion fully isolated.
type Store interface {
	// Append persists a message, assigning its ID, Seq, and CreatedAt.
	// Seq is strictly greater than every existing Seq for the pair.
	Append(ctx context.Context, msg Message) (Message, error)

	// List returns the conversation for a pair in ascending Seq order.
	// A pair with no history yields an empty slice, not an error.
	List(ctx context.Context, companionID, callerID string) ([]Message, error)

	// Reset deletes the whole conversation for one pair.
	Reset(ctx context.Context, companionID, callerID string) error

	// DeleteCompanion drops every conversation held with a companion,
	// used when the companion itself is deleted.
	DeleteCompanion(ctx context.Context, companionID string) error
}
