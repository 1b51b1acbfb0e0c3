package ai

import (
	"context"
	"errors"

	"github.com/companionhq/companion/backend/internal/model/chat"
)

var ErrNotConfigured = errors.New("ai: completion model not configured")

// Turn is one parsed seed-dialogue exchange.
type Turn struct {
	Role    chat.Role
	Content string
}

// Request carries everything the model needs to produce the next
// assistant utterance. History excludes the user message being
// answered; that one travels as Query.
type Request struct {
	CompanionName string
	Instructions  string
	SeedTurns     []Turn
	History       []chat.Message
	Query         string
}

// Completer produces the next assistant utterance for a conversation.
// Implementations may be slow network calls and may fail
// independently of the caller's correctness.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Streamer is implemented by completers that can emit the reply
// incrementally. The full reply is returned once emission finishes.
type Streamer interface {
	StreamComplete(ctx context.Context, req Request, emit func(chunk string) error) (string, error)
}

// Disabled is the Completer used when no model credentials are
// configured. Authoring and read endpoints keep working; sending a
// message reports a generation failure.
type Disabled struct{}

func (Disabled) Complete(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}
