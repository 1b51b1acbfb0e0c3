package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/companionhq/companion/backend/internal/entitlement"
	"github.com/companionhq/companion/backend/internal/limiter"
	"github.com/companionhq/companion/backend/internal/model/chat"
	"github.com/companionhq/companion/backend/internal/model/companion"
	"github.com/companionhq/companion/backend/internal/service/ai"
)

var (
	ErrGenerationFailed = errors.New("session: generation failed")
	ErrEmptyMessage     = errors.New("session: message content is required")
)

const (
	defaultHistoryLimit      = 20
	defaultCompletionTimeout = 60 * time.Second
)

// Deps enumerates the orchestrator's collaborators. Everything is an
// explicit constructor argument so tests can substitute doubles.
type Deps struct {
	Companions  companion.Store
	Messages    chat.Store
	Entitlement entitlement.Oracle
	Limiter     *limiter.Limiter
	Completer   ai.Completer

	// HistoryLimit bounds how many trailing messages accompany a
	// completion request; oldest are dropped first, the persona and
	// seed never are.
	HistoryLimit int

	// CompletionTimeout bounds a single completion call.
	CompletionTimeout time.Duration
}

// Service coordinates one conversation turn end to end: access
// checks, ordered persistence, and the completion call. It holds no
// locks of its own; append ordering is the message store's contract.
type Service struct {
	companions  companion.Store
	messages    chat.Store
	entitlement entitlement.Oracle
	limiter     *limiter.Limiter
	completer   ai.Completer

	historyLimit      int
	completionTimeout time.Duration
}

// New wires a Service from its dependencies.
func New(deps Deps) *Service {
	if deps.HistoryLimit <= 0 {
		deps.HistoryLimit = defaultHistoryLimit
	}
	if deps.CompletionTimeout <= 0 {
		deps.CompletionTimeout = defaultCompletionTimeout
	}
	return &Service{
		companions:        deps.Companions,
		messages:          deps.Messages,
		entitlement:       deps.Entitlement,
		limiter:           deps.Limiter,
		completer:         deps.Completer,
		historyLimit:      deps.HistoryLimit,
		completionTimeout: deps.CompletionTimeout,
	}
}

// SendMessage appends the caller's message to the conversation,
// obtains the companion's reply, persists it, and returns the updated
// ordered conversation. When generation fails the user message stays
// persisted and ErrGenerationFailed is returned; the caller may
// resend, which forms a new logical message.
func (s *Service) SendMessage(ctx context.Context, callerID, companionID, content string) ([]chat.Message, error) {
	return s.send(ctx, callerID, companionID, content, nil)
}

// SendMessageStream behaves like SendMessage but forwards completion
// chunks to emit as they arrive, when the completer supports
// streaming. The reply is all-or-nothing: an emit failure while the
// reply is still being generated aborts the turn with nothing stored,
// but once a full reply exists it is persisted even when the client
// can no longer receive it.
func (s *Service) SendMessageStream(ctx context.Context, callerID, companionID, content string, emit func(chunk string) error) ([]chat.Message, error) {
	return s.send(ctx, callerID, companionID, content, emit)
}

func (s *Service) send(ctx context.Context, callerID, companionID, content string, emit func(string) error) ([]chat.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	comp, err := s.companions.Get(ctx, companionID)
	if err != nil {
		return nil, fmt.Errorf("session: resolve companion: %w", err)
	}

	entitled, err := s.entitlement.IsEntitled(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("session: check entitlement: %w", err)
	}
	if !entitled {
		if err := s.limiter.CheckAndIncrement(ctx, callerID); err != nil {
			return nil, err
		}
	}

	userMsg, err := s.messages.Append(ctx, chat.Message{
		CompanionID: companionID,
		CallerID:    callerID,
		Role:        chat.RoleUser,
		Content:     content,
	})
	if err != nil {
		return nil, fmt.Errorf("session: append user message: %w", err)
	}

	history, err := s.messages.List(ctx, companionID, callerID)
	if err != nil {
		return nil, fmt.Errorf("session: load conversation: %w", err)
	}

	// From here the turn is detached from the client request: a
	// disconnect during generation must not stop the completed reply
	// from being persisted.
	dctx := context.WithoutCancel(ctx)

	reply, err := s.generate(dctx, comp, history, userMsg, emit)
	if err != nil {
		// The user message stays persisted; a turn without a reply is
		// a valid, recoverable state.
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if _, err := s.messages.Append(dctx, chat.Message{
		CompanionID: companionID,
		CallerID:    callerID,
		Role:        chat.RoleAssistant,
		Content:     reply,
	}); err != nil {
		return nil, fmt.Errorf("session: append assistant message: %w", err)
	}

	conv, err := s.messages.List(dctx, companionID, callerID)
	if err != nil {
		return nil, fmt.Errorf("session: load conversation: %w", err)
	}
	return conv, nil
}

func (s *Service) generate(ctx context.Context, comp companion.Companion, history []chat.Message, userMsg chat.Message, emit func(string) error) (string, error) {
	// The just-appended user message travels as the query, not as part
	// of the trailing history.
	trailing := history
	if n := len(trailing); n > 0 && trailing[n-1].ID == userMsg.ID {
		trailing = trailing[:n-1]
	}
	if len(trailing) > s.historyLimit {
		trailing = trailing[len(trailing)-s.historyLimit:]
	}

	req := ai.Request{
		CompanionName: comp.Name,
		Instructions:  comp.Instructions,
		SeedTurns:     ai.ParseSeedTurns(comp.Name, comp.Seed),
		History:       trailing,
		Query:         userMsg.Content,
	}

	// ctx is already detached from the client request; the only bound
	// on the completion call is its own timeout.
	cctx, cancel := context.WithTimeout(ctx, s.completionTimeout)
	defer cancel()

	if emit != nil {
		if streamer, ok := s.completer.(ai.Streamer); ok {
			return streamer.StreamComplete(cctx, req, emit)
		}
	}

	reply, err := s.completer.Complete(cctx, req)
	if err != nil {
		return "", err
	}
	if emit != nil {
		// Best effort: the reply persists even if the client is gone.
		_ = emit(reply)
	}
	return reply, nil
}

// GetConversation returns the caller's ordered history with a
// companion; an empty conversation is an empty slice, not an error.
func (s *Service) GetConversation(ctx context.Context, callerID, companionID string) ([]chat.Message, error) {
	if _, err := s.companions.Get(ctx, companionID); err != nil {
		return nil, fmt.Errorf("session: resolve companion: %w", err)
	}

	conv, err := s.messages.List(ctx, companionID, callerID)
	if err != nil {
		return nil, fmt.Errorf("session: load conversation: %w", err)
	}
	if conv == nil {
		conv = []chat.Message{}
	}
	return conv, nil
}

// Reset deletes the caller's whole conversation with a companion.
func (s *Service) Reset(ctx context.Context, callerID, companionID string) error {
	if _, err := s.companions.Get(ctx, companionID); err != nil {
		return fmt.Errorf("session: resolve companion: %w", err)
	}
	if err := s.messages.Reset(ctx, companionID, callerID); err != nil {
		return fmt.Errorf("session: reset conversation: %w", err)
	}
	return nil
}
