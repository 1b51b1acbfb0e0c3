package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/companionhq/companion/backend/internal/entitlement"
	"github.com/companionhq/companion/backend/internal/limiter"
	"github.com/companionhq/companion/backend/internal/model/chat"
	"github.com/companionhq/companion/backend/internal/model/companion"
	"github.com/companionhq/companion/backend/internal/model/usage"
	"github.com/companionhq/companion/backend/internal/service/ai"
)

type stubCompleter struct {
	reply    string
	err      error
	lastReq  ai.Request
	received bool
}

func (s *stubCompleter) Complete(_ context.Context, req ai.Request) (string, error) {
	s.lastReq = req
	s.received = true
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type stubStreamer struct {
	stubCompleter
	chunks []string
}

func (s *stubStreamer) StreamComplete(_ context.Context, req ai.Request, emit func(string) error) (string, error) {
	s.lastReq = req
	s.received = true
	var b strings.Builder
	for _, chunk := range s.chunks {
		if err := emit(chunk); err != nil {
			return "", err
		}
		b.WriteString(chunk)
	}
	return b.String(), nil
}

type fixture struct {
	svc          *Service
	companions   *companion.MemoryStore
	messages     *chat.MemoryStore
	entitlements *entitlement.MemoryStore
	comp         companion.Companion
}

func newFixture(t *testing.T, completer ai.Completer, quota int) *fixture {
	t.Helper()

	companions := companion.NewMemoryStore()
	comp := companion.Companion{
		ID:           "c1",
		OwnerID:      "alice",
		Name:         "Elara",
		Instructions: "You are Elara, a wandering bard.",
		Seed:         "Human: hello\nElara: well met, traveler",
		CategoryID:   "games",
	}
	if err := companions.Create(context.Background(), comp); err != nil {
		t.Fatalf("seed companion: %v", err)
	}

	messages := chat.NewMemoryStore()
	entitlements := entitlement.NewMemoryStore()

	svc := New(Deps{
		Companions:  companions,
		Messages:    messages,
		Entitlement: entitlements,
		Limiter:     limiter.New(usage.NewMemoryStore(), quota, time.Hour),
		Completer:   completer,
	})

	return &fixture{svc: svc, companions: companions, messages: messages, entitlements: entitlements, comp: comp}
}

func TestSendMessagePersistsOrderedTurn(t *testing.T) {
	ctx := context.Background()
	stub := &stubCompleter{reply: "Well met!"}
	f := newFixture(t, stub, 10)

	conv, err := f.svc.SendMessage(ctx, "bob", "c1", "Hello there")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if len(conv) != 2 {
		t.Fatalf("len(conv) = %d, want user + assistant", len(conv))
	}
	if conv[0].Role != chat.RoleUser || conv[0].Content != "Hello there" || conv[0].Seq != 1 {
		t.Fatalf("user message = %+v", conv[0])
	}
	if conv[1].Role != chat.RoleAssistant || conv[1].Content != "Well met!" || conv[1].Seq != 2 {
		t.Fatalf("assistant message = %+v", conv[1])
	}
}

func TestSendMessageBuildsCompletionRequest(t *testing.T) {
	ctx := context.Background()
	stub := &stubCompleter{reply: "reply"}
	f := newFixture(t, stub, 10)

	if _, err := f.svc.SendMessage(ctx, "bob", "c1", "Sing me a song"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	req := stub.lastReq
	if req.CompanionName != "Elara" || req.Instructions != f.comp.Instructions {
		t.Fatalf("request persona = %+v", req)
	}
	if req.Query != "Sing me a song" {
		t.Fatalf("Query = %q", req.Query)
	}
	if len(req.History) != 0 {
		t.Fatalf("first turn should carry no history, got %+v", req.History)
	}
	if len(req.SeedTurns) != 2 {
		t.Fatalf("SeedTurns = %+v, want parsed seed dialogue", req.SeedTurns)
	}
}

func TestSendMessageWindowsHistory(t *testing.T) {
	ctx := context.Background()
	stub := &stubCompleter{reply: "r"}

	companions := companion.NewMemoryStore()
	if err := companions.Create(ctx, companion.Companion{ID: "c1", Name: "Elara"}); err != nil {
		t.Fatalf("seed companion: %v", err)
	}
	messages := chat.NewMemoryStore()
	svc := New(Deps{
		Companions:   companions,
		Messages:     messages,
		Entitlement:  entitlement.NewMemoryStore(),
		Limiter:      limiter.New(usage.NewMemoryStore(), 100, time.Hour),
		Completer:    stub,
		HistoryLimit: 4,
	})

	for i := 0; i < 5; i++ {
		if _, err := svc.SendMessage(ctx, "bob", "c1", "turn"); err != nil {
			t.Fatalf("SendMessage %d: %v", i, err)
		}
	}

	// Before the last send the conversation held 8 messages; only the
	// trailing 4 may accompany the request.
	if len(stub.lastReq.History) != 4 {
		t.Fatalf("len(History) = %d, want 4", len(stub.lastReq.History))
	}
	last := stub.lastReq.History[len(stub.lastReq.History)-1]
	if last.Role != chat.RoleAssistant {
		t.Fatalf("history should end before the query message, ends with %+v", last)
	}
}

func TestSendMessageEmptyContent(t *testing.T) {
	ctx := context.Background()
	stub := &stubCompleter{reply: "r"}
	f := newFixture(t, stub, 10)

	if _, err := f.svc.SendMessage(ctx, "bob", "c1", "   \n\t"); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}

	conv, _ := f.messages.List(ctx, "c1", "bob")
	if len(conv) != 0 {
		t.Fatalf("blank message was persisted: %+v", conv)
	}
	if stub.received {
		t.Fatal("completer called for a blank message")
	}
}

func TestSendMessageUnknownCompanion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &stubCompleter{reply: "r"}, 10)

	_, err := f.svc.SendMessage(ctx, "bob", "no-such", "hi")
	if !errors.Is(err, companion.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSendMessageGenerationFailureKeepsUserMessage(t *testing.T) {
	ctx := context.Background()
	stub := &stubCompleter{err: errors.New("model unavailable")}
	f := newFixture(t, stub, 10)

	_, err := f.svc.SendMessage(ctx, "bob", "c1", "hello")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}

	conv, _ := f.messages.List(ctx, "c1", "bob")
	if len(conv) != 1 || conv[0].Role != chat.RoleUser {
		t.Fatalf("conversation = %+v, want the lone user message", conv)
	}
}

func TestSendMessageQuotaBlocksBeforePersisting(t *testing.T) {
	ctx := context.Background()
	stub := &stubCompleter{reply: "r"}
	f := newFixture(t, stub, 2)

	for i := 0; i < 2; i++ {
		if _, err := f.svc.SendMessage(ctx, "bob", "c1", "hi"); err != nil {
			t.Fatalf("SendMessage %d: %v", i+1, err)
		}
	}

	_, err := f.svc.SendMessage(ctx, "bob", "c1", "one more")
	if !errors.Is(err, limiter.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}

	conv, _ := f.messages.List(ctx, "c1", "bob")
	if len(conv) != 4 {
		t.Fatalf("denied message reached the store: %d messages", len(conv))
	}
}

func TestSendMessageEntitledBypassesQuota(t *testing.T) {
	ctx := context.Background()
	stub := &stubCompleter{reply: "r"}
	f := newFixture(t, stub, 1)

	if err := f.entitlements.SetEntitled(ctx, "bob", true); err != nil {
		t.Fatalf("SetEntitled: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := f.svc.SendMessage(ctx, "bob", "c1", "hi"); err != nil {
			t.Fatalf("entitled send %d: %v", i+1, err)
		}
	}
}

func TestSendMessageStreamEmitsChunks(t *testing.T) {
	ctx := context.Background()
	stub := &stubStreamer{chunks: []string{"Well ", "met!"}}
	f := newFixture(t, stub, 10)

	var got []string
	conv, err := f.svc.SendMessageStream(ctx, "bob", "c1", "hello", func(chunk string) error {
		got = append(got, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("SendMessageStream: %v", err)
	}

	if len(got) != 2 || got[0] != "Well " || got[1] != "met!" {
		t.Fatalf("chunks = %v", got)
	}
	if conv[len(conv)-1].Content != "Well met!" {
		t.Fatalf("persisted reply = %q, want the full assembled text", conv[len(conv)-1].Content)
	}
}

func TestSendMessageStreamAbortNeverPersistsPartialReply(t *testing.T) {
	ctx := context.Background()
	stub := &stubStreamer{chunks: []string{"Well ", "met!"}}
	f := newFixture(t, stub, 10)

	emitErr := errors.New("client gone")
	_, err := f.svc.SendMessageStream(ctx, "bob", "c1", "hello", func(string) error {
		return emitErr
	})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}

	conv, _ := f.messages.List(ctx, "c1", "bob")
	for _, msg := range conv {
		if msg.Role == chat.RoleAssistant {
			t.Fatalf("partial reply was persisted: %+v", msg)
		}
	}
}

func TestSendMessageStreamFallsBackToSingleEmit(t *testing.T) {
	ctx := context.Background()
	stub := &stubCompleter{reply: "full reply"}
	f := newFixture(t, stub, 10)

	var got []string
	if _, err := f.svc.SendMessageStream(ctx, "bob", "c1", "hello", func(chunk string) error {
		got = append(got, chunk)
		return nil
	}); err != nil {
		t.Fatalf("SendMessageStream: %v", err)
	}

	if len(got) != 1 || got[0] != "full reply" {
		t.Fatalf("chunks = %v, want the whole reply in one emit", got)
	}
}

// ctxHonoringStore fails every operation once its context is
// cancelled, the way a real database driver does.
type ctxHonoringStore struct {
	inner *chat.MemoryStore
}

func (s *ctxHonoringStore) Append(ctx context.Context, msg chat.Message) (chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return chat.Message{}, err
	}
	return s.inner.Append(ctx, msg)
}

func (s *ctxHonoringStore) List(ctx context.Context, companionID, callerID string) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.inner.List(ctx, companionID, callerID)
}

func (s *ctxHonoringStore) Reset(ctx context.Context, companionID, callerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.inner.Reset(ctx, companionID, callerID)
}

func (s *ctxHonoringStore) DeleteCompanion(ctx context.Context, companionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.inner.DeleteCompanion(ctx, companionID)
}

// fixedCompleter is safe for concurrent calls; it records nothing.
type fixedCompleter struct {
	reply string
}

func (c fixedCompleter) Complete(context.Context, ai.Request) (string, error) {
	return c.reply, nil
}

type disconnectingCompleter struct {
	cancel context.CancelFunc
	reply  string
}

func (c *disconnectingCompleter) Complete(context.Context, ai.Request) (string, error) {
	// The client goes away while the model is still generating.
	c.cancel()
	return c.reply, nil
}

func TestSendMessageDisconnectStillPersistsReply(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	companions := companion.NewMemoryStore()
	if err := companions.Create(ctx, companion.Companion{ID: "c1", Name: "Elara"}); err != nil {
		t.Fatalf("seed companion: %v", err)
	}
	messages := &ctxHonoringStore{inner: chat.NewMemoryStore()}
	svc := New(Deps{
		Companions:  companions,
		Messages:    messages,
		Entitlement: entitlement.NewMemoryStore(),
		Limiter:     limiter.New(usage.NewMemoryStore(), 10, time.Hour),
		Completer:   &disconnectingCompleter{cancel: cancel, reply: "finished reply"},
	})

	conv, err := svc.SendMessage(ctx, "bob", "c1", "hello")
	if err != nil {
		t.Fatalf("SendMessage after disconnect: %v", err)
	}
	if len(conv) != 2 || conv[1].Role != chat.RoleAssistant || conv[1].Content != "finished reply" {
		t.Fatalf("conversation = %+v, want the completed reply persisted", conv)
	}

	stored, err := messages.inner.List(context.Background(), "c1", "bob")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored = %+v, want user and assistant messages", stored)
	}
}

func TestConcurrentSendMessagesKeepPairsOrdered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixedCompleter{reply: "r"}, 1000)

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := f.svc.SendMessage(ctx, "bob", "c1", "hi"); err != nil {
				t.Errorf("SendMessage: %v", err)
			}
		}()
	}
	wg.Wait()

	conv, err := f.messages.List(ctx, "c1", "bob")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(conv) != 2*n {
		t.Fatalf("len(conv) = %d, want %d", len(conv), 2*n)
	}

	users, assistants := 0, 0
	pendingUsers := 0
	for i, msg := range conv {
		if msg.Seq != int64(i+1) {
			t.Fatalf("seq at index %d = %d, want dense 1..%d", i, msg.Seq, 2*n)
		}
		switch msg.Role {
		case chat.RoleUser:
			users++
			pendingUsers++
		case chat.RoleAssistant:
			assistants++
			pendingUsers--
			// Every reply answers a user message that came before it.
			if pendingUsers < 0 {
				t.Fatalf("assistant at seq %d precedes its user message", msg.Seq)
			}
		}
	}
	if users != n || assistants != n {
		t.Fatalf("users = %d, assistants = %d, want %d each", users, assistants, n)
	}
}

func TestGetConversationEmptyIsNotAnError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &stubCompleter{reply: "r"}, 10)

	conv, err := f.svc.GetConversation(ctx, "bob", "c1")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if conv == nil || len(conv) != 0 {
		t.Fatalf("conv = %v, want empty non-nil slice", conv)
	}
}

func TestGetConversationUnknownCompanion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &stubCompleter{reply: "r"}, 10)

	if _, err := f.svc.GetConversation(ctx, "bob", "no-such"); !errors.Is(err, companion.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResetClearsOnlyTheCallerPair(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &stubCompleter{reply: "r"}, 10)

	if _, err := f.svc.SendMessage(ctx, "bob", "c1", "hi"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if _, err := f.svc.SendMessage(ctx, "carol", "c1", "hi"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if err := f.svc.Reset(ctx, "bob", "c1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	bobConv, _ := f.svc.GetConversation(ctx, "bob", "c1")
	if len(bobConv) != 0 {
		t.Fatalf("bob's conversation survived reset: %+v", bobConv)
	}
	carolConv, _ := f.svc.GetConversation(ctx, "carol", "c1")
	if len(carolConv) != 2 {
		t.Fatalf("carol's conversation was affected: %+v", carolConv)
	}
}
