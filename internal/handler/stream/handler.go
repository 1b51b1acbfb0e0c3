package stream

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/companionhq/companion/backend/internal/auth"
	"github.com/companionhq/companion/backend/internal/handler/httperr"
	sessionService "github.com/companionhq/companion/backend/internal/service/session"
	"github.com/companionhq/companion/backend/pkg/utils"
)

// Handler streams companion replies over Server-Sent Events.
type Handler struct {
	sessions *sessionService.Service
}

// New creates the stream handler.
func New(sessions *sessionService.Service) *Handler {
	return &Handler{sessions: sessions}
}

// Response is one streamed event payload.
type Response struct {
	Event    string `json:"event"`
	Content  string `json:"content,omitempty"`
	Finished bool   `json:"finished,omitempty"`
	Error    string `json:"error,omitempty"`
}

// HandleStream sends one user message and streams the reply as SSE
// chunk events, ending with a done event once the full reply is
// persisted.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	content := r.URL.Query().Get("message")
	if content == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	callerID := auth.CallerIDFromContext(r.Context())
	companionID := chi.URLParam(r, "companionID")

	utils.SetupSSEHeaders(w)
	utils.SendSSEEvent(w, flusher, "start", Response{Event: "start"})

	emit := func(chunk string) error {
		utils.SendSSEEvent(w, flusher, "chunk", Response{Event: "chunk", Content: chunk})
		return r.Context().Err()
	}

	if _, err := h.sessions.SendMessageStream(r.Context(), callerID, companionID, content, emit); err != nil {
		utils.SendSSEEvent(w, flusher, "error", Response{Event: "error", Error: httperr.Message(err)})
		return
	}

	utils.SendSSEEvent(w, flusher, "done", Response{Event: "done", Finished: true})
}
