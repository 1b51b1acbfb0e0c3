package chat

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/companionhq/companion/backend/internal/auth"
	"github.com/companionhq/companion/backend/internal/handler/httperr"
	"github.com/companionhq/companion/backend/internal/handler/stream"
	sessionService "github.com/companionhq/companion/backend/internal/service/session"
	"github.com/companionhq/companion/backend/pkg/utils"
)

// Handler exposes the conversation read/write API.
type Handler struct {
	sessions *sessionService.Service
	stream   *stream.Handler
}

// New creates the chat handler.
func New(sessions *sessionService.Service, streamHandler *stream.Handler) *Handler {
	return &Handler{sessions: sessions, stream: streamHandler}
}

// RegisterRoutes mounts the conversation routes for one companion.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/chat/{companionID}", func(r chi.Router) {
		r.Get("/", h.handleGetConversation)
		r.Post("/", h.handleSendMessage)
		r.Delete("/", h.handleReset)
		r.Get("/stream", h.stream.HandleStream)
		r.Get("/ws", h.handleWebSocket)
	})
}

func (h *Handler) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	callerID := auth.CallerIDFromContext(r.Context())
	companionID := chi.URLParam(r, "companionID")

	conv, err := h.sessions.GetConversation(r.Context(), callerID, companionID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, conv)
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	callerID := auth.CallerIDFromContext(r.Context())
	companionID := chi.URLParam(r, "companionID")

	conv, err := h.sessions.SendMessage(r.Context(), callerID, companionID, payload.Content)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, conv)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	callerID := auth.CallerIDFromContext(r.Context())
	companionID := chi.URLParam(r, "companionID")

	if err := h.sessions.Reset(r.Context(), callerID, companionID); err != nil {
		httperr.Respond(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
