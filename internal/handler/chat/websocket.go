package chat

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/companionhq/companion/backend/internal/auth"
	"github.com/companionhq/companion/backend/internal/handler/httperr"
	"github.com/companionhq/companion/backend/internal/model/companion"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type wsInbound struct {
	Content string `json:"content"`
}

type wsOutbound struct {
	Event   string `json:"event"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleWebSocket holds one live conversation over a websocket. Each
// inbound frame is one user message; the reply arrives as chunk
// events followed by done. Frames are processed sequentially, so the
// conversation order on the wire matches the persisted order.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	callerID := auth.CallerIDFromContext(r.Context())
	companionID := chi.URLParam(r, "companionID")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var inbound wsInbound
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "error", err)
			}
			return
		}

		emit := func(chunk string) error {
			return conn.WriteJSON(wsOutbound{Event: "chunk", Content: chunk})
		}

		if _, err := h.sessions.SendMessageStream(r.Context(), callerID, companionID, inbound.Content, emit); err != nil {
			if writeErr := conn.WriteJSON(wsOutbound{Event: "error", Error: httperr.Message(err)}); writeErr != nil {
				return
			}
			if errors.Is(err, companion.ErrNotFound) {
				return
			}
			continue
		}

		if err := conn.WriteJSON(wsOutbound{Event: "done"}); err != nil {
			return
		}
	}
}
