package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/companionhq/companion/backend/internal/entitlement"
	"github.com/companionhq/companion/backend/pkg/utils"
)

// Handler receives the out-of-band entitlement events from the
// billing provider. It is the only write path into entitlement state.
type Handler struct {
	entitlements entitlement.Store
	secret       string
}

// New creates the webhook handler. An empty secret disables the
// shared-secret check, which is only sensible in development.
func New(entitlements entitlement.Store, secret string) *Handler {
	return &Handler{entitlements: entitlements, secret: secret}
}

// RegisterRoutes mounts the webhook route. It is registered outside
// the identity middleware: the billing provider is not a caller.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/entitlement", h.handleEntitlementEvent)
}

func (h *Handler) handleEntitlementEvent(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		provided := r.Header.Get("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
			utils.RespondError(w, http.StatusUnauthorized, "invalid webhook secret")
			return
		}
	}

	var payload struct {
		CallerID string `json:"callerId"`
		Active   bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.CallerID == "" {
		utils.RespondError(w, http.StatusBadRequest, "callerId is required")
		return
	}

	if err := h.entitlements.SetEntitled(r.Context(), payload.CallerID, payload.Active); err != nil {
		slog.Error("failed to apply entitlement event", "error", err, "caller_id", payload.CallerID)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("entitlement updated", "caller_id", payload.CallerID, "active", payload.Active)
	w.WriteHeader(http.StatusNoContent)
}
