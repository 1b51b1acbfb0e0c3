package httperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/companionhq/companion/backend/internal/limiter"
	"github.com/companionhq/companion/backend/internal/model/companion"
	companionsvc "github.com/companionhq/companion/backend/internal/service/companion"
	"github.com/companionhq/companion/backend/internal/service/session"
	"github.com/companionhq/companion/backend/pkg/utils"
)

// Respond maps a service error onto the HTTP response. Unrecognized
// errors are storage or infrastructure failures: they are logged in
// full and surfaced as an opaque 500.
func Respond(w http.ResponseWriter, err error) {
	var verr *companion.ValidationError

	switch {
	case errors.As(err, &verr):
		utils.RespondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, companion.ErrNotFound), errors.Is(err, companion.ErrCategoryNotFound):
		utils.RespondError(w, http.StatusNotFound, "companion not found")
	case errors.Is(err, companionsvc.ErrForbidden):
		utils.RespondError(w, http.StatusForbidden, "not the owner of this companion")
	case errors.Is(err, limiter.ErrQuotaExceeded):
		utils.RespondError(w, http.StatusTooManyRequests, "free message quota exhausted")
	case errors.Is(err, session.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, "message content is required")
	case errors.Is(err, session.ErrGenerationFailed):
		utils.RespondError(w, http.StatusBadGateway, "companion reply generation failed")
	default:
		slog.Error("request failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}

// Message returns the user-facing description of a service error for
// transports that cannot carry an HTTP status, such as SSE and
// websocket frames.
func Message(err error) string {
	var verr *companion.ValidationError

	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, companion.ErrNotFound), errors.Is(err, companion.ErrCategoryNotFound):
		return "companion not found"
	case errors.Is(err, companionsvc.ErrForbidden):
		return "not the owner of this companion"
	case errors.Is(err, limiter.ErrQuotaExceeded):
		return "free message quota exhausted"
	case errors.Is(err, session.ErrEmptyMessage):
		return "message content is required"
	case errors.Is(err, session.ErrGenerationFailed):
		return "companion reply generation failed"
	default:
		slog.Error("request failed", "error", err)
		return "internal error"
	}
}
