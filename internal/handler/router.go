package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/companionhq/companion/backend/internal/auth"
	"github.com/companionhq/companion/backend/internal/entitlement"
	chatHandler "github.com/companionhq/companion/backend/internal/handler/chat"
	companionHandler "github.com/companionhq/companion/backend/internal/handler/companion"
	streamHandler "github.com/companionhq/companion/backend/internal/handler/stream"
	webhookHandler "github.com/companionhq/companion/backend/internal/handler/webhook"
	companionService "github.com/companionhq/companion/backend/internal/service/companion"
	sessionService "github.com/companionhq/companion/backend/internal/service/session"
)

// Deps collects everything the router needs to wire HTTP routes to
// the core services.
type Deps struct {
	Resolver     auth.Resolver
	Companions   *companionService.Service
	Sessions     *sessionService.Service
	Entitlements entitlement.Store

	WebhookSecret string
	AllowedOrigin string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS(deps.AllowedOrigin))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(api chi.Router) {
		// The billing provider posts here; it carries no caller header.
		webhookHandler.New(deps.Entitlements, deps.WebhookSecret).RegisterRoutes(api)

		api.Group(func(priv chi.Router) {
			priv.Use(auth.Middleware(deps.Resolver))

			companionHandler.New(deps.Companions).RegisterRoutes(priv)
			chatHandler.New(deps.Sessions, streamHandler.New(deps.Sessions)).RegisterRoutes(priv)
		})
	})

	return r
}
