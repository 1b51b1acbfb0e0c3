package auth

import (
	"net/http"

	"github.com/companionhq/companion/backend/pkg/utils"
)

// Middleware resolves the caller identity and rejects anonymous
// requests. Handlers downstream read the caller id from context.
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerID, err := resolver.Resolve(r)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCallerID(r.Context(), callerID)))
		})
	}
}
