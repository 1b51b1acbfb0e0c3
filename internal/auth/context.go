package auth

import "context"

type callerIDContextKey struct{}

// WithCallerID stores a caller identifier in context.
func WithCallerID(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, callerIDContextKey{}, callerID)
}

// CallerIDFromContext returns the caller identifier stored in context,
// or "" when the request was never authenticated.
func CallerIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(callerIDContextKey{}).(string)
	return value
}
