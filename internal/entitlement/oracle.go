package entitlement

import "context"

// Oracle reports whether a caller holds an active paid entitlement.
// Implementations must answer with current state on every call; the
// orchestrator never caches the result across requests, so an
// entitlement change takes effect on the caller's next message.
type Oracle interface {
	IsEntitled(ctx context.Context, callerID string) (bool, error)
}

// Store is an Oracle whose state the billing webhook can flip.
type Store interface {
	Oracle
	SetEntitled(ctx context.Context, callerID string, active bool) error
}
