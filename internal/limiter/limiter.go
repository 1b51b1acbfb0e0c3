package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/companionhq/companion/backend/internal/model/usage"
)

var ErrQuotaExceeded = errors.New("limiter: quota exceeded")

// Limiter bounds how many messages a non-entitled caller may send
// inside a rolling window. Entitled callers never reach it.
type Limiter struct {
	store  usage.Store
	quota  int
	window time.Duration
}

// New returns a Limiter enforcing quota messages per window.
func New(store usage.Store, quota int, window time.Duration) *Limiter {
	return &Limiter{store: store, quota: quota, window: window}
}

// CheckAndIncrement consumes one unit of quota for the caller, or
// returns ErrQuotaExceeded without consuming anything. Every call
// that returns nil counts: a caller retrying after an ambiguous
// failure spends another unit.
func (l *Limiter) CheckAndIncrement(ctx context.Context, callerID string) error {
	_, allowed, err := l.store.CheckAndIncrement(ctx, callerID, l.quota, l.window)
	if err != nil {
		return fmt.Errorf("limiter: check quota: %w", err)
	}
	if !allowed {
		return ErrQuotaExceeded
	}
	return nil
}
