package usage

import (
	"context"
	"time"
)

// Store persists quota windows. CheckAndIncrement applies the whole
// reset-or-increment step atomically for one caller: an elapsed (or
// absent) window starts fresh at count 1; an open window below the
// limit is incremented; an open window at the limit is left untouched
// and reported as not allowed. Counters for different callers are
// independent.
type Store interface {
	CheckAndIncrement(ctx context.Context, callerID string, limit int, window time.Duration) (Record, bool, error)
}
