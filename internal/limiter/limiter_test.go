package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/companionhq/companion/backend/internal/model/usage"
)

func TestCheckAndIncrementEnforcesQuota(t *testing.T) {
	ctx := context.Background()
	store := usage.NewMemoryStore()
	l := New(store, 2, time.Hour)

	for i := 0; i < 2; i++ {
		if err := l.CheckAndIncrement(ctx, "alice"); err != nil {
			t.Fatalf("use %d: %v", i+1, err)
		}
	}

	if err := l.CheckAndIncrement(ctx, "alice"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("over-quota err = %v, want ErrQuotaExceeded", err)
	}
}

func TestCheckAndIncrementReopensAfterWindow(t *testing.T) {
	ctx := context.Background()
	store := usage.NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }

	l := New(store, 1, time.Hour)
	if err := l.CheckAndIncrement(ctx, "alice"); err != nil {
		t.Fatalf("first use: %v", err)
	}
	if err := l.CheckAndIncrement(ctx, "alice"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("second use = %v, want ErrQuotaExceeded", err)
	}

	now = now.Add(2 * time.Hour)
	if err := l.CheckAndIncrement(ctx, "alice"); err != nil {
		t.Fatalf("use after window elapsed: %v", err)
	}
}

func TestCheckAndIncrementPerCaller(t *testing.T) {
	ctx := context.Background()
	l := New(usage.NewMemoryStore(), 1, time.Hour)

	if err := l.CheckAndIncrement(ctx, "alice"); err != nil {
		t.Fatalf("alice: %v", err)
	}
	if err := l.CheckAndIncrement(ctx, "bob"); err != nil {
		t.Fatalf("bob should have his own quota: %v", err)
	}
}
