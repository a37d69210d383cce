// Package clock abstracts wall-clock reads and interruptible sleeps so the
// timer core can be driven deterministically in tests.
package clock

import (
	"context"
	"time"
)

// Clock is the time source consumed by the scheduling loop.
//
// Sleep returns nil after at least d has elapsed, or the context error if the
// context is cancelled first. A non-positive d returns immediately (still
// honoring an already-cancelled context).
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// System returns a Clock backed by the time package.
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
