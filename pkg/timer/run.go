package timer

import (
	"context"
	"errors"
	"fmt"
	"time"

	logx "metronome/pkg/logx"
)

func (t *Timer) run(ctx context.Context) {
	err := t.loop(ctx)
	switch {
	case err == nil:
		// repeat bound reached or target gone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// cooperative cancellation via Stop/StopAll: normal termination
	default:
		// Timing/gate mechanics are not expected to fail; fatal to this
		// timer only, never retried.
		t.log.Error("timer loop failed", logx.Err(err))
	}
}

// loop is the scheduling state machine. All fire times derive from a single
// anchor: nextFire = start + (count+1)*interval. The anchor only moves when
// a reset is processed.
func (t *Timer) loop(ctx context.Context) error {
	// Honor startPaused before anchoring: a timer created paused anchors at
	// the moment it is first resumed.
	if err := t.gate.wait(ctx); err != nil {
		return err
	}
	start := t.clk.Now()
	count := 0

	for t.repeat < 0 || count <= t.repeat {
		if err := t.gate.wait(ctx); err != nil {
			return err
		}

		nextFire := start.Add(time.Duration(count+1) * t.interval)
		now := t.clk.Now()

		if t.skip && nextFire.Before(now) {
			// Overdue: collapse every missed tick into one fast-forward to
			// the first count that is not yet due. Nothing stale is
			// dispatched.
			count = int(now.Sub(start)/t.interval) + 1
			continue
		}

		if err := t.clk.Sleep(ctx, nextFire.Sub(now)); err != nil {
			return err
		}
		count++

		// A pause requested during the sleep blocks here, before dispatch.
		if err := t.gate.wait(ctx); err != nil {
			return err
		}

		if t.resetRequested.CompareAndSwap(true, false) {
			// Reset beats dispatch: new anchor, counter back to zero, the
			// computed fire boundary is discarded.
			start = t.clk.Now()
			count = 0
			continue
		}

		if err := t.dispatch(ctx, nextFire, count); err != nil {
			if errors.Is(err, ErrTargetGone) {
				t.log.Debug("timer target gone; terminating")
				return nil
			}
			return err
		}
	}

	t.log.Debug("timer repeat bound reached", logx.Int("repeat", t.repeat))
	return nil
}

// dispatch performs one tick: either the callback or an event post, never
// both. Ticks are dropped silently while the host is shutting down.
func (t *Timer) dispatch(ctx context.Context, fireTime time.Time, count int) error {
	if t.host != nil && t.host.Quitting() {
		return nil
	}

	if t.callback != nil {
		err := t.invoke(ctx)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Cancellation must unwind the loop, not be reported as a
			// callback failure.
			return err
		default:
			t.reportError(fmt.Errorf("timer %s callback: %w", t.name, err))
		}
		return nil
	}

	target, ok := t.target.Resolve()
	if !ok {
		return ErrTargetGone
	}
	if !target.Post(Tick{Timer: t, Time: fireTime, Count: count}) {
		t.log.Warn("tick dropped by target", logx.Int("count", count))
	}
	return nil
}

// invoke runs the user callback, normalizing panics into errors so a
// misbehaving callback cannot take down the loop.
func (t *Timer) invoke(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panic: %v", r)
		}
	}()
	return t.callback(ctx)
}

func (t *Timer) reportError(err error) {
	if t.host != nil {
		t.host.HandleError(err)
		return
	}
	t.log.Error("timer callback failed", logx.Err(err))
}
