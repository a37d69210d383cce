package timer

import (
	"context"
	"sync"
)

// StopAll stops every given timer and waits for their loops to fully
// terminate. Unlike Stop, which is fire-and-forget, StopAll only returns
// once each cancelled loop has actually unwound, so callers get a drained
// system. Timers that were never started, or already stopped, are trivial
// successes.
//
// ctx bounds the wait; on cancellation the context error is returned and any
// still-running loops keep winding down in the background.
func StopAll(ctx context.Context, timers ...*Timer) error {
	var wg sync.WaitGroup
	for _, t := range timers {
		t.mu.Lock()
		cancel, done := t.cancel, t.done
		t.cancel, t.done = nil, nil
		if cancel == nil {
			t.mu.Unlock()
			continue
		}
		t.gate.set()
		cancel()
		t.mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-done
		}()
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
