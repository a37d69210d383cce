package timer

import (
	"context"
	"sync"
)

// gate is the pause/resume signal the scheduling loop waits on.
//
// It behaves like a level-triggered event: wait returns immediately while the
// gate is set (timer active) and blocks while it is clear (timer paused).
// set and clear are idempotent.
type gate struct {
	mu sync.Mutex
	on bool
	ch chan struct{} // closed while on
}

func newGate(on bool) *gate {
	g := &gate{ch: make(chan struct{})}
	if on {
		g.on = true
		close(g.ch)
	}
	return g
}

func (g *gate) set() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.on {
		return
	}
	g.on = true
	close(g.ch)
}

func (g *gate) clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.on {
		return
	}
	g.on = false
	g.ch = make(chan struct{})
}

func (g *gate) isSet() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.on
}

// wait blocks until the gate is set or ctx is cancelled.
func (g *gate) wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
