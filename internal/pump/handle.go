package pump

import (
	"sync"

	"metronome/pkg/timer"
)

// Handle is an explicit non-owning reference to a Pump. Timers hold a
// Handle, never the Pump itself, so an outlived pump is observed as a dead
// target instead of being kept alive by its timers.
type Handle struct {
	mu sync.RWMutex
	p  *Pump
}

var _ timer.TargetRef = (*Handle)(nil)

// Resolve returns the pump while it is still owned. After Release it fails;
// a released handle never resurrects the pump.
func (h *Handle) Resolve() (timer.Target, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.p == nil {
		return nil, false
	}
	return h.p, true
}

// Release severs the reference. Idempotent.
func (h *Handle) Release() {
	h.mu.Lock()
	h.p = nil
	h.mu.Unlock()
}
