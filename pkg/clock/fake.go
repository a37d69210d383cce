package clock

import (
	"context"
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests.
//
// Sleepers block until Advance moves the fake time past their deadline or
// their context is cancelled. BlockUntil lets a test wait for the code under
// test to reach its next sleep before advancing.
type Fake struct {
	mu       sync.Mutex
	cond     *sync.Cond
	now      time.Time
	sleepers []*fakeSleeper
}

type fakeSleeper struct {
	deadline time.Time
	ch       chan struct{}
}

func NewFake(start time.Time) *Fake {
	f := &Fake{now: start}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	f.mu.Lock()
	s := &fakeSleeper{deadline: f.now.Add(d), ch: make(chan struct{})}
	f.sleepers = append(f.sleepers, s)
	f.cond.Broadcast()
	f.mu.Unlock()

	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		f.remove(s)
		return ctx.Err()
	}
}

// Advance moves the fake time forward and releases every sleeper whose
// deadline has been reached.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)
	kept := f.sleepers[:0]
	for _, s := range f.sleepers {
		if !s.deadline.After(f.now) {
			close(s.ch)
			continue
		}
		kept = append(kept, s)
	}
	f.sleepers = kept
	f.cond.Broadcast()
}

// BlockUntil waits until at least n goroutines are blocked in Sleep.
func (f *Fake) BlockUntil(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.sleepers) < n {
		f.cond.Wait()
	}
}

// Sleepers reports how many goroutines are currently blocked in Sleep.
func (f *Fake) Sleepers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sleepers)
}

func (f *Fake) remove(target *fakeSleeper) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.sleepers {
		if s == target {
			last := len(f.sleepers) - 1
			f.sleepers[i] = f.sleepers[last]
			f.sleepers[last] = nil
			f.sleepers = f.sleepers[:last]
			f.cond.Broadcast()
			return
		}
	}
}
