package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"metronome/pkg/clock"
	logx "metronome/pkg/logx"
)

// Tick is the event posted to a timer's target for each eligible firing.
//
// Time is the computed fire boundary (anchor + count*interval), not the
// instant the dispatch actually ran; under load the two can differ.
type Tick struct {
	Timer *Timer
	Time  time.Time
	Count int
}

// Target receives ticks from timers that have no callback configured.
// Post enqueues the tick for asynchronous processing and must not block;
// it reports whether the tick was accepted.
type Target interface {
	Post(Tick) bool
}

// TargetRef is a non-owning reference to a Target. Resolve fails once the
// target's owner has released it; a timer never extends the target's life.
type TargetRef interface {
	Resolve() (Target, bool)
}

// Host is the surrounding application a timer dispatches on behalf of.
//
// Quitting is polled before every dispatch; while it reports true, ticks are
// dropped silently. HandleError receives failures raised by user callbacks.
type Host interface {
	Quitting() bool
	HandleError(err error)
}

// Callback is invoked once per eligible tick instead of posting an event.
// It may block; implementations should honor ctx so Stop can interrupt a
// slow callback. Returning the context error terminates the timer cleanly.
type Callback func(ctx context.Context) error

// Counter for auto-generated timer names. Process-wide, never reset.
var timerCount atomic.Uint64

// Timer fires at fixed wall-clock boundaries: anchor + n*interval. Fire
// times are always computed from the anchor, never by accumulating sleeps,
// so per-tick overhead does not drift the schedule.
//
// A Timer is created stopped; call Start to run it. Control operations
// (Start, Stop, Pause, Resume, Reset) are synchronous and non-blocking.
type Timer struct {
	target      TargetRef
	interval    time.Duration
	name        string
	callback    Callback
	repeat      int // < 0 means unbounded
	skip        bool
	startPaused bool

	host Host
	clk  clock.Clock
	log  logx.Logger

	mu     sync.Mutex
	gate   *gate
	cancel context.CancelFunc
	done   chan struct{}

	resetRequested atomic.Bool
}

type Option func(*Timer)

// WithName sets the diagnostic name. Unnamed timers get "Timer#N" from a
// process-wide counter.
func WithName(name string) Option {
	return func(t *Timer) { t.name = name }
}

// WithCallback makes the timer invoke fn per tick instead of posting events.
func WithCallback(fn Callback) Option {
	return func(t *Timer) { t.callback = fn }
}

// WithRepeat bounds the number of ticks. n < 0 repeats forever (default).
func WithRepeat(n int) Option {
	return func(t *Timer) { t.repeat = n }
}

// WithSkip controls the overdue-tick policy. When enabled (the default),
// ticks whose fire time has already passed are coalesced by fast-forwarding
// the counter instead of being dispatched late one by one.
func WithSkip(skip bool) Option {
	return func(t *Timer) { t.skip = skip }
}

// StartPaused makes the timer begin with its gate closed; no ticks fire
// until Resume (or Reset) is called.
func StartPaused() Option {
	return func(t *Timer) { t.startPaused = true }
}

func WithHost(h Host) Option {
	return func(t *Timer) { t.host = h }
}

func WithClock(c clock.Clock) Option {
	return func(t *Timer) { t.clk = c }
}

func WithLogger(log logx.Logger) Option {
	return func(t *Timer) { t.log = log }
}

// New creates a stopped timer firing every interval.
//
// ref may be nil when a callback is configured; otherwise it is required.
// Exactly one of callback invocation or event posting happens per tick,
// fixed for the timer's lifetime.
func New(ref TargetRef, interval time.Duration, opts ...Option) (*Timer, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("timer: interval must be > 0, got %s", interval)
	}

	t := &Timer{
		target:   ref,
		interval: interval,
		repeat:   -1,
		skip:     true,
		clk:      clock.System(),
		log:      logx.Nop(),
	}
	for _, o := range opts {
		o(t)
	}

	if t.callback == nil && t.target == nil {
		return nil, errors.New("timer: either a target or a callback is required")
	}
	if t.name == "" {
		t.name = fmt.Sprintf("Timer#%d", timerCount.Add(1))
	}
	t.gate = newGate(!t.startPaused)
	t.log = t.log.With(logx.String("timer", t.name))

	return t, nil
}

func (t *Timer) Name() string            { return t.name }
func (t *Timer) Interval() time.Duration { return t.interval }

// Target resolves the dispatch target, or ErrTargetGone if its owner has
// released it.
func (t *Timer) Target() (Target, error) {
	if t.target == nil {
		return nil, ErrTargetGone
	}
	target, ok := t.target.Resolve()
	if !ok {
		return nil, ErrTargetGone
	}
	return target, nil
}

// Start launches the scheduling loop. The loop runs until the repeat bound
// is exhausted, the target is gone, Stop is called, or ctx is cancelled.
//
// Starting a running timer replaces its loop: the previous loop is cancelled
// and a fresh phase begins (new anchor, count zero). At most one loop is ever
// associated with the timer.
func (t *Timer) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.gate.set()
		t.cancel()
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)
		t.run(runCtx)
	}()
	t.log.Debug("timer started", logx.Duration("interval", t.interval))
}

// Stop cancels the scheduling loop without waiting for it to unwind.
// Stopping a timer that is not running is a no-op. Use StopAll to wait for
// in-flight work to drain.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel == nil {
		return
	}
	// Force the gate open so a loop blocked on pause observes cancellation
	// instead of deadlocking.
	t.gate.set()
	t.cancel()
	t.cancel = nil
	t.done = nil
	t.log.Debug("timer stopped")
}

// Pause closes the gate. A tick already in dispatch completes; the loop
// blocks before computing the next one until Resume.
func (t *Timer) Pause() {
	t.gate.clear()
}

// Resume reopens the gate. Scheduling continues from where it was: the
// elapsed-time math is unaffected, so no counts are skipped by a pause that
// ends before the next fire boundary.
func (t *Timer) Resume() {
	t.gate.set()
}

// Reset reopens the gate and requests a phase restart: on next observation
// the loop re-anchors to the current time and zeroes its tick counter.
func (t *Timer) Reset() {
	t.resetRequested.Store(true)
	t.gate.set()
}

// Running reports whether a scheduling loop handle is currently held.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}
