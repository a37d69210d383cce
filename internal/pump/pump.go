// Package pump hosts timers: it is the dispatch target tick events are
// posted to, the shutdown flag they poll, and the sink callback errors are
// reported to.
package pump

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	logx "metronome/pkg/logx"
	"metronome/pkg/timer"
)

type Config struct {
	// QueueSize bounds the tick queue; Post drops when it is full.
	QueueSize int
	// ErrorsPerSec caps how many callback errors per second reach the log.
	ErrorsPerSec int
}

// Handler processes one tick delivered through the pump.
type Handler func(ctx context.Context, tick timer.Tick)

// Pump is a single-consumer message pump. Post never blocks the poster:
// ticks are enqueued on a bounded channel and drained by Run, and slow
// consumption drops ticks rather than stalling timers.
type Pump struct {
	log     logx.Logger
	handler Handler

	queue   chan timer.Tick
	handle  *Handle
	limiter *rate.Limiter

	quitting  atomic.Bool
	dropped   atomic.Uint64
	closeOnce sync.Once
}

var (
	_ timer.Target = (*Pump)(nil)
	_ timer.Host   = (*Pump)(nil)
)

func New(cfg Config, handler Handler, log logx.Logger) *Pump {
	size := cfg.QueueSize
	if size <= 0 {
		size = 256
	}
	eps := cfg.ErrorsPerSec
	if eps <= 0 {
		eps = 1
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	p := &Pump{
		log:     log,
		handler: handler,
		queue:   make(chan timer.Tick, size),
		limiter: rate.NewLimiter(rate.Limit(eps), eps),
	}
	p.handle = &Handle{p: p}
	return p
}

// Handle returns the pump's non-owning reference for timers to dispatch
// through. It is released when the pump shuts down.
func (p *Pump) Handle() *Handle { return p.handle }

// Post enqueues a tick without blocking. It reports false when the pump is
// shutting down or the queue is full.
func (p *Pump) Post(tick timer.Tick) bool {
	if p.quitting.Load() {
		return false
	}
	select {
	case p.queue <- tick:
		return true
	default:
		p.dropped.Add(1)
		return false
	}
}

// Run drains the queue to the handler until ctx is done, then marks the
// pump as quitting and releases its handle so timers observe a dead target.
func (p *Pump) Run(ctx context.Context) {
	defer p.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-p.queue:
			if p.handler != nil {
				p.handler(ctx, tick)
			}
		}
	}
}

// Close marks the pump as quitting and releases its handle. Idempotent.
func (p *Pump) Close() {
	p.closeOnce.Do(func() {
		p.quitting.Store(true)
		p.handle.Release()
		p.log.Debug("pump closed", logx.Uint64("dropped", p.dropped.Load()))
	})
}

// Quitting is the shutdown flag timers poll before dispatching.
func (p *Pump) Quitting() bool { return p.quitting.Load() }

// HandleError receives user-callback failures. Reports are rate limited so
// a hot failing callback cannot flood the log.
func (p *Pump) HandleError(err error) {
	if err == nil {
		return
	}
	if !p.limiter.Allow() {
		return
	}
	p.log.Error("timer callback failed", logx.Err(err))
}

// Dropped reports how many ticks were rejected because the queue was full.
func (p *Pump) Dropped() uint64 { return p.dropped.Load() }
