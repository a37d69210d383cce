package pump

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	logx "metronome/pkg/logx"
	"metronome/pkg/timer"
)

func TestPostAndDrain(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var got []int
	seen := make(chan struct{}, 16)
	p := New(Config{QueueSize: 8}, func(_ context.Context, tick timer.Tick) {
		mu.Lock()
		got = append(got, tick.Count)
		mu.Unlock()
		seen <- struct{}{}
	}, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	for i := 1; i <= 3; i++ {
		if !p.Post(timer.Tick{Count: i}) {
			t.Fatalf("Post(%d) rejected", i)
		}
	}
	for i := 0; i < 3; i++ {
		select {
		case <-seen:
		case <-time.After(time.Second):
			t.Fatal("tick not handled")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("handled ticks = %v, want [1 2 3]", got)
	}

	cancel()
	<-done
}

func TestPostNeverBlocks(t *testing.T) {
	t.Parallel()

	// No consumer: the queue fills up and further posts are dropped, not
	// blocked on.
	p := New(Config{QueueSize: 2}, nil, logx.Nop())
	if !p.Post(timer.Tick{Count: 1}) || !p.Post(timer.Tick{Count: 2}) {
		t.Fatal("posts within capacity rejected")
	}
	if p.Post(timer.Tick{Count: 3}) {
		t.Fatal("post beyond capacity accepted")
	}
	if got := p.Dropped(); got != 1 {
		t.Fatalf("Dropped() = %d, want 1", got)
	}
}

func TestCloseReleasesHandle(t *testing.T) {
	t.Parallel()

	p := New(Config{}, nil, logx.Nop())
	h := p.Handle()

	if _, ok := h.Resolve(); !ok {
		t.Fatal("handle dead before close")
	}
	p.Close()
	p.Close() // idempotent
	if _, ok := h.Resolve(); ok {
		t.Fatal("handle still resolvable after close")
	}
	if !p.Quitting() {
		t.Fatal("pump not quitting after close")
	}
	if p.Post(timer.Tick{Count: 1}) {
		t.Fatal("post accepted after close")
	}
}

func TestRunStopsOnContextAndCloses(t *testing.T) {
	t.Parallel()

	p := New(Config{}, nil, logx.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return on context cancellation")
	}
	if _, ok := p.Handle().Resolve(); ok {
		t.Fatal("handle survives pump shutdown")
	}
}

func TestHandleSatisfiesTimerTargetRef(t *testing.T) {
	t.Parallel()

	p := New(Config{}, nil, logx.Nop())
	tm, err := timer.New(p.Handle(), time.Second)
	if err != nil {
		t.Fatalf("timer.New with pump handle: %v", err)
	}
	if _, err := tm.Target(); err != nil {
		t.Fatalf("Target(): %v", err)
	}
	p.Close()
	if _, err := tm.Target(); !errors.Is(err, timer.ErrTargetGone) {
		t.Fatalf("err = %v, want timer.ErrTargetGone", err)
	}
}

func TestHandleErrorRateLimited(t *testing.T) {
	t.Parallel()

	// Mainly asserts the limiter path doesn't panic with a nil error or a
	// burst of failures.
	p := New(Config{ErrorsPerSec: 1}, nil, logx.Nop())
	p.HandleError(nil)
	for i := 0; i < 10; i++ {
		p.HandleError(errors.New("boom"))
	}
}
