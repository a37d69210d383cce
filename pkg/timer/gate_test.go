package timer

import (
	"context"
	"testing"
	"time"
)

func TestGateWaitWhileOpen(t *testing.T) {
	t.Parallel()
	g := newGate(true)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := g.wait(ctx); err != nil {
		t.Fatalf("wait on open gate: %v", err)
	}
}

func TestGateBlocksWhileClosed(t *testing.T) {
	t.Parallel()
	g := newGate(false)

	released := make(chan error, 1)
	go func() {
		released <- g.wait(context.Background())
	}()

	select {
	case err := <-released:
		t.Fatalf("wait returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	g.set()
	select {
	case err := <-released:
		if err != nil {
			t.Fatalf("wait after set: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("wait did not return after set")
	}
}

func TestGateIdempotentTransitions(t *testing.T) {
	t.Parallel()
	g := newGate(false)

	g.clear() // closing a closed gate is a no-op
	g.set()
	g.set() // opening an open gate is a no-op
	if !g.isSet() {
		t.Fatal("gate should be open")
	}
	g.clear()
	if g.isSet() {
		t.Fatal("gate should be closed")
	}
}

func TestGateWaitCancellable(t *testing.T) {
	t.Parallel()
	g := newGate(false)

	ctx, cancel := context.WithCancel(context.Background())
	released := make(chan error, 1)
	go func() {
		released <- g.wait(ctx)
	}()

	cancel()
	select {
	case err := <-released:
		if err != context.Canceled {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled wait did not return")
	}
}
