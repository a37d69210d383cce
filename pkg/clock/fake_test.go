package clock

import (
	"context"
	"testing"
	"time"
)

func TestFakeAdvanceReleasesDueSleepers(t *testing.T) {
	t.Parallel()

	f := NewFake(time.Unix(0, 0))
	done := make(chan error, 1)
	go func() {
		done <- f.Sleep(context.Background(), time.Second)
	}()

	f.BlockUntil(1)
	f.Advance(500 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("sleeper released before its deadline")
	case <-time.After(20 * time.Millisecond):
	}

	f.Advance(500 * time.Millisecond)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Sleep: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("sleeper not released at deadline")
	}
	if got := f.Sleepers(); got != 0 {
		t.Fatalf("Sleepers() = %d, want 0", got)
	}
}

func TestFakeSleepCancellable(t *testing.T) {
	t.Parallel()

	f := NewFake(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- f.Sleep(ctx, time.Hour)
	}()

	f.BlockUntil(1)
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled sleep did not return")
	}
}

func TestFakeNonPositiveSleepReturnsImmediately(t *testing.T) {
	t.Parallel()

	f := NewFake(time.Unix(0, 0))
	if err := f.Sleep(context.Background(), 0); err != nil {
		t.Fatalf("Sleep(0): %v", err)
	}
	if err := f.Sleep(context.Background(), -time.Second); err != nil {
		t.Fatalf("Sleep(-1s): %v", err)
	}
}
