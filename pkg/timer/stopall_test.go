package timer

import (
	"context"
	"testing"
	"time"

	"metronome/pkg/clock"
)

func TestStopAllWaitsForTermination(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(time.Unix(0, 0))
	timers := make([]*Timer, 0, 3)
	for i := 0; i < 3; i++ {
		tm, err := New(newTestRef(newChanTarget()), time.Second, WithClock(fake))
		if err != nil {
			t.Fatal(err)
		}
		tm.Start(context.Background())
		timers = append(timers, tm)
	}
	fake.BlockUntil(3)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := StopAll(ctx, timers...); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	for i, tm := range timers {
		if tm.Running() {
			t.Fatalf("timer %d still holds a task handle", i)
		}
	}
	if got := fake.Sleepers(); got != 0 {
		t.Fatalf("%d loops still sleeping after StopAll", got)
	}
}

func TestStopAllToleratesStoppedTimers(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(time.Unix(0, 0))
	running, err := New(newTestRef(newChanTarget()), time.Second, WithClock(fake))
	if err != nil {
		t.Fatal(err)
	}
	running.Start(context.Background())
	fake.BlockUntil(1)

	stopped, err := New(newTestRef(newChanTarget()), time.Second, WithClock(fake))
	if err != nil {
		t.Fatal(err)
	}
	stopped.Start(context.Background())
	stopped.Stop()

	never, err := New(newTestRef(newChanTarget()), time.Second, WithClock(fake))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := StopAll(ctx, running, stopped, never); err != nil {
		t.Fatalf("StopAll with mixed states: %v", err)
	}
}

func TestStopAllEmptyIsTrivialSuccess(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := StopAll(ctx); err != nil {
		t.Fatalf("StopAll(): %v", err)
	}
}

func TestStopAllUnblocksPausedTimer(t *testing.T) {
	t.Parallel()

	fake := clock.NewFake(time.Unix(0, 0))
	tm, err := New(newTestRef(newChanTarget()), time.Second,
		WithClock(fake), StartPaused())
	if err != nil {
		t.Fatal(err)
	}
	tm.Start(context.Background())

	// The loop is parked on its closed gate; StopAll must force it open so
	// cancellation is observed instead of deadlocking.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := StopAll(ctx, tm); err != nil {
		t.Fatalf("StopAll on paused timer: %v", err)
	}
}
