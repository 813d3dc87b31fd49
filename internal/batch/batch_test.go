package batch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pressline/internal/batch"
	"pressline/internal/stage"
)

func TestRunBoundsConcurrencyToGroupSize(t *testing.T) {
	var (
		inFlight atomic.Int32
		peak     atomic.Int32
	)
	items := make([]int, 10)
	for i := range items {
		items[i] = i
	}
	outcomes := batch.Run(context.Background(), batch.Schedule{Size: 3}, items, func(_ context.Context, n int) stage.Outcome {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return stage.Outcome{ItemID: int64(n)}
	})

	if len(outcomes) != len(items) {
		t.Fatalf("expected %d outcomes, got %d", len(items), len(outcomes))
	}
	for i, o := range outcomes {
		if o.ItemID != int64(i) {
			t.Fatalf("outcome %d out of order: %d", i, o.ItemID)
		}
	}
	if got := peak.Load(); got > 3 {
		t.Fatalf("peak concurrency %d exceeds group size", got)
	}
}

func TestRunSleepsOnlyBetweenGroups(t *testing.T) {
	var (
		mu     sync.Mutex
		sleeps []time.Duration
	)
	sched := batch.Schedule{
		Size:     2,
		Cooldown: time.Minute,
		Sleep: func(_ context.Context, d time.Duration) error {
			mu.Lock()
			sleeps = append(sleeps, d)
			mu.Unlock()
			return nil
		},
	}
	batch.Run(context.Background(), sched, []int{1, 2, 3, 4, 5}, func(context.Context, int) stage.Outcome {
		return stage.Outcome{}
	})
	if len(sleeps) != 2 {
		t.Fatalf("expected 2 cooldowns for 3 groups, got %d", len(sleeps))
	}
	for _, d := range sleeps {
		if d != time.Minute {
			t.Fatalf("unexpected cooldown %v", d)
		}
	}
}

func TestRunFailureDoesNotCancelSiblings(t *testing.T) {
	var completed atomic.Int32
	outcomes := batch.Run(context.Background(), batch.Schedule{Size: 4}, []int{0, 1, 2, 3}, func(ctx context.Context, n int) stage.Outcome {
		if n == 0 {
			return stage.Outcome{ItemID: 0, Err: errors.New("boom")}
		}
		time.Sleep(10 * time.Millisecond)
		if ctx.Err() != nil {
			return stage.Outcome{ItemID: int64(n), Err: ctx.Err()}
		}
		completed.Add(1)
		return stage.Outcome{ItemID: int64(n)}
	})
	if completed.Load() != 3 {
		t.Fatalf("expected siblings to finish, got %d", completed.Load())
	}
	if outcomes[0].Err == nil {
		t.Fatal("expected failure outcome for item 0")
	}
}

func TestRunStopsSchedulingWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sched := batch.Schedule{
		Size:     1,
		Cooldown: time.Second,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}
	outcomes := batch.Run(ctx, sched, []int{1, 2, 3}, func(context.Context, int) stage.Outcome {
		return stage.Outcome{}
	})
	if len(outcomes) != 1 {
		t.Fatalf("expected only the first group to run, got %d outcomes", len(outcomes))
	}
}

func TestRunRecoversPanics(t *testing.T) {
	outcomes := batch.Run(context.Background(), batch.Schedule{Size: 2}, []int{1, 2}, func(_ context.Context, n int) stage.Outcome {
		if n == 1 {
			panic("bad item")
		}
		return stage.Outcome{ItemID: 2}
	})
	if outcomes[0].Err == nil || !outcomes[0].Skipped {
		t.Fatalf("expected recovered panic outcome, got %#v", outcomes[0])
	}
	if !outcomes[1].OK() {
		t.Fatalf("sibling should succeed, got %#v", outcomes[1])
	}
}
