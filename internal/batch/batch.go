// Package batch runs per-item work in fixed-size concurrent groups with a
// cooldown between groups, which keeps outstanding calls to a rate-limited
// collaborator bounded by the group size.
package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"pressline/internal/stage"
)

// Schedule controls group size and the pause between groups.
type Schedule struct {
	// Size is the number of items processed concurrently. Values below 1 mean 1.
	Size     int
	Cooldown time.Duration
	// Sleep waits for the cooldown. It defaults to a context-aware timer and
	// exists so tests can observe cooldowns without waiting for them.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run processes items in groups of s.Size. Every item in a group runs
// concurrently and the next group starts only after the whole group has
// finished and the cooldown has elapsed. One item failing never cancels its
// siblings. When ctx is cancelled no further groups start, and the returned
// slice holds outcomes for the items that ran, in input order.
func Run[T any](ctx context.Context, s Schedule, items []T, fn func(context.Context, T) stage.Outcome) []stage.Outcome {
	size := s.Size
	if size < 1 {
		size = 1
	}
	sleep := s.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	outcomes := make([]stage.Outcome, 0, len(items))
	for start := 0; start < len(items); start += size {
		if start > 0 && s.Cooldown > 0 {
			if err := sleep(ctx, s.Cooldown); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
		end := min(start+size, len(items))
		outcomes = append(outcomes, runGroup(ctx, items[start:end], fn)...)
	}
	return outcomes
}

func runGroup[T any](ctx context.Context, group []T, fn func(context.Context, T) stage.Outcome) []stage.Outcome {
	results := make([]stage.Outcome, len(group))
	// A plain Group, not WithContext: sibling items keep running when one fails.
	var g errgroup.Group
	for i, item := range group {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					results[i] = stage.Outcome{Err: fmt.Errorf("item handler panicked: %v", r), Skipped: true}
				}
			}()
			results[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
