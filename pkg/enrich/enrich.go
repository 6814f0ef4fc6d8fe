package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/log"
)

// DefaultParallel is the fan-out width used by prefix enrichment.
const DefaultParallel = 32

// Task is one independent enrichment lookup. Tasks carry their own timeout;
// there is no ordering constraint between them.
type Task struct {
	ID      string
	Timeout time.Duration
	Run     func(ctx context.Context) ([]byte, error)
}

// Result pairs a task's origin with its outcome. Err is non-nil on timeout,
// failure, or a recovered panic.
type Result struct {
	ID     string
	Output []byte
	Err    error
}

// RunAll executes tasks with at most maxParallel in flight. Each task runs
// under its own timeout; overallDeadline, when positive, additionally bounds
// the whole batch and cancels outstanding in-flight I/O on expiry. Results
// come back in submission order. A panicking task is converted to
// errkind.ErrInternal without affecting its peers.
func RunAll(ctx context.Context, tasks []Task, maxParallel int, overallDeadline time.Duration) []Result {
	if maxParallel <= 0 {
		maxParallel = DefaultParallel
	}
	if overallDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, overallDeadline)
		defer cancel()
	}

	results := make([]Result, len(tasks))
	sem := semaphore.NewWeighted(int64(maxParallel))
	var wg sync.WaitGroup

	for i, task := range tasks {
		results[i].ID = task.ID

		if err := sem.Acquire(ctx, 1); err != nil {
			// batch deadline fired while waiting for a slot
			results[i].Err = fmt.Errorf("%s: %w", task.ID, errkind.ErrTimeout)
			continue
		}

		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			defer sem.Release(1)
			results[i].Output, results[i].Err = runOne(ctx, task)
		}(i, task)
	}

	wg.Wait()
	return results
}

// runOne executes a single task under its timeout, recovering panics.
func runOne(ctx context.Context, task Task) (output []byte, err error) {
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	type outcome struct {
		output []byte
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		var out outcome
		defer func() {
			if r := recover(); r != nil {
				log.WithComponent("enrich").Error().
					Str("task", task.ID).
					Interface("panic", r).
					Msg("task panicked")
				out = outcome{err: fmt.Errorf("task %s panicked: %v: %w", task.ID, r, errkind.ErrInternal)}
			}
			done <- out
		}()
		out.output, out.err = task.Run(ctx)
	}()

	select {
	case out := <-done:
		if errors.Is(out.err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", task.ID, errkind.ErrTimeout)
		}
		return out.output, out.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", task.ID, errkind.ErrTimeout)
	}
}
