package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaere/whoisd/pkg/errkind"
	"github.com/akaere/whoisd/pkg/log"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel})
}

func TestRunAllPreservesSubmissionOrder(t *testing.T) {
	var tasks []Task
	for i := 0; i < 20; i++ {
		i := i
		tasks = append(tasks, Task{
			ID:      fmt.Sprintf("task-%d", i),
			Timeout: time.Second,
			Run: func(ctx context.Context) ([]byte, error) {
				// later tasks finish first
				time.Sleep(time.Duration(20-i) * time.Millisecond)
				return []byte(fmt.Sprintf("out-%d", i)), nil
			},
		})
	}

	results := RunAll(context.Background(), tasks, 8, 0)
	require.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("task-%d", i), r.ID)
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("out-%d", i), string(r.Output))
	}
}

func TestRunAllBoundsParallelism(t *testing.T) {
	var inFlight, peak int64
	var mu sync.Mutex

	var tasks []Task
	for i := 0; i < 32; i++ {
		tasks = append(tasks, Task{
			ID:      fmt.Sprintf("task-%d", i),
			Timeout: time.Second,
			Run: func(ctx context.Context) ([]byte, error) {
				n := atomic.AddInt64(&inFlight, 1)
				mu.Lock()
				if n > peak {
					peak = n
				}
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt64(&inFlight, -1)
				return nil, nil
			},
		})
	}

	RunAll(context.Background(), tasks, 4, 0)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(4))
}

func TestRunAllPerTaskTimeout(t *testing.T) {
	tasks := []Task{
		{
			ID:      "slow",
			Timeout: 20 * time.Millisecond,
			Run: func(ctx context.Context) ([]byte, error) {
				select {
				case <-time.After(time.Second):
					return []byte("too late"), nil
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			},
		},
		{
			ID:      "fast",
			Timeout: time.Second,
			Run: func(ctx context.Context) ([]byte, error) {
				return []byte("ok"), nil
			},
		},
	}

	results := RunAll(context.Background(), tasks, 2, 0)
	assert.ErrorIs(t, results[0].Err, errkind.ErrTimeout)
	require.NoError(t, results[1].Err)
	assert.Equal(t, "ok", string(results[1].Output))
}

func TestRunAllRecoversPanics(t *testing.T) {
	tasks := []Task{
		{
			ID:      "panics",
			Timeout: time.Second,
			Run: func(ctx context.Context) ([]byte, error) {
				panic("boom")
			},
		},
		{
			ID:      "survives",
			Timeout: time.Second,
			Run: func(ctx context.Context) ([]byte, error) {
				return []byte("fine"), nil
			},
		},
	}

	results := RunAll(context.Background(), tasks, 2, 0)
	assert.ErrorIs(t, results[0].Err, errkind.ErrInternal)
	require.NoError(t, results[1].Err)
}

func TestRunAllOverallDeadline(t *testing.T) {
	var tasks []Task
	for i := 0; i < 4; i++ {
		tasks = append(tasks, Task{
			ID:      fmt.Sprintf("task-%d", i),
			Timeout: time.Second,
			Run: func(ctx context.Context) ([]byte, error) {
				select {
				case <-time.After(time.Second):
					return nil, errors.New("should have been cancelled")
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			},
		})
	}

	start := time.Now()
	results := RunAll(context.Background(), tasks, 1, 50*time.Millisecond)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	for _, r := range results {
		assert.Error(t, r.Err)
	}
}
