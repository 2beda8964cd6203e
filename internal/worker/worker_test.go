package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type counter struct {
	mu   sync.Mutex
	seen []string
}

func (c *counter) process(ctx context.Context, job string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, job)
	return nil
}

func (c *counter) jobs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.seen...)
}

func TestWorkerPool_DrainsOnStop(t *testing.T) {
	for _, workers := range []int{0, 1, 3} {
		c := &counter{}
		pool := NewWorkerPool("seed", workers, 2, c.process)
		pool.Start(context.Background())

		for _, name := range []string{"Mount Si", "Twin Falls", "Lake Serene", "Poo Poo Point", "Rattlesnake Ledge"} {
			require.NoError(t, pool.Submit(context.Background(), name))
		}
		pool.Stop()

		assert.Len(t, c.jobs(), 5, "workers=%d", workers)
	}
}

func TestWorkerPool_SingleWorkerKeepsOrder(t *testing.T) {
	var mu sync.Mutex
	var order []int
	pool := NewWorkerPool("events", 1, 4, func(ctx context.Context, job int) error {
		mu.Lock()
		order = append(order, job)
		mu.Unlock()
		return nil
	})
	pool.Start(context.Background())

	for i := 0; i < 100; i++ {
		require.NoError(t, pool.Submit(context.Background(), i))
	}
	pool.Stop()

	require.Len(t, order, 100)
	for i, v := range order {
		require.Equal(t, i, v, "job processed out of order")
	}
}

func TestWorkerPool_ConcurrentSubmitters(t *testing.T) {
	var processed atomic.Int64
	pool := NewWorkerPool("seed", 4, 8, func(ctx context.Context, job int) error {
		processed.Add(1)
		return nil
	})
	pool.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, pool.Submit(context.Background(), n))
		}(i)
	}
	wg.Wait()
	pool.Stop()

	assert.EqualValues(t, 64, processed.Load())
}

func TestWorkerPool_FailedJobsDoNotStopWorker(t *testing.T) {
	var processed atomic.Int64
	pool := NewWorkerPool("events", 1, 10, func(ctx context.Context, job int) error {
		processed.Add(1)
		if job%3 == 0 {
			return errors.New("rejected")
		}
		return nil
	})
	pool.Start(context.Background())

	for i := 0; i < 9; i++ {
		require.NoError(t, pool.Submit(context.Background(), i))
	}
	pool.Stop()

	assert.EqualValues(t, 9, processed.Load())
}

func TestWorkerPool_SubmitAfterStop(t *testing.T) {
	pool := NewWorkerPool("events", 1, 1, func(ctx context.Context, job int) error { return nil })
	pool.Start(context.Background())
	pool.Stop()
	pool.Stop()

	assert.ErrorIs(t, pool.Submit(context.Background(), 1), ErrStopped)
}

func TestWorkerPool_SubmitHonorsContext(t *testing.T) {
	block := make(chan struct{})
	pool := NewWorkerPool("events", 1, 0, func(ctx context.Context, job int) error {
		<-block
		return nil
	})
	pool.Start(context.Background())

	// The worker holds job 1, so job 2 has nowhere to go.
	require.NoError(t, pool.Submit(context.Background(), 1))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Submit(ctx, 2), context.DeadlineExceeded)

	close(block)
	pool.Stop()
}

func TestWorkerPool_CancelledContextStopsWorkers(t *testing.T) {
	pool := NewWorkerPool("seed", 2, 50, func(ctx context.Context, job int) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	for i := 0; i < 20; i++ {
		require.NoError(t, pool.Submit(ctx, i))
	}
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after cancel")
	}
}
