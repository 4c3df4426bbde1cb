package workerpool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

func TestPoolRunsEverySubmittedTask(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Shutdown()

	var wg sync.WaitGroup
	var ran atomic.Int64
	for i := 0; i < 64; i++ {
		wg.Add(1)
		require.NoError(t, pool.SubmitWait(func() {
			defer wg.Done()
			ran.Add(1)
		}))
	}
	wg.Wait()
	assert.EqualValues(t, 64, ran.Load())
}

func TestPoolRejectsWhenQueueIsFull(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	require.NoError(t, pool.SubmitWait(func() {
		close(started)
		<-release
	}))
	<-started

	// One worker queues two tasks.
	require.NoError(t, pool.Submit(func() {}))
	require.NoError(t, pool.Submit(func() {}))
	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolFull)
}

func TestPoolRejectsAfterShutdown(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown()
	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolClosed)
	assert.ErrorIs(t, pool.SubmitWait(func() {}), workerpool.ErrPoolClosed)
}

func TestPoolSurvivesPanickingTask(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	require.NoError(t, pool.SubmitWait(func() { panic("nil product") }))

	done := make(chan struct{})
	require.NoError(t, pool.SubmitWait(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not come back after a panic")
	}
}

func TestPool_RunWaitsForAll(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Shutdown()

	var orders, revenue atomic.Int64
	err := pool.Run(context.Background(),
		func(context.Context) error { orders.Store(12); return nil },
		func(context.Context) error { revenue.Store(45000); return nil },
		func(context.Context) error { return nil },
	)

	assert.NoError(t, err)
	assert.Equal(t, int64(12), orders.Load())
	assert.Equal(t, int64(45000), revenue.Load())
}

func TestPool_RunReturnsFirstErrorAndCancels(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Shutdown()

	boom := errors.New("query failed")
	var cancelled atomic.Bool
	err := pool.Run(context.Background(),
		func(context.Context) error { return boom },
		func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				cancelled.Store(true)
			case <-time.After(2 * time.Second):
			}
			return nil
		},
	)

	assert.ErrorIs(t, err, boom)
	assert.True(t, cancelled.Load())
}

func TestPool_RunTurnsPanicIntoError(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	err := pool.Run(context.Background(), func(context.Context) error { panic("bad row") })
	assert.ErrorContains(t, err, "bad row")
}

func TestPool_RunOnClosedPool(t *testing.T) {
	pool := workerpool.New(1)
	pool.Shutdown()

	err := pool.Run(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, workerpool.ErrPoolClosed)
}
