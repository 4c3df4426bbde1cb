package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/queue"
)

func TestMemoryDriverRefusesWhenFull(t *testing.T) {
	d := queue.NewMemoryDriver(2)
	require.NoError(t, d.Push([]byte("a")))
	require.NoError(t, d.Push([]byte("b")))

	done := make(chan error, 1)
	go func() { done <- d.Push([]byte("c")) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, queue.ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("Push blocked on a full buffer")
	}
	assert.Equal(t, 2, d.Len())

	got, err := d.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
	assert.NoError(t, d.Push([]byte("c")), "a freed slot is reusable")
}

func TestMemoryDriverPopHonoursContext(t *testing.T) {
	d := queue.NewMemoryDriver(0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
