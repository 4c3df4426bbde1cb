package queue

import (
	"context"
	"errors"
)

// ErrQueueFull is returned by MemoryDriver.Push once the buffer is full.
var ErrQueueFull = errors.New("queue: memory buffer is full")

// DefaultMemoryCapacity is the buffer of the driver used until SetDriver.
const DefaultMemoryCapacity = 1000

// MemoryDriver keeps pending jobs in a buffered channel. Nothing survives a
// restart; deployments with separate workers use the Redis driver.
type MemoryDriver struct {
	ch chan []byte
}

// NewMemoryDriver returns a driver holding up to capacity pending jobs.
func NewMemoryDriver(capacity int) *MemoryDriver {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryDriver{ch: make(chan []byte, capacity)}
}

// Push never blocks the dispatching request.
func (d *MemoryDriver) Push(payload []byte) error {
	select {
	case d.ch <- payload:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *MemoryDriver) Pop(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload := <-d.ch:
		return payload, nil
	}
}

// Len is the number of jobs waiting for a worker.
func (d *MemoryDriver) Len() int { return len(d.ch) }
