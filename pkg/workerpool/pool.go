// Package workerpool is a bounded goroutine pool with backpressure. The
// analytics dashboard fans its aggregate queries out over one:
//
//	err := pool.Run(ctx,
//	    func(ctx context.Context) error { return loadSummary(ctx, &out.Summary) },
//	    func(ctx context.Context) error { return loadTrend(ctx, &out.Trend) },
//	)
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// ErrPoolFull is returned by Submit when every worker is busy and the
// queue is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned after Shutdown.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

type Pool struct {
	tasks   chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closeCh chan struct{}
}

// New starts size workers with a queue of 2*size.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		tasks:   make(chan func(), size*2),
		closeCh: make(chan struct{}),
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	select {
	case <-p.closeCh:
		return ErrPoolClosed
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until the task is queued or the pool closes.
func (p *Pool) SubmitWait(task func()) error {
	select {
	case <-p.closeCh:
		return ErrPoolClosed
	default:
	}

	select {
	case <-p.closeCh:
		return ErrPoolClosed
	case p.tasks <- task:
		return nil
	}
}

// Run executes fns on the pool and waits for all of them. The context
// handed to fns is cancelled on the first failure, whose error is returned.
// A panicking fn fails the run instead of crashing the process.
func (p *Pool) Run(ctx context.Context, fns ...func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for _, fn := range fns {
		fn := fn
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fail(fmt.Errorf("workerpool: task panicked: %v", r))
				}
			}()
			if err := fn(ctx); err != nil {
				fail(err)
			}
		}
		if err := p.SubmitWait(task); err != nil {
			wg.Done()
			fail(err)
			break
		}
	}

	wg.Wait()
	return firstErr
}

// Shutdown stops accepting tasks, lets queued tasks finish and waits for
// the workers. It is safe to call more than once.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.closeCh)
		p.wg.Wait()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.tasks:
			safeRun(task)
		case <-p.closeCh:
			for {
				select {
				case task := <-p.tasks:
					safeRun(task)
				default:
					return
				}
			}
		}
	}
}

func safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked", "panic", r)
		}
	}()
	task()
}
