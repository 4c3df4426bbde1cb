// Package queue runs background jobs: order confirmations and stock alerts.
//
//	queue.Register(jobs.SendOrderConfirmation{}.JobName(), func() queue.Job { return &jobs.SendOrderConfirmation{} })
//	queue.Dispatch(&jobs.SendOrderConfirmation{OrderID: order.ID})
//
// Jobs are JSON encoded into an envelope, so every job type must be
// registered on the worker side before it can be processed.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// Job is the interface every queued job must satisfy.
type Job interface {
	Handle(ctx context.Context) error
}

// Named lets a job pick a stable wire name. Jobs without it are keyed by
// their Go type.
type Named interface {
	JobName() string
}

// FailedJob holds information about a job that exhausted its retries.
type FailedJob struct {
	Type     string
	Job      Job
	Err      error
	FailedAt time.Time
	Attempts int
}

// Driver is the queue storage backend.
type Driver interface {
	Push(payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver is implemented by drivers that can hold a job until later.
type DelayedDriver interface {
	PushDelayed(payload []byte, delay time.Duration) error
}

// Manager is the central queue hub.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	failed   []FailedJob
	maxRetry int
	backoff  time.Duration
	sync     bool
}

var defaultManager = &Manager{
	registry: map[string]func() Job{},
	maxRetry: 3,
	backoff:  time.Second,
	driver:   NewMemoryDriver(DefaultMemoryCapacity),
}

// SetDriver swaps the underlying queue driver (e.g. Redis).
func SetDriver(d Driver) {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.driver = d
}

// SetMaxRetry sets how many times a failing job is attempted.
func SetMaxRetry(n int) {
	defaultManager.mu.Lock()
	defaultManager.maxRetry = n
	defaultManager.mu.Unlock()
}

// SetBackoff sets the base delay between attempts; attempt n waits n*d.
func SetBackoff(d time.Duration) {
	defaultManager.mu.Lock()
	defaultManager.backoff = d
	defaultManager.mu.Unlock()
}

// SetSync makes Dispatch run jobs inline on the caller's goroutine. Used by
// tests and by `serve` when no worker is configured.
func SetSync(on bool) {
	defaultManager.mu.Lock()
	defaultManager.sync = on
	defaultManager.mu.Unlock()
}

// Register makes a job type available for decoding by name.
func Register(name string, factory func() Job) {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.registry[name] = factory
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatch pushes job onto the queue immediately.
func Dispatch(job Job) error {
	return defaultManager.push(job, 0)
}

// DispatchAfter pushes job onto the queue after delay. Drivers that
// implement DelayedDriver hold the job themselves; otherwise a timer does.
func DispatchAfter(job Job, delay time.Duration) error {
	return defaultManager.push(job, delay)
}

func nameOf(job Job) string {
	if n, ok := job.(Named); ok {
		return n.JobName()
	}
	return fmt.Sprintf("%T", job)
}

func (m *Manager) push(job Job, delay time.Duration) error {
	typeName := nameOf(job)

	m.mu.RLock()
	inline := m.sync
	d := m.driver
	m.mu.RUnlock()

	if inline {
		m.runWithRetry(context.Background(), job, typeName)
		return nil
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job %s: %w", typeName, err)
	}
	env, err := json.Marshal(envelope{Type: typeName, Payload: payload})
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}

	if delay <= 0 {
		return d.Push(env)
	}
	if dd, ok := d.(DelayedDriver); ok {
		return dd.PushDelayed(env, delay)
	}
	time.AfterFunc(delay, func() {
		if err := d.Push(env); err != nil {
			logger.Error("queue: delayed dispatch failed", "type", typeName, "error", err)
		}
	})
	return nil
}

// StartWorkers launches n concurrent workers that run until ctx is
// cancelled. The returned WaitGroup completes once they have all exited.
func StartWorkers(ctx context.Context, n int) *sync.WaitGroup {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defaultManager.work(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
	return &wg
}

func (m *Manager) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		m.mu.RLock()
		d := m.driver
		m.mu.RUnlock()

		raw, err := d.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if raw == nil {
			continue
		}

		m.process(ctx, raw)
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()

	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}

	m.runWithRetry(ctx, job, env.Type)
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, typeName string) {
	m.mu.RLock()
	maxRetry, backoff := m.maxRetry, m.backoff
	m.mu.RUnlock()

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= maxRetry; attempt++ {
		err := job.Handle(ctx)
		if err == nil {
			logger.Info("queue: job processed", "type", typeName, "attempt", attempt)
			metrics.RecordQueueJob(typeName, "success", start)
			return
		}
		lastErr = err
		logger.Warn("queue: job failed", "type", typeName, "attempt", attempt, "error", err)
		if attempt == maxRetry {
			break
		}
		select {
		case <-ctx.Done():
			attempt = maxRetry
		case <-time.After(time.Duration(attempt) * backoff):
		}
	}

	metrics.RecordQueueJob(typeName, "failed", start)
	m.persistFailed(job, typeName, lastErr, maxRetry)
	logger.Error("queue: job exhausted retries", "type", typeName, "error", lastErr)
}

// FailedJobs returns the failures seen by this process.
func FailedJobs() []FailedJob {
	defaultManager.mu.RLock()
	defer defaultManager.mu.RUnlock()
	out := make([]FailedJob, len(defaultManager.failed))
	copy(out, defaultManager.failed)
	return out
}
