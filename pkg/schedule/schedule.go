// Package schedule runs the storefront's periodic maintenance tasks.
//
//	s := schedule.New()
//	s.Every(time.Hour).Name("tokens:purge").Run(purgeTokens)
//	s.Cron("0 3 * * *").Name("inventory:low-stock").WithoutOverlapping().Run(alertLowStock)
//	s.Start(ctx) // blocks until ctx ends
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Task is one unit of scheduled work.
type Task func(ctx context.Context) error

type entry struct {
	id        string
	interval  time.Duration
	cronExpr  string
	task      Task
	noOverlap bool

	mu       sync.Mutex
	lastRun  time.Time
	lastCron time.Time // minute of the last cron firing
	running  bool
}

// Scheduler holds the registered entries.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	wg      sync.WaitGroup
}

func New() *Scheduler { return &Scheduler{} }

// Builder configures one entry until Run registers it.
type Builder struct {
	s *Scheduler
	e *entry
}

// Every runs the task every d. The first run happens on the first tick.
func (s *Scheduler) Every(d time.Duration) *Builder {
	return &Builder{s: s, e: &entry{interval: d}}
}

// Hourly is Every(time.Hour).
func (s *Scheduler) Hourly() *Builder { return s.Every(time.Hour) }

// Daily is Every(24h).
func (s *Scheduler) Daily() *Builder { return s.Every(24 * time.Hour) }

// Cron runs the task on minutes matching a five-field expression
// (minute hour day-of-month month day-of-week). Each field accepts *,
// n, */step, a-b and comma lists.
func (s *Scheduler) Cron(expr string) *Builder {
	return &Builder{s: s, e: &entry{cronExpr: expr}}
}

func (b *Builder) Name(id string) *Builder {
	b.e.id = id
	return b
}

// WithoutOverlapping skips a run while the previous one is still going.
func (b *Builder) WithoutOverlapping() *Builder {
	b.e.noOverlap = true
	return b
}

// Run registers the task.
func (b *Builder) Run(task Task) {
	b.e.task = task
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
}

// Start ticks every second and dispatches due tasks until ctx ends, then
// waits for running tasks to return.
func (s *Scheduler) Start(ctx context.Context) {
	logger.Info("schedule: started", "tasks", len(s.List()))
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick dispatches every entry due at now.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	current := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	for _, e := range current {
		if e.due(now) {
			s.dispatch(ctx, e)
		}
	}
}

// RunNow runs the named task synchronously. The CLI uses it for one-off
// maintenance.
func (s *Scheduler) RunNow(ctx context.Context, id string) error {
	s.mu.Lock()
	var found *entry
	for _, e := range s.entries {
		if e.id == id {
			found = e
		}
	}
	s.mu.Unlock()
	if found == nil {
		return fmt.Errorf("schedule: unknown task %q", id)
	}
	return found.task(ctx)
}

// due marks the entry as fired when it returns true.
func (e *entry) due(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cronExpr != "" {
		minute := now.Truncate(time.Minute)
		if !minute.After(e.lastCron) || !matchCron(e.cronExpr, now) {
			return false
		}
		e.lastCron = minute
		return true
	}
	if !e.lastRun.IsZero() && now.Sub(e.lastRun) < e.interval {
		return false
	}
	e.lastRun = now
	return true
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry) {
	e.mu.Lock()
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping run", "task", e.id)
		return
	}
	e.running = true
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		start := time.Now()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "task", e.id, "panic", r)
			}
		}()

		if err := e.task(ctx); err != nil {
			logger.Error("schedule: task failed", "task", e.id, "error", err)
			return
		}
		logger.Info("schedule: task done", "task", e.id, "duration_ms", time.Since(start).Milliseconds())
	}()
}

// Wait blocks until dispatched tasks return.
func (s *Scheduler) Wait() { s.wg.Wait() }

// List describes the registered entries.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		freq := e.cronExpr
		if freq == "" {
			freq = "every " + e.interval.String()
		}
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, freq))
	}
	return out
}

func matchCron(expr string, t time.Time) bool {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return false
	}
	values := []int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, f := range fields {
		if !matchField(f, values[i]) {
			return false
		}
	}
	return true
}

func matchField(field string, val int) bool {
	for _, part := range strings.Split(field, ",") {
		if matchPart(part, val) {
			return true
		}
	}
	return false
}

func matchPart(part string, val int) bool {
	switch {
	case part == "*":
		return true
	case strings.HasPrefix(part, "*/"):
		step, err := strconv.Atoi(part[2:])
		return err == nil && step > 0 && val%step == 0
	case strings.Contains(part, "-"):
		lo, hi, ok := strings.Cut(part, "-")
		if !ok {
			return false
		}
		a, err1 := strconv.Atoi(lo)
		b, err2 := strconv.Atoi(hi)
		return err1 == nil && err2 == nil && val >= a && val <= b
	default:
		n, err := strconv.Atoi(part)
		return err == nil && n == val
	}
}
