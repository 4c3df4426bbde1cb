// Package event is an in-process dispatcher for domain events such as
// order.placed. Listeners are registered at boot from app/listeners.
package event

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload interface{})

var (
	mu       sync.RWMutex
	handlers = map[string][]Handler{}
	inflight sync.WaitGroup
)

// Listen registers a handler for the given event name.
func Listen(event string, handler Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[event] = append(handlers[event], handler)
}

func snapshot(event string) []Handler {
	mu.RLock()
	defer mu.RUnlock()
	return append([]Handler(nil), handlers[event]...)
}

// Fire dispatches an event synchronously to all listeners.
func Fire(ctx context.Context, event string, payload interface{}) {
	for _, h := range snapshot(event) {
		call(ctx, event, h, payload)
	}
}

// FireAsync dispatches the event to every listener on its own goroutine.
// The listeners get a context detached from ctx's cancellation so that
// they outlive the request that fired them.
func FireAsync(ctx context.Context, event string, payload interface{}) {
	detached := context.WithoutCancel(ctx)
	for _, h := range snapshot(event) {
		inflight.Add(1)
		go func(h Handler) {
			defer inflight.Done()
			call(detached, event, h, payload)
		}(h)
	}
}

// Wait blocks until every FireAsync listener has returned. Used on
// shutdown and in tests.
func Wait() { inflight.Wait() }

func call(ctx context.Context, event string, h Handler, payload interface{}) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", event, "panic", rec)
		}
	}()
	h(ctx, payload)
}

// Flush removes all listeners.
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	handlers = map[string][]Handler{}
}
