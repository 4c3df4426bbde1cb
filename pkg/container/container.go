// Package container holds the process-wide collaborators built at boot
// (payment gateway, broker publisher, live hub) so that controllers,
// listeners and the gRPC service resolve the same instances.
package container

import (
	"fmt"
	"sync"
)

// Factory produces a service instance.
type Factory func() interface{}

var (
	mu         sync.RWMutex
	bindings   = map[string]Factory{}
	singletons = map[string]interface{}{}
	shared     = map[string]bool{}
)

// Bind registers a factory under key. Each Make invokes it anew.
func Bind(key string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	bindings[key] = factory
	delete(shared, key)
	delete(singletons, key)
}

// Singleton registers a factory that runs once, on first Make.
func Singleton(key string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	bindings[key] = factory
	shared[key] = true
	delete(singletons, key)
}

// Instance registers an already built value.
func Instance(key string, v interface{}) {
	mu.Lock()
	defer mu.Unlock()
	bindings[key] = func() interface{} { return v }
	shared[key] = true
	singletons[key] = v
}

// Make resolves key. It panics on an unknown key since that is a boot
// wiring mistake.
func Make(key string) interface{} {
	mu.Lock()
	defer mu.Unlock()

	if inst, ok := singletons[key]; ok {
		return inst
	}
	factory, ok := bindings[key]
	if !ok {
		panic(fmt.Sprintf("container: unknown binding %q", key))
	}
	inst := factory()
	if shared[key] {
		singletons[key] = inst
	}
	return inst
}

// Resolve is the typed form of Make. ok is false when key is unbound or
// holds another type.
func Resolve[T any](key string) (T, bool) {
	var zero T
	if !Has(key) {
		return zero, false
	}
	v, ok := Make(key).(T)
	if !ok {
		return zero, false
	}
	return v, true
}

func Has(key string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := bindings[key]
	return ok
}

// Reset drops every binding.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	bindings = map[string]Factory{}
	singletons = map[string]interface{}{}
	shared = map[string]bool{}
}
