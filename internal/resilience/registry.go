// Package resilience provides the retry and circuit-breaker wrappers used
// around outbound remote calls. This file implements the breaker registry,
// the explicitly constructed keyed store that replaces per-breaker package
// globals so tests can instantiate isolated instances.
package resilience

import (
	"sort"
	"sync"
)

// Registry owns the circuit breakers for a process, keyed by call-site name.
// Breakers are created lazily on first use with the registry's options.
// Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	opts     BreakerOptions
}

// NewRegistry creates an empty registry whose breakers share the given
// options.
func NewRegistry(opts BreakerOptions) *Registry {
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
		opts:     opts.normalize(),
	}
}

// Get returns the breaker for the named call-site, creating it on first use.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.RLock()
	cb, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check: another goroutine may have created it between the locks.
	if cb, ok := r.breakers[name]; ok {
		return cb
	}
	cb = NewCircuitBreaker(name, r.opts)
	r.breakers[name] = cb
	return cb
}

// Statuses returns read-only snapshots of all registered breakers, sorted by
// name for stable API responses.
func (r *Registry) Statuses() []BreakerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]BreakerStatus, 0, len(r.breakers))
	for _, cb := range r.breakers {
		statuses = append(statuses, cb.Status())
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})
	return statuses
}
