package session

import (
	"context"
	"sync"
	"time"
)

type registryEntry[T any] struct {
	value T
	seen  time.Time
}

// Registry keeps one value per session id, such as an admin's review board or
// a student's request draft. Idle entries are dropped by Sweep.
type Registry[T any] struct {
	idle  time.Duration
	newFn func() T
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry[T]
}

func NewRegistry[T any](idle time.Duration, newFn func() T) *Registry[T] {
	return &Registry[T]{
		idle:    idle,
		newFn:   newFn,
		now:     time.Now,
		entries: make(map[string]*registryEntry[T]),
	}
}

// Get returns the value for id, creating it on first use.
func (r *Registry[T]) Get(id string) T {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		e = &registryEntry[T]{value: r.newFn()}
		r.entries[id] = e
	}
	e.seen = r.now()
	return e.value
}

func (r *Registry[T]) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

func (r *Registry[T]) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.idle)
	n := 0
	for id, e := range r.entries {
		if e.seen.Before(cutoff) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry[T]) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}
