package listing

import (
	"sync"
	"time"
)

// Registry holds one View per screen instance, e.g. per user and list
type Registry[Q, T any] struct {
	mu    sync.Mutex
	views map[string]*View[Q, T]
	fetch Fetcher[Q, T]
}

func NewRegistry[Q, T any](fetch Fetcher[Q, T]) *Registry[Q, T] {
	return &Registry[Q, T]{
		views: map[string]*View[Q, T]{},
		fetch: fetch,
	}
}

// View returns the view stored under key, creating it on first use
func (r *Registry[Q, T]) View(key string) *View[Q, T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.views[key]
	if !ok {
		v = NewView(r.fetch)
		r.views[key] = v
	}
	return v
}

// Prune forgets views nobody loaded for longer than idle
func (r *Registry[Q, T]) Prune(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, v := range r.views {
		if v.idleSince().Before(cutoff) {
			delete(r.views, key)
			removed++
		}
	}
	return removed
}

// Len is the number of live views
func (r *Registry[Q, T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
