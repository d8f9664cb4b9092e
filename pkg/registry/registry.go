// Package registry implements the capacity-capped tag table (spec.md §4.4):
// tags are created on first angle arrival and never destroyed during the
// process lifetime. Lookup is O(1) via a map; the reference C
// implementation uses linear search over a fixed array, which the spec
// explicitly allows an implementation to substitute without altering
// observable behavior.
package registry

import (
	"sync"

	"github.com/marmos91/multilocator/pkg/window"
)

// Tag is one tracked asset tag: its correlation window plus any estimator
// state the caller attaches via EstimatorState.
type Tag struct {
	ID             string
	Window         *window.Window
	EstimatorState any
}

// Registry is the thread-safe, capacity-capped set of tracked tags.
// Tags ≤ MaxTags (hard cap, oldest-not-evicted — excess new tags are
// dropped, per spec.md §5 resource bounds).
type Registry struct {
	mu      sync.RWMutex
	tags    map[string]*Tag
	maxTags int
}

// New creates an empty registry capped at maxTags.
func New(maxTags int) *Registry {
	return &Registry{
		tags:    make(map[string]*Tag),
		maxTags: maxTags,
	}
}

// NewTagFunc builds a new Tag for a tag ID that hasn't been seen before.
// Supplied by the caller so the registry doesn't need to know about window
// sizing or estimator initialisation (spec.md §4.6 per-tag init).
type NewTagFunc func(id string) *Tag

// GetOrCreate implements spec.md §4.4: returns the existing tag if present;
// otherwise, if the registry has capacity, creates one via newTag and
// returns it with created=true. If the registry is full, returns
// (nil, false, false) — the caller (dispatcher) must log a saturation
// warning and drop the event.
func (r *Registry) GetOrCreate(id string, newTag NewTagFunc) (tag *Tag, created bool, ok bool) {
	r.mu.RLock()
	if t, exists := r.tags[id]; exists {
		r.mu.RUnlock()
		return t, false, true
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock: another caller may have created it
	// between the RUnlock above and this Lock.
	if t, exists := r.tags[id]; exists {
		return t, false, true
	}

	if r.maxTags > 0 && len(r.tags) >= r.maxTags {
		return nil, false, false
	}

	t := newTag(id)
	r.tags[id] = t
	return t, true, true
}

// Get retrieves a tag by ID without creating one.
func (r *Registry) Get(id string) (*Tag, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tags[id]
	return t, ok
}

// Count returns the number of tracked tags.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tags)
}

// MaxTags returns the configured capacity.
func (r *Registry) MaxTags() int {
	return r.maxTags
}

// ListIDs returns all tracked tag IDs. The returned slice is a copy.
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.tags))
	for id := range r.tags {
		ids = append(ids, id)
	}
	return ids
}
