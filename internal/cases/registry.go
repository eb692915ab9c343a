package cases

import (
	"sort"
	"sync"
)

// Registry is the authoritative mapping from case id to its published
// definition. Published cases are immutable; republishing a case id swaps in
// a fresh snapshot with a bumped version, so a reader holding the previous
// snapshot is unaffected.
type Registry struct {
	mu    sync.RWMutex
	cases map[int64]*Case
}

// NewRegistry creates an empty case registry.
func NewRegistry() *Registry {
	return &Registry{
		cases: make(map[int64]*Case),
	}
}

// Publish validates a case definition and makes it resolvable. If the case
// id is already published the new definition replaces it with version+1;
// a first publish gets version 1. Validation failure leaves the previous
// definition (if any) in place.
func (r *Registry) Publish(c *Case) error {
	if err := c.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	version := int64(1)
	if prev, ok := r.cases[c.ID]; ok {
		version = prev.Version + 1
	}

	published := *c
	published.Version = version
	r.cases[c.ID] = &published
	return nil
}

// Resolve returns the published case for the given id. The returned snapshot
// is immutable; callers must not retain it across republishes if they need
// the latest version.
func (r *Registry) Resolve(caseID int64) (*Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cases[caseID]
	if !ok {
		return nil, ErrUnknownCase
	}
	return c, nil
}

// List returns all published cases ordered by id.
func (r *Registry) List() []*Case {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Case, 0, len(r.cases))
	for _, c := range r.cases {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of published cases.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cases)
}
