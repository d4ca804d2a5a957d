package batch

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forcefield/bimap"
)

// slot is the registry's per-subscriber record. Its pointer identity is what
// an in-flight batch remembers, so a subscriber that unregisters and
// registers again mid-batch is treated as a different slot.
type slot struct {
	sub       Subscriber
	results   []r3.Vec
	delivered bool // results holds a completed batch
}

// Registry is the ordered set of subscribers of one field with their last
// results. It is not safe for concurrent use; Scheduler guards it.
type Registry struct {
	subs  *bimap.Map[Subscriber, *slot]
	order []*slot
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{subs: bimap.New[Subscriber, *slot]()}
}

// Register adds sub. It is a no-op when sub is
// already registered. It reports whether the registry was empty before.
func (r *Registry) Register(sub Subscriber) (first bool) {
	if r.subs.ContainsKey(sub) {
		return false
	}
	first = r.subs.Len() == 0
	s := &slot{sub: sub}
	r.subs.Add(sub, s)
	r.order = append(r.order, s)
	return first
}

// Unregister removes sub. It is a no-op when sub is absent. It reports
// whether the registry became empty.
func (r *Registry) Unregister(sub Subscriber) (empty bool) {
	s, ok := r.subs.Lookup(sub)
	if !ok {
		return false
	}
	r.subs.RemoveKey(sub)
	if i := slices.Index(r.order, s); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return r.subs.Len() == 0
}

// Contains reports whether sub is registered.
func (r *Registry) Contains(sub Subscriber) bool {
	return r.subs.ContainsKey(sub)
}

// live reports whether s is still the current slot of its subscriber.
func (r *Registry) live(s *slot) bool {
	return r.subs.ContainsValue(s)
}

// ResultsFor returns the last forces delivered to sub, or zeros sized to its
// current sample count when no batch has completed for it. The returned
// slice must not be modified.
func (r *Registry) ResultsFor(sub Subscriber) []r3.Vec {
	if s, ok := r.subs.Lookup(sub); ok && s.delivered {
		return s.results
	}
	return make([]r3.Vec, sub.SampleCount())
}

// Len returns the number of registered subscribers.
func (r *Registry) Len() int {
	return r.subs.Len()
}

// Subscribers returns the registered subscribers in registration order.
func (r *Registry) Subscribers() []Subscriber {
	out := make([]Subscriber, len(r.order))
	for i, s := range r.order {
		out[i] = s.sub
	}
	return out
}

// Clear unregisters everyone.
func (r *Registry) Clear() {
	r.subs.Clear()
	clear(r.order)
	r.order = r.order[:0]
}
