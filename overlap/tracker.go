// Package overlap turns collider-level trigger events into field membership
// events for whole entities. An entity made of several colliders, or a field
// made of several shapes, produces many raw enter/exit events; the tracker
// counts them per (field, entity) pair and only reports the first enter and
// the last exit.
package overlap

// Tracker counts active overlaps per (field, entity) pair. It is not safe for
// concurrent use.
type Tracker[F, E comparable] struct {
	counts  map[pair[F, E]]int
	onEnter func(F, E)
	onExit  func(F, E)
}

type pair[F, E comparable] struct {
	field  F
	entity E
}

// NewTracker creates a tracker. onEnter fires when a pair's count goes from 0
// to 1 and onExit when it returns to 0. Either may be nil.
func NewTracker[F, E comparable](onEnter, onExit func(F, E)) *Tracker[F, E] {
	return &Tracker[F, E]{
		counts:  make(map[pair[F, E]]int),
		onEnter: onEnter,
		onExit:  onExit,
	}
}

// Enter records one more overlap between f and e.
func (t *Tracker[F, E]) Enter(f F, e E) {
	k := pair[F, E]{f, e}
	t.counts[k]++
	if t.counts[k] == 1 && t.onEnter != nil {
		t.onEnter(f, e)
	}
}

// Exit records one overlap fewer. Unmatched exits are ignored.
func (t *Tracker[F, E]) Exit(f F, e E) {
	k := pair[F, E]{f, e}
	n, ok := t.counts[k]
	if !ok {
		return
	}
	if n > 1 {
		t.counts[k] = n - 1
		return
	}
	delete(t.counts, k)
	if t.onExit != nil {
		t.onExit(f, e)
	}
}

// Count returns the number of active overlaps between f and e.
func (t *Tracker[F, E]) Count(f F, e E) int {
	return t.counts[pair[F, E]{f, e}]
}

// Inside reports whether e overlaps f at all.
func (t *Tracker[F, E]) Inside(f F, e E) bool {
	return t.Count(f, e) > 0
}

// Fields returns every field e currently overlaps, in no particular order.
func (t *Tracker[F, E]) Fields(e E) []F {
	var out []F
	for k := range t.counts {
		if k.entity == e {
			out = append(out, k.field)
		}
	}
	return out
}

// RemoveEntity drops every pair involving e, firing one exit per pair.
func (t *Tracker[F, E]) RemoveEntity(e E) {
	t.removeWhere(func(k pair[F, E]) bool { return k.entity == e })
}

// RemoveField drops every pair involving f, firing one exit per pair.
func (t *Tracker[F, E]) RemoveField(f F) {
	t.removeWhere(func(k pair[F, E]) bool { return k.field == f })
}

// Len returns the number of active pairs.
func (t *Tracker[F, E]) Len() int {
	return len(t.counts)
}

func (t *Tracker[F, E]) removeWhere(match func(pair[F, E]) bool) {
	var gone []pair[F, E]
	for k := range t.counts {
		if match(k) {
			gone = append(gone, k)
		}
	}
	for _, k := range gone {
		delete(t.counts, k)
		if t.onExit != nil {
			t.onExit(k.field, k.entity)
		}
	}
}
