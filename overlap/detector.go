package overlap

// ColliderIndex maps colliders to the entity that owns them. The owner of the
// colliders keeps it current and hands it to a Detector.
type ColliderIndex[C, E comparable] struct {
	owners map[C]E
}

// NewColliderIndex returns an empty index.
func NewColliderIndex[C, E comparable]() *ColliderIndex[C, E] {
	return &ColliderIndex[C, E]{owners: make(map[C]E)}
}

// Set records e as the owner of c.
func (x *ColliderIndex[C, E]) Set(c C, e E) {
	x.owners[c] = e
}

// Remove forgets c.
func (x *ColliderIndex[C, E]) Remove(c C) {
	delete(x.owners, c)
}

// RemoveEntity forgets every collider owned by e.
func (x *ColliderIndex[C, E]) RemoveEntity(e E) {
	for c, owner := range x.owners {
		if owner == e {
			delete(x.owners, c)
		}
	}
}

// Owner returns the entity owning c.
func (x *ColliderIndex[C, E]) Owner(c C) (E, bool) {
	e, ok := x.owners[c]
	return e, ok
}

// Len returns the number of indexed colliders.
func (x *ColliderIndex[C, E]) Len() int {
	return len(x.owners)
}

// Detector resolves raw trigger events through a ColliderIndex and feeds
// them to a Tracker.
type Detector[F, C, E comparable] struct {
	index   *ColliderIndex[C, E]
	tracker *Tracker[F, E]
}

// NewDetector wires index into tracker.
func NewDetector[F, C, E comparable](index *ColliderIndex[C, E], tracker *Tracker[F, E]) *Detector[F, C, E] {
	return &Detector[F, C, E]{index: index, tracker: tracker}
}

// TriggerEnter reports that collider c started touching field f. Colliders
// without an owner are ignored. It reports whether the event was used.
func (d *Detector[F, C, E]) TriggerEnter(f F, c C) bool {
	e, ok := d.index.Owner(c)
	if !ok {
		return false
	}
	d.tracker.Enter(f, e)
	return true
}

// TriggerExit reports that collider c stopped touching field f.
func (d *Detector[F, C, E]) TriggerExit(f F, c C) bool {
	e, ok := d.index.Owner(c)
	if !ok {
		return false
	}
	d.tracker.Exit(f, e)
	return true
}

// Tracker returns the underlying tracker.
func (d *Detector[F, C, E]) Tracker() *Tracker[F, E] {
	return d.tracker
}
