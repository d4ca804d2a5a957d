package geom

import "gonum.org/v1/gonum/spatial/r3"

// Set is the union of a field's bounding shapes, bucketed by variant so the
// containment test runs cheapest shapes first and stops at the first hit.
// A Set is immutable after construction and safe for concurrent reads.
type Set struct {
	spheres  []Sphere
	boxes    []Box
	capsules []Capsule
}

// NewSet buckets shapes by kind. Nil entries are ignored.
func NewSet(shapes ...Shape) *Set {
	s := &Set{}
	for _, sh := range shapes {
		switch v := sh.(type) {
		case Sphere:
			s.spheres = append(s.spheres, v)
		case Box:
			s.boxes = append(s.boxes, v)
		case Capsule:
			s.capsules = append(s.capsules, v)
		case nil:
		default:
			panic("geom: unhandled shape variant")
		}
	}
	return s
}

// Len returns the number of shapes.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.spheres) + len(s.boxes) + len(s.capsules)
}

// Contains reports whether p lies inside any shape.
func (s *Set) Contains(p r3.Vec) bool {
	if s == nil {
		return false
	}
	for i := range s.spheres {
		if s.spheres[i].Contains(p) {
			return true
		}
	}
	for i := range s.boxes {
		if s.boxes[i].Contains(p) {
			return true
		}
	}
	for i := range s.capsules {
		if s.capsules[i].Contains(p) {
			return true
		}
	}
	return false
}

// Shapes returns the shapes in test order.
func (s *Set) Shapes() []Shape {
	out := make([]Shape, 0, s.Len())
	if s == nil {
		return out
	}
	for _, v := range s.spheres {
		out = append(out, v)
	}
	for _, v := range s.boxes {
		out = append(out, v)
	}
	for _, v := range s.capsules {
		out = append(out, v)
	}
	return out
}

// Bounds returns the combined AABB. ok is false for an empty set.
func (s *Set) Bounds() (box AABB, ok bool) {
	for i, sh := range s.Shapes() {
		if i == 0 {
			box = sh.Bounds()
			continue
		}
		box = box.Union(sh.Bounds())
	}
	return box, s.Len() > 0
}
