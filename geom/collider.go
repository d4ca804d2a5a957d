package geom

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnknownShape is returned for collider kinds outside the closed set.
var ErrUnknownShape = errors.New("geom: unknown shape")

// Collider is the authored form of a bounding shape, relative to the
// transform of the field that owns it.
type Collider struct {
	Kind     Kind
	Offset   r3.Vec
	Rotation r3.Rotation
	Radius   float64 // sphere, capsule
	Size     r3.Vec  // box, full edge lengths
	Height   float64 // capsule, tip to tip
	Axis     Axis    // capsule
}

// Shape converts the collider into a world-space descriptor under parent.
func (c Collider) Shape(parent Transform) (Shape, error) {
	pos := parent.TransformPoint(c.Offset)
	rot := Compose(parent.Orientation(), c.Rotation)

	switch c.Kind {
	case KindSphere:
		return NewSphere(pos, c.Radius), nil
	case KindBox:
		return NewBox(pos, r3.Scale(0.5, c.Size), RotationMat(rot)), nil
	case KindCapsule:
		return NewCapsule(pos, c.Height, c.Radius, c.Axis, RotationMat(rot)), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownShape, c.Kind)
}

// BuildSet converts every collider under parent into a Set.
func BuildSet(colliders []Collider, parent Transform) (*Set, error) {
	shapes := make([]Shape, 0, len(colliders))
	for i, c := range colliders {
		s, err := c.Shape(parent)
		if err != nil {
			return nil, fmt.Errorf("collider %d: %w", i, err)
		}
		shapes = append(shapes, s)
	}
	return NewSet(shapes...), nil
}
