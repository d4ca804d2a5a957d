package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// identity is the unit quaternion. The zero r3.Rotation is not a rotation
// (it maps every vector to zero), so zero values are treated as identity.
var identity = r3.Rotation(quat.Number{Real: 1})

// Transform places a field or a collider in world space.
type Transform struct {
	Position r3.Vec
	Rotation r3.Rotation
}

// Orientation returns the rotation, substituting identity for the zero value.
func (t Transform) Orientation() r3.Rotation {
	return normalizeRotation(t.Rotation)
}

// TransformPoint maps a local point into world space.
func (t Transform) TransformPoint(p r3.Vec) r3.Vec {
	return r3.Add(t.Position, t.Orientation().Rotate(p))
}

// TransformDirection rotates a local direction into world space.
func (t Transform) TransformDirection(d r3.Vec) r3.Vec {
	return t.Orientation().Rotate(d)
}

// InverseTransformPoint maps a world point into local space.
func (t Transform) InverseTransformPoint(p r3.Vec) r3.Vec {
	inv := r3.Rotation(quat.Conj(quat.Number(t.Orientation())))
	return inv.Rotate(r3.Sub(p, t.Position))
}

// Euler builds a rotation from angles in degrees, applied Z then X then Y.
func Euler(x, y, z float64) r3.Rotation {
	const deg = math.Pi / 180
	rx := r3.NewRotation(x*deg, r3.Vec{X: 1})
	ry := r3.NewRotation(y*deg, r3.Vec{Y: 1})
	rz := r3.NewRotation(z*deg, r3.Vec{Z: 1})
	return Compose(ry, Compose(rx, rz))
}

// Compose returns the rotation that applies b first, then a.
func Compose(a, b r3.Rotation) r3.Rotation {
	a, b = normalizeRotation(a), normalizeRotation(b)
	return r3.Rotation(quat.Mul(quat.Number(a), quat.Number(b)))
}

// RotationMat returns the 3x3 matrix for r, or nil for identity so that
// descriptors can skip the multiply.
func RotationMat(r r3.Rotation) *r3.Mat {
	r = normalizeRotation(r)
	if r == identity {
		return nil
	}
	return r.Mat()
}

func normalizeRotation(r r3.Rotation) r3.Rotation {
	if r == (r3.Rotation{}) {
		return identity
	}
	return r
}
