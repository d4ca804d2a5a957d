// Package geom provides immutable bounding-volume descriptors and point
// containment tests used to decide whether a sample lies inside a force field.
package geom

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Kind identifies a shape variant. Kinds are ordered by containment cost,
// cheapest first.
type Kind uint8

const (
	KindSphere Kind = iota
	KindBox
	KindCapsule
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindBox:
		return "box"
	case KindCapsule:
		return "capsule"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind converts a config name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "sphere":
		return KindSphere, nil
	case "box":
		return KindBox, nil
	case "capsule":
		return KindCapsule, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, s)
}

// Axis selects the local axis a capsule's medial segment runs along.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Unit returns the local unit vector for the axis.
func (a Axis) Unit() r3.Vec {
	switch a {
	case AxisY:
		return r3.Vec{Y: 1}
	case AxisZ:
		return r3.Vec{Z: 1}
	}
	return r3.Vec{X: 1}
}

// ParseAxis converts "x", "y" or "z" into an Axis. Empty means Y.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "x":
		return AxisX, nil
	case "", "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("geom: unknown axis %q", s)
}

// Shape is a bounding volume descriptor. The set of implementations is
// closed to Sphere, Box and Capsule; adding a variant means implementing the
// unexported marker, which keeps every switch over shapes in this package.
type Shape interface {
	Kind() Kind
	Contains(p r3.Vec) bool
	Bounds() AABB
	shape()
}

// Sphere is a ball of Radius around Position.
type Sphere struct {
	Position r3.Vec
	Radius   float64
}

// NewSphere returns a sphere descriptor. Negative radii clamp to zero.
func NewSphere(pos r3.Vec, radius float64) Sphere {
	return Sphere{Position: pos, Radius: math.Max(radius, 0)}
}

func (Sphere) Kind() Kind { return KindSphere }
func (Sphere) shape()     {}

// Contains reports whether p lies inside the sphere. A zero radius never
// contains anything.
func (s Sphere) Contains(p r3.Vec) bool {
	if s.Radius <= 0 {
		return false
	}
	return r3.Norm2(r3.Sub(p, s.Position)) <= s.Radius*s.Radius
}

func (s Sphere) Bounds() AABB {
	r := r3.Vec{X: s.Radius, Y: s.Radius, Z: s.Radius}
	return AABB{Min: r3.Sub(s.Position, r), Max: r3.Add(s.Position, r)}
}

// Box is an oriented box. Extents are half sizes along the local axes.
// A nil Rotation means axis aligned.
type Box struct {
	Position r3.Vec
	Extents  r3.Vec
	Rotation *r3.Mat
}

// NewBox returns a box descriptor. Negative extents clamp to zero.
// rot must not be mutated afterwards.
func NewBox(pos, extents r3.Vec, rot *r3.Mat) Box {
	return Box{
		Position: pos,
		Extents: r3.Vec{
			X: math.Max(extents.X, 0),
			Y: math.Max(extents.Y, 0),
			Z: math.Max(extents.Z, 0),
		},
		Rotation: rot,
	}
}

func (Box) Kind() Kind { return KindBox }
func (Box) shape()     {}

// Contains transforms p into box-local space with the inverse rotation and
// checks every axis against the extents.
func (b Box) Contains(p r3.Vec) bool {
	if b.Extents.X <= 0 || b.Extents.Y <= 0 || b.Extents.Z <= 0 {
		return false
	}
	local := r3.Sub(p, b.Position)
	if b.Rotation != nil {
		// Rotation matrices are orthonormal, so the transpose is the inverse.
		local = b.Rotation.MulVecTrans(local)
	}
	return math.Abs(local.X) <= b.Extents.X &&
		math.Abs(local.Y) <= b.Extents.Y &&
		math.Abs(local.Z) <= b.Extents.Z
}

func (b Box) Bounds() AABB {
	half := b.Extents
	if b.Rotation != nil {
		// Extent of a rotated box along world axis i is sum_j |R_ij| * e_j.
		e := [3]float64{b.Extents.X, b.Extents.Y, b.Extents.Z}
		var w [3]float64
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				w[i] += math.Abs(b.Rotation.At(i, j)) * e[j]
			}
		}
		half = r3.Vec{X: w[0], Y: w[1], Z: w[2]}
	}
	return AABB{Min: r3.Sub(b.Position, half), Max: r3.Add(b.Position, half)}
}

// Capsule is a swept sphere along a local axis. Height is the full tip to tip
// length; when Height <= 2*Radius the capsule collapses to a sphere.
type Capsule struct {
	Position r3.Vec
	Height   float64
	Radius   float64
	Axis     Axis
	Rotation *r3.Mat
}

// NewCapsule returns a capsule descriptor. Negative sizes clamp to zero.
// rot must not be mutated afterwards.
func NewCapsule(pos r3.Vec, height, radius float64, axis Axis, rot *r3.Mat) Capsule {
	return Capsule{
		Position: pos,
		Height:   math.Max(height, 0),
		Radius:   math.Max(radius, 0),
		Axis:     axis,
		Rotation: rot,
	}
}

func (Capsule) Kind() Kind { return KindCapsule }
func (Capsule) shape()     {}

// HalfSegment is the half length of the cylindrical section.
func (c Capsule) HalfSegment() float64 {
	return math.Max(0, c.Height*0.5-c.Radius)
}

// Segment returns the world-space endpoints of the medial segment.
func (c Capsule) Segment() (a, b r3.Vec) {
	dir := c.Axis.Unit()
	if c.Rotation != nil {
		dir = c.Rotation.MulVec(dir)
	}
	off := r3.Scale(c.HalfSegment(), dir)
	return r3.Sub(c.Position, off), r3.Add(c.Position, off)
}

// Contains checks the squared distance from p to the closest point on the
// medial segment.
func (c Capsule) Contains(p r3.Vec) bool {
	if c.Radius <= 0 {
		return false
	}
	a, b := c.Segment()
	closest := ClosestPointOnSegment(a, b, p)
	return r3.Norm2(r3.Sub(p, closest)) <= c.Radius*c.Radius
}

func (c Capsule) Bounds() AABB {
	a, b := c.Segment()
	r := r3.Vec{X: c.Radius, Y: c.Radius, Z: c.Radius}
	box := AABB{Min: a, Max: a}.Extend(b)
	return AABB{Min: r3.Sub(box.Min, r), Max: r3.Add(box.Max, r)}
}

// ClosestPointOnSegment projects p onto segment ab, clamped to the endpoints.
// A zero-length segment returns a.
func ClosestPointOnSegment(a, b, p r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	lenSq := r3.Norm2(ab)
	if lenSq == 0 {
		return a
	}
	t := r3.Dot(r3.Sub(p, a), ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return r3.Add(a, r3.Scale(t, ab))
}
