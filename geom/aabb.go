package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// AABB is an axis aligned bounding box.
type AABB struct {
	Min, Max r3.Vec
}

// Extend grows the box to include p.
func (b AABB) Extend(p r3.Vec) AABB {
	return AABB{
		Min: r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// Union returns the smallest box enclosing both.
func (b AABB) Union(o AABB) AABB {
	return b.Extend(o.Min).Extend(o.Max)
}

// Size returns the edge lengths.
func (b AABB) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

// Center returns the midpoint.
func (b AABB) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}
