// Package components defines ECS components for the simulation.
package components

import "gonum.org/v1/gonum/spatial/r3"

// Position represents an entity's world position.
type Position struct {
	X, Y, Z float64
}

// Vec returns the position as a vector.
func (p Position) Vec() r3.Vec { return r3.Vec{X: p.X, Y: p.Y, Z: p.Z} }

// Set overwrites the position.
func (p *Position) Set(v r3.Vec) { p.X, p.Y, p.Z = v.X, v.Y, v.Z }

// Velocity represents an entity's velocity in units per second.
type Velocity struct {
	X, Y, Z float64
}

// Vec returns the velocity as a vector.
func (v Velocity) Vec() r3.Vec { return r3.Vec{X: v.X, Y: v.Y, Z: v.Z} }

// Set overwrites the velocity.
func (v *Velocity) Set(w r3.Vec) { v.X, v.Y, v.Z = w.X, w.Y, w.Z }

// Body holds physical properties of a rigid body.
type Body struct {
	ID   uint32  // Unique per spawn
	Mass float64 // > 0
	Drag float64 // Linear damping per second
}

// ForcePoints are the body-local positions at which fields are sampled.
// MassPct[i] is the share of the body's mass carried by Local[i], in percent.
type ForcePoints struct {
	Local   []r3.Vec
	MassPct []float64
}

// Count returns the number of points.
func (f *ForcePoints) Count() int { return len(f.Local) }

// Force is the net acceleration applied to a body on the last tick.
type Force struct {
	X, Y, Z float64
}

// Vec returns the force as a vector.
func (f Force) Vec() r3.Vec { return r3.Vec{X: f.X, Y: f.Y, Z: f.Z} }
