package field

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forcefield/geom"
)

// Epsilon guards every division by a squared magnitude.
const Epsilon = 1e-4

// Source is a zone force point in world space with its force split into a
// unit direction and a magnitude once, at snapshot time.
type Source struct {
	Position  r3.Vec
	Direction r3.Vec
	Magnitude float64
}

// NewSource splits force into direction and magnitude.
func NewSource(pos, force r3.Vec) Source {
	magSq := r3.Norm2(force)
	invMag := 1 / math.Sqrt(magSq+Epsilon)
	return Source{
		Position:  pos,
		Direction: r3.Scale(invMag, force),
		Magnitude: magSq * invMag,
	}
}

// Generator is the immutable force rule of a snapshot.
type Generator struct {
	Kind      Kind
	Center    r3.Vec   // radial
	Magnitude float64  // radial
	Sources   []Source // zone
}

// RadialGenerator pulls toward center with a fixed magnitude.
func RadialGenerator(center r3.Vec, magnitude float64) Generator {
	return Generator{Kind: KindRadial, Center: center, Magnitude: magnitude}
}

// ZoneGenerator blends sources by inverse distance.
func ZoneGenerator(sources []Source) Generator {
	return Generator{Kind: KindZone, Sources: sources}
}

// Snapshot is the read-only state one batch evaluates against. It is safe
// for concurrent use and must not be modified once shared.
type Snapshot struct {
	Shapes    *geom.Set
	Generator Generator
}

// Contains reports whether p is inside the field volume.
func (s *Snapshot) Contains(p r3.Vec) bool {
	return s.Shapes.Contains(p)
}

// Evaluate returns the force at p. Points outside every shape get zero.
func (s *Snapshot) Evaluate(p r3.Vec) r3.Vec {
	if !s.Shapes.Contains(p) {
		return r3.Vec{}
	}
	switch s.Generator.Kind {
	case KindRadial:
		return radialForce(s.Generator.Center, s.Generator.Magnitude, p)
	case KindZone:
		return zoneForce(s.Generator.Sources, p)
	}
	return r3.Vec{}
}

// EvaluateInto writes the force for positions[i] into dst[i].
// dst must be at least as long as positions.
func (s *Snapshot) EvaluateInto(dst, positions []r3.Vec) {
	for i := range positions {
		dst[i] = s.Evaluate(positions[i])
	}
}

func radialForce(center r3.Vec, magnitude float64, p r3.Vec) r3.Vec {
	delta := r3.Sub(center, p)
	lenSq := r3.Norm2(delta)
	if lenSq <= Epsilon {
		return r3.Vec{}
	}
	return r3.Scale(magnitude/math.Sqrt(lenSq), delta)
}

// zoneForce blends every source with weight 1/sqrt(distSq+eps). Weights never
// reach zero, so the magnitude does not fall off with distance from the zone;
// only the blended direction changes.
func zoneForce(sources []Source, p r3.Vec) r3.Vec {
	var dirSum r3.Vec
	var magSum, total float64

	for i := range sources {
		src := &sources[i]
		distSq := r3.Norm2(r3.Sub(p, src.Position)) + Epsilon
		w := 1 / math.Sqrt(distSq)

		dirSum = r3.Add(dirSum, r3.Scale(w, src.Direction))
		magSum += w * src.Magnitude
		total += w
	}
	if total <= 0 {
		return r3.Vec{}
	}

	dir := r3.Scale(1/total, dirSum)
	mag := magSum / total
	return r3.Scale(mag/math.Sqrt(r3.Norm2(dir)+Epsilon), dir)
}
