// Package field models spatial force fields: a bounding volume made of
// geometric shapes plus a force generator, either a single radial attractor or
// a zone of localized force points blended by inverse distance.
package field

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forcefield/geom"
)

// Kind selects how a field generates force.
type Kind uint8

const (
	KindZone   Kind = iota // Inverse-distance blend of force points
	KindRadial             // Single attractor toward a center
)

func (k Kind) String() string {
	switch k {
	case KindZone:
		return "zone"
	case KindRadial:
		return "radial"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind converts a config name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "zone":
		return KindZone, nil
	case "radial", "sphere":
		return KindRadial, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
}

// Point is an authored force generator of a zone field, in field-local space.
type Point struct {
	LocalPosition r3.Vec
	Force         r3.Vec
}

// Definition describes a field at construction time.
type Definition struct {
	Name      string
	Kind      Kind
	Transform geom.Transform
	Colliders []geom.Collider

	// Radial fields. Center is field-local; positive Magnitude pulls toward it.
	Center    r3.Vec
	Magnitude float64

	// Zone fields.
	Points []Point

	// Gravity marks fields whose force is mass-proportional. The kernel
	// ignores it; consumers decide how to apply the force.
	Gravity bool
}

// Field is a live, editable force field. Edits are picked up by the next
// snapshot. All methods are safe for concurrent use.
type Field struct {
	mu  sync.RWMutex
	def Definition
}

// New creates a field from def. Slices are copied.
func New(def Definition) *Field {
	def.Colliders = slices.Clone(def.Colliders)
	def.Points = slices.Clone(def.Points)
	return &Field{def: def}
}

// Name returns the field name.
func (f *Field) Name() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.def.Name
}

// Kind returns the field kind.
func (f *Field) Kind() Kind {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.def.Kind
}

// Gravity reports whether the field's force is mass-proportional.
func (f *Field) Gravity() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.def.Gravity
}

// Transform returns the current world placement.
func (f *Field) Transform() geom.Transform {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.def.Transform
}

// Position returns the world position of the field origin.
func (f *Field) Position() r3.Vec {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.def.Transform.Position
}

// SetPosition moves the field.
func (f *Field) SetPosition(p r3.Vec) {
	f.mu.Lock()
	f.def.Transform.Position = p
	f.mu.Unlock()
}

// Translate moves the field by d.
func (f *Field) Translate(d r3.Vec) {
	f.mu.Lock()
	f.def.Transform.Position = r3.Add(f.def.Transform.Position, d)
	f.mu.Unlock()
}

// SetRotation changes the field orientation. Running schedulers do not
// detect rotation; call Invalidate on them afterwards.
func (f *Field) SetRotation(r r3.Rotation) {
	f.mu.Lock()
	f.def.Transform.Rotation = r
	f.mu.Unlock()
}

// SetColliders replaces the bounding shapes.
func (f *Field) SetColliders(cs []geom.Collider) {
	f.mu.Lock()
	f.def.Colliders = slices.Clone(cs)
	f.mu.Unlock()
}

// SetPoints replaces the zone force points.
func (f *Field) SetPoints(pts []Point) {
	f.mu.Lock()
	f.def.Points = slices.Clone(pts)
	f.mu.Unlock()
}

// SetMagnitude changes the radial pull.
func (f *Field) SetMagnitude(m float64) {
	f.mu.Lock()
	f.def.Magnitude = m
	f.mu.Unlock()
}

// Colliders returns a copy of the bounding shapes.
func (f *Field) Colliders() []geom.Collider {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.def.Colliders)
}

// Shapes builds world-space geometry descriptors from the current state.
func (f *Field) Shapes() (*geom.Set, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.def.Colliders) == 0 {
		return nil, &ConfigError{Field: f.def.Name, Err: ErrNoGeometry}
	}
	set, err := geom.BuildSet(f.def.Colliders, f.def.Transform)
	if err != nil {
		return nil, &ConfigError{Field: f.def.Name, Err: err}
	}
	return set, nil
}

// Generator builds a world-space generator descriptor from the current state.
func (f *Field) Generator() (Generator, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	xf := f.def.Transform
	switch f.def.Kind {
	case KindRadial:
		return RadialGenerator(xf.TransformPoint(f.def.Center), f.def.Magnitude), nil
	case KindZone:
		sources := make([]Source, len(f.def.Points))
		for i, p := range f.def.Points {
			sources[i] = NewSource(xf.TransformPoint(p.LocalPosition), xf.TransformDirection(p.Force))
		}
		return ZoneGenerator(sources), nil
	}
	return Generator{}, &ConfigError{Field: f.def.Name, Err: fmt.Errorf("%w: %v", ErrUnsupportedKind, f.def.Kind)}
}

// Snapshot captures geometry and generator together.
func (f *Field) Snapshot() (*Snapshot, error) {
	shapes, err := f.Shapes()
	if err != nil {
		return nil, err
	}
	gen, err := f.Generator()
	if err != nil {
		return nil, err
	}
	return &Snapshot{Shapes: shapes, Generator: gen}, nil
}
