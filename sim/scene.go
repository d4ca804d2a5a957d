package sim

import (
	"fmt"

	"github.com/pthm-cable/forcefield/config"
	"github.com/pthm-cable/forcefield/field"
	"github.com/pthm-cable/forcefield/geom"
)

// FieldDefinition converts a scene entry into a field definition.
func FieldDefinition(fc config.FieldConfig) (field.Definition, error) {
	kind, err := field.ParseKind(fc.Kind)
	if err != nil {
		return field.Definition{}, fmt.Errorf("field %q: %w", fc.Name, err)
	}

	colliders := make([]geom.Collider, 0, len(fc.Bounds))
	for i, b := range fc.Bounds {
		c, err := Collider(b)
		if err != nil {
			return field.Definition{}, fmt.Errorf("field %q: bounds[%d]: %w", fc.Name, i, err)
		}
		colliders = append(colliders, c)
	}

	points := make([]field.Point, len(fc.Points))
	for i, p := range fc.Points {
		points[i] = field.Point{LocalPosition: p.Position.Vec(), Force: p.Force.Vec()}
	}

	return field.Definition{
		Name: fc.Name,
		Kind: kind,
		Transform: geom.Transform{
			Position: fc.Position.Vec(),
			Rotation: geom.Euler(fc.Rotation[0], fc.Rotation[1], fc.Rotation[2]),
		},
		Colliders: colliders,
		Center:    fc.Center.Vec(),
		Magnitude: fc.Magnitude,
		Points:    points,
		Gravity:   fc.Gravity,
	}, nil
}

// Collider converts a bounds entry into a collider.
func Collider(b config.ColliderConfig) (geom.Collider, error) {
	kind, err := geom.ParseKind(b.Shape)
	if err != nil {
		return geom.Collider{}, err
	}
	axis, err := geom.ParseAxis(b.Axis)
	if err != nil {
		return geom.Collider{}, err
	}
	return geom.Collider{
		Kind:     kind,
		Offset:   b.Offset.Vec(),
		Rotation: geom.Euler(b.Rotation[0], b.Rotation[1], b.Rotation[2]),
		Radius:   b.Radius,
		Size:     b.Size.Vec(),
		Height:   b.Height,
		Axis:     axis,
	}, nil
}
