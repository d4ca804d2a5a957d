package sim

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forcefield/components"
	"github.com/pthm-cable/forcefield/telemetry"
)

// spawnBody releases a new body at a random position inside the spawn cube.
func (s *Sim) spawnBody() ecs.Entity {
	sp := s.cfg.Spawn

	center := sp.Center.Vec()
	pos := components.Position{
		X: center.X + s.uniform(sp.HalfExtent),
		Y: center.Y + s.uniform(sp.HalfExtent),
		Z: center.Z + s.uniform(sp.HalfExtent),
	}
	vel := components.Velocity{
		X: s.uniform(sp.Speed),
		Y: s.uniform(sp.Speed),
		Z: s.uniform(sp.Speed),
	}

	s.nextID++
	body := components.Body{ID: s.nextID, Mass: sp.Mass, Drag: sp.Drag}

	points := components.ForcePoints{
		Local:   make([]r3.Vec, len(sp.Points)),
		MassPct: make([]float64, len(sp.Points)),
	}
	for i, p := range sp.Points {
		points.Local[i] = p.Offset.Vec()
		points.MassPct[i] = p.MassPct
	}
	force := components.Force{}

	e := s.bodyMapper.NewEntity(&pos, &vel, &body, &points, &force)

	for c := 0; c < min(sp.Colliders, points.Count()); c++ {
		s.colliders.Set(colliderKey{entity: e, index: c}, e)
	}
	return e
}

// uniform returns a value in [-h, h).
func (s *Sim) uniform(h float64) float64 {
	return (s.rng.Float64()*2 - 1) * h
}

// integrate applies the latest field results to every body and advances it
// by one step.
func (s *Sim) integrate(dt float64) {
	maxSpeed := s.cfg.Simulation.MaxSpeed

	query := s.bodyFilter.Query()
	for query.Next() {
		pos, vel, body, pts, force := query.Get()
		e := query.Entity()

		var accel r3.Vec
		for _, fs := range s.fields {
			p, ok := s.probes[probeKey{fs, e}]
			if !ok || len(p.forces) == 0 {
				continue
			}
			accel = r3.Add(accel, s.fieldAccel(fs, p.forces, pts, body.Mass))
		}
		force.X, force.Y, force.Z = accel.X, accel.Y, accel.Z

		v := r3.Add(vel.Vec(), r3.Scale(dt, accel))
		v = r3.Scale(math.Max(0, 1-body.Drag*dt), v)
		if maxSpeed > 0 {
			if speed := r3.Norm(v); speed > maxSpeed {
				v = r3.Scale(maxSpeed/speed, v)
			}
		}
		vel.Set(v)
		pos.Set(r3.Add(pos.Vec(), r3.Scale(dt, v)))
	}
}

// fieldAccel converts per-point field results into a body acceleration.
// Gravity fields accelerate every point alike and contribute the mean
// result; other fields push each point with a share of the body's mass.
func (s *Sim) fieldAccel(fs *fieldState, forces []r3.Vec, pts *components.ForcePoints, mass float64) r3.Vec {
	n := min(len(forces), pts.Count())
	if n == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	if fs.field.Gravity() {
		for i := 0; i < n; i++ {
			sum = r3.Add(sum, forces[i])
		}
		return r3.Scale(1/float64(n), sum)
	}
	for i := 0; i < n; i++ {
		sum = r3.Add(sum, r3.Scale(pts.MassPct[i]/100, forces[i]))
	}
	return r3.Scale(1/mass, sum)
}

// respawnEscaped replaces every body that left the world cube with a fresh
// one.
func (s *Sim) respawnEscaped() {
	lo, hi := s.cfg.Derived.WorldMin, s.cfg.Derived.WorldMax

	var escaped []ecs.Entity
	query := s.bodyFilter.Query()
	for query.Next() {
		p, _, _, _, _ := query.Get()
		if p.X < lo.X || p.Y < lo.Y || p.Z < lo.Z || p.X > hi.X || p.Y > hi.Y || p.Z > hi.Z {
			escaped = append(escaped, query.Entity())
		}
	}

	for _, e := range escaped {
		id := s.bodyID(e)
		s.tracker.RemoveEntity(e)
		s.forgetColliders(e)
		s.world.RemoveEntity(e)
		s.spawnBody()
		s.collector.Record(telemetry.NewRespawnEvent(s.tick, id))
	}
}
