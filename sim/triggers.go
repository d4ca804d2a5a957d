package sim

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// detectOverlaps tests every body collider against every field shape and
// turns the differences from last tick into trigger enter and exit events.
func (s *Sim) detectOverlaps() {
	for _, fs := range s.fields {
		s.refreshShapes(fs)
	}

	current := make([]map[trigger]struct{}, len(s.fields))
	for i := range current {
		current[i] = make(map[trigger]struct{}, len(s.fields[i].touching))
	}

	s.grid.Clear()
	colliders := s.cfg.Spawn.Colliders
	query := s.bodyFilter.Query()
	for query.Next() {
		pos, _, _, pts, _ := query.Get()
		e := query.Entity()
		origin := pos.Vec()
		n := min(colliders, pts.Count())
		for c := 0; c < n; c++ {
			s.grid.Insert(colliderKey{entity: e, index: c}, r3.Add(origin, pts.Local[c]))
		}
	}

	var candidates []gridEntry
	for fi, fs := range s.fields {
		for si, shape := range fs.shapes {
			candidates = s.grid.QueryInto(candidates[:0], shape.Bounds())
			for _, c := range candidates {
				if shape.Contains(c.pos) {
					current[fi][trigger{shape: si, collider: c.key}] = struct{}{}
				}
			}
		}
	}

	// Enters go first so a collider crossing between two shapes of one field
	// never drops the body's count to zero.
	for fi, fs := range s.fields {
		for t := range current[fi] {
			if _, ok := fs.touching[t]; !ok {
				s.detector.TriggerEnter(fs, t.collider)
			}
		}
		for t := range fs.touching {
			if _, ok := current[fi][t]; !ok {
				s.detector.TriggerExit(fs, t.collider)
			}
		}
		fs.touching = current[fi]
	}
}

// refreshShapes rebuilds a field's trigger geometry after it moved. A field
// whose geometry cannot be built has no triggers.
func (s *Sim) refreshShapes(fs *fieldState) {
	pos := fs.field.Position()
	if fs.built && pos == fs.shapesAt {
		return
	}
	first := !fs.built
	fs.built = true
	fs.shapesAt = pos
	set, err := fs.field.Shapes()
	if err != nil {
		if first || fs.shapes != nil {
			slog.Warn("field_triggers_disabled", "field", fs.field.Name(), "error", err)
		}
		fs.shapes = nil
		return
	}
	fs.shapes = set.Shapes()
}

// forgetColliders drops every trigger contact of an entity without firing
// events.
func (s *Sim) forgetColliders(e ecs.Entity) {
	for _, fs := range s.fields {
		for t := range fs.touching {
			if t.collider.entity == e {
				delete(fs.touching, t)
			}
		}
	}
	s.colliders.RemoveEntity(e)
}
