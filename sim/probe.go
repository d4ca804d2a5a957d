package sim

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// probe samples one field at one body's force points. It is registered with
// the field's scheduler while the body overlaps the field.
type probe struct {
	sim    *Sim
	field  *fieldState
	entity ecs.Entity

	forces  []r3.Vec
	updates int
}

func (p *probe) SampleCount() int {
	if !p.sim.world.Alive(p.entity) {
		return 0
	}
	return p.sim.pointsMap.Get(p.entity).Count()
}

func (p *probe) AppendSamplePositions(dst []r3.Vec) []r3.Vec {
	if !p.sim.world.Alive(p.entity) {
		return dst
	}
	pos := p.sim.posMap.Get(p.entity).Vec()
	for _, local := range p.sim.pointsMap.Get(p.entity).Local {
		dst = append(dst, r3.Add(pos, local))
	}
	return dst
}

func (p *probe) OnForcesUpdated(forces []r3.Vec) {
	p.forces = forces
	p.updates++
}

// Valid reports whether the body still exists.
func (p *probe) Valid() bool {
	return p.sim.world.Alive(p.entity)
}

// probeKey identifies a probe by field and body.
type probeKey struct {
	field  *fieldState
	entity ecs.Entity
}
