// Package sim runs a headless rigid-body simulation in which bodies drift
// through force fields. Each field is evaluated for the bodies overlapping it
// by its own batch scheduler.
package sim

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forcefield/batch"
	"github.com/pthm-cable/forcefield/components"
	"github.com/pthm-cable/forcefield/config"
	"github.com/pthm-cable/forcefield/field"
	"github.com/pthm-cable/forcefield/geom"
	"github.com/pthm-cable/forcefield/overlap"
	"github.com/pthm-cable/forcefield/telemetry"
)

// Options configures a simulation run.
type Options struct {
	Seed      uint64
	LogStats  bool   // Log window stats and perf via slog
	OutputDir string // CSV output directory, empty disables output
}

// fieldState is one field of the scene with its scheduler and trigger state.
type fieldState struct {
	field    *field.Field
	sched    *batch.Scheduler
	velocity r3.Vec

	// World-space shapes used for trigger detection, rebuilt when the field
	// moves.
	shapes   []geom.Shape
	shapesAt r3.Vec
	built    bool

	touching map[trigger]struct{}
}

// colliderKey identifies one trigger collider of a body.
type colliderKey struct {
	entity ecs.Entity
	index  int
}

// trigger is a (field shape, body collider) contact.
type trigger struct {
	shape    int
	collider colliderKey
}

// Sim holds the complete simulation state.
type Sim struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand

	bodyMapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Body,
		components.ForcePoints,
		components.Force,
	]
	bodyFilter *ecs.Filter5[
		components.Position,
		components.Velocity,
		components.Body,
		components.ForcePoints,
		components.Force,
	]

	posMap    *ecs.Map1[components.Position]
	bodyMap   *ecs.Map1[components.Body]
	pointsMap *ecs.Map1[components.ForcePoints]

	fields    []*fieldState
	probes    map[probeKey]*probe
	colliders *overlap.ColliderIndex[colliderKey, ecs.Entity]
	grid      *colliderGrid
	tracker   *overlap.Tracker[*fieldState, ecs.Entity]
	detector  *overlap.Detector[*fieldState, colliderKey, ecs.Entity]

	// Telemetry
	perfCollector *telemetry.PerfCollector
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	tick   int32
	nextID uint32
}

// New builds the scene from cfg and spawns the initial bodies.
func New(cfg *config.Config, opts Options) (*Sim, error) {
	world := ecs.NewWorld()

	s := &Sim{
		cfg:   cfg,
		world: world,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		bodyMapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Body,
			components.ForcePoints,
			components.Force,
		](world),
		bodyFilter: ecs.NewFilter5[
			components.Position,
			components.Velocity,
			components.Body,
			components.ForcePoints,
			components.Force,
		](world),
		posMap:    ecs.NewMap1[components.Position](world),
		bodyMap:   ecs.NewMap1[components.Body](world),
		pointsMap: ecs.NewMap1[components.ForcePoints](world),
		probes:    make(map[probeKey]*probe),
		colliders: overlap.NewColliderIndex[colliderKey, ecs.Entity](),
		grid:      newColliderGrid(cfg.Derived.WorldMin, cfg.Derived.WorldMax, cfg.Simulation.GridCellSize),

		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Simulation.DT),
		logStats:      opts.LogStats,
	}
	s.tracker = overlap.NewTracker(s.onFieldEnter, s.onFieldExit)
	s.detector = overlap.NewDetector(s.colliders, s.tracker)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	s.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	for _, fc := range cfg.Fields {
		def, err := FieldDefinition(fc)
		if err != nil {
			s.Unload()
			return nil, err
		}
		s.addField(field.New(def), fc.Velocity.Vec())
	}

	for i := 0; i < cfg.Spawn.Count; i++ {
		s.spawnBody()
	}

	return s, nil
}

func (s *Sim) addField(f *field.Field, velocity r3.Vec) *fieldState {
	opts := batch.Options{
		MinTicksBetweenBatches: s.cfg.Scheduler.MinTicksBetweenBatches,
		ParallelThreshold:      s.cfg.Scheduler.ParallelThreshold,
		Workers:                s.cfg.Scheduler.Workers,
		OnReport:               s.onBatchReport,
	}
	fs := &fieldState{
		field:    f,
		sched:    batch.NewScheduler(f, opts),
		velocity: velocity,
		touching: make(map[trigger]struct{}),
	}
	s.fields = append(s.fields, fs)
	return fs
}

// SetStatsCallback sets a function called with each flushed stats window.
func (s *Sim) SetStatsCallback(fn func(telemetry.WindowStats)) {
	s.statsCallback = fn
}

// Tick returns the number of completed steps.
func (s *Sim) Tick() int32 {
	return s.tick
}

// BodyCount returns the number of live bodies.
func (s *Sim) BodyCount() int {
	n := 0
	query := s.bodyFilter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Fields returns the scene's fields in config order.
func (s *Sim) Fields() []*field.Field {
	out := make([]*field.Field, len(s.fields))
	for i, fs := range s.fields {
		out[i] = fs.field
	}
	return out
}

// Scheduler returns the scheduler of the named field.
func (s *Sim) Scheduler(name string) (*batch.Scheduler, bool) {
	for _, fs := range s.fields {
		if fs.field.Name() == name {
			return fs.sched, true
		}
	}
	return nil, false
}

// Update runs a single simulation step.
func (s *Sim) Update() {
	dt := s.cfg.Simulation.DT

	s.perfCollector.StartTick()

	s.perfCollector.StartPhase(telemetry.PhaseDrift)
	s.driftFields(dt)

	s.perfCollector.StartPhase(telemetry.PhaseOverlap)
	s.detectOverlaps()

	s.perfCollector.StartPhase(telemetry.PhaseSchedule)
	for _, fs := range s.fields {
		fs.sched.Tick()
	}

	s.perfCollector.StartPhase(telemetry.PhaseIntegrate)
	s.integrate(dt)

	s.perfCollector.StartPhase(telemetry.PhaseRespawn)
	s.respawnEscaped()

	s.tick++

	s.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	s.flushTelemetry()

	s.perfCollector.EndTick()
}

// Unload stops every scheduler and closes output files.
func (s *Sim) Unload() {
	for _, fs := range s.fields {
		fs.sched.Close()
	}
	if err := s.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}

// driftFields moves every field by its velocity.
func (s *Sim) driftFields(dt float64) {
	if !s.cfg.Simulation.FieldDrift {
		return
	}
	for _, fs := range s.fields {
		if fs.velocity != (r3.Vec{}) {
			fs.field.Translate(r3.Scale(dt, fs.velocity))
		}
	}
}

func (s *Sim) onFieldEnter(fs *fieldState, e ecs.Entity) {
	p := &probe{sim: s, field: fs, entity: e}
	s.probes[probeKey{fs, e}] = p
	fs.sched.Register(p)
	s.collector.Record(telemetry.NewEnterEvent(s.tick, s.bodyID(e), fs.field.Name()))
}

func (s *Sim) onFieldExit(fs *fieldState, e ecs.Entity) {
	k := probeKey{fs, e}
	if p, ok := s.probes[k]; ok {
		fs.sched.Unregister(p)
		delete(s.probes, k)
	}
	s.collector.Record(telemetry.NewExitEvent(s.tick, s.bodyID(e), fs.field.Name()))
}

func (s *Sim) onBatchReport(r batch.Report) {
	s.collector.RecordBatch(r)
	if err := s.outputManager.WriteBatch(telemetry.NewBatchRecord(s.tick, r)); err != nil {
		slog.Error("failed to write batch", "error", err)
	}
}

func (s *Sim) bodyID(e ecs.Entity) uint32 {
	if !s.world.Alive(e) {
		return 0
	}
	return s.bodyMap.Get(e).ID
}
