package sim

import (
	"testing"

	"go.uber.org/goleak"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forcefield/config"
	"github.com/pthm-cable/forcefield/telemetry"
)

// testConfig returns the default config with a single planet field that
// covers the spawn cube.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.Scheduler.MinTicksBetweenBatches = 0
	cfg.Scheduler.Workers = 2
	cfg.Simulation.FieldDrift = false
	cfg.Spawn.Count = 12
	cfg.Spawn.Center = config.Vec3{0, 0, 0}
	cfg.Spawn.HalfExtent = 5
	cfg.Spawn.Speed = 0
	cfg.Telemetry.StatsWindow = 5
	cfg.Fields = []config.FieldConfig{{
		Name:      "planet",
		Kind:      "radial",
		Gravity:   true,
		Magnitude: 9.8,
		Bounds:    []config.ColliderConfig{{Shape: "sphere", Radius: 20, Axis: "y"}},
	}}
	return cfg
}

func newTestSim(t *testing.T, cfg *config.Config) *Sim {
	t.Helper()
	s, err := New(cfg, Options{Seed: 7})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestSimRegistersOverlappingBodies(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t)
	s := newTestSim(t, cfg)
	defer s.Unload()

	s.Update()

	sched, ok := s.Scheduler("planet")
	if !ok {
		t.Fatal("Scheduler(planet) not found")
	}
	if got := sched.Len(); got != cfg.Spawn.Count {
		t.Errorf("registered = %d, want %d", got, cfg.Spawn.Count)
	}
	if got := len(s.probes); got != cfg.Spawn.Count {
		t.Errorf("probes = %d, want %d", got, cfg.Spawn.Count)
	}
}

func TestSimAppliesFieldForces(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t)
	cfg.Spawn.Points = []config.ForcePointConfig{{MassPct: 100}}
	s := newTestSim(t, cfg)
	defer s.Unload()

	for i := 0; i < 10; i++ {
		s.Update()
	}

	delivered := 0
	for _, p := range s.probes {
		if p.updates > 0 {
			delivered++
		}
	}
	if delivered != len(s.probes) {
		t.Errorf("probes with results = %d, want %d", delivered, len(s.probes))
	}

	// The planet pulls every body toward its centre at the origin.
	query := s.bodyFilter.Query()
	for query.Next() {
		pos, _, _, _, force := query.Get()
		f := force.Vec()
		if r3.Norm(f) == 0 {
			t.Errorf("body at %v has no force", pos.Vec())
			continue
		}
		if r3.Dot(f, pos.Vec()) >= 0 {
			t.Errorf("force %v at %v does not point toward the centre", f, pos.Vec())
		}
	}
}

func TestSimExitUnregisters(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t)
	s := newTestSim(t, cfg)
	defer s.Unload()

	s.Update()
	s.Fields()[0].SetPosition(r3.Vec{X: 60})
	s.Update()

	sched, _ := s.Scheduler("planet")
	if got := sched.Len(); got != 0 {
		t.Errorf("registered after field moved away = %d, want 0", got)
	}
	if got := len(s.probes); got != 0 {
		t.Errorf("probes = %d, want 0", got)
	}
	if got := s.tracker.Len(); got != 0 {
		t.Errorf("tracked pairs = %d, want 0", got)
	}
}

func TestSimRespawnsEscapedBodies(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t)
	cfg.Fields = nil
	cfg.Spawn.Speed = 30
	cfg.Simulation.MaxSpeed = 0
	cfg.Simulation.WorldHalfExtent = 6
	cfg.Derived.WorldMin = r3.Vec{X: -6, Y: -6, Z: -6}
	cfg.Derived.WorldMax = r3.Vec{X: 6, Y: 6, Z: 6}

	s := newTestSim(t, cfg)
	defer s.Unload()

	respawns := 0
	s.SetStatsCallback(func(ws telemetry.WindowStats) { respawns += ws.Respawns })

	for i := 0; i < 60; i++ {
		s.Update()
	}

	if got := s.BodyCount(); got != cfg.Spawn.Count {
		t.Errorf("BodyCount() = %d, want %d", got, cfg.Spawn.Count)
	}
	if respawns == 0 {
		t.Error("no respawns recorded")
	}
	if int(s.nextID) != cfg.Spawn.Count+respawns {
		t.Errorf("nextID = %d, want %d", s.nextID, cfg.Spawn.Count+respawns)
	}
	if got := s.colliders.Len(); got != cfg.Spawn.Count*cfg.Spawn.Colliders {
		t.Errorf("indexed colliders = %d, want %d", got, cfg.Spawn.Count*cfg.Spawn.Colliders)
	}
}

func TestSimStatsWindow(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(t)
	s := newTestSim(t, cfg)
	defer s.Unload()

	var windows []telemetry.WindowStats
	s.SetStatsCallback(func(ws telemetry.WindowStats) { windows = append(windows, ws) })

	for i := 0; i < 10; i++ {
		s.Update()
	}

	if len(windows) != 2 {
		t.Fatalf("windows = %d, want 2", len(windows))
	}
	first := windows[0]
	if first.Bodies != cfg.Spawn.Count {
		t.Errorf("Bodies = %d, want %d", first.Bodies, cfg.Spawn.Count)
	}
	if first.BodiesInField != cfg.Spawn.Count {
		t.Errorf("BodiesInField = %d, want %d", first.BodiesInField, cfg.Spawn.Count)
	}
	if first.Enters != cfg.Spawn.Count {
		t.Errorf("Enters = %d, want %d", first.Enters, cfg.Spawn.Count)
	}
	if first.Batches == 0 {
		t.Error("no batches recorded")
	}
	if first.ActiveSchedule != 1 {
		t.Errorf("ActiveSchedule = %d, want 1", first.ActiveSchedule)
	}
}

func TestNewRejectsBadField(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fields[0].Bounds[0].Shape = "torus"

	if _, err := New(cfg, Options{}); err == nil {
		t.Fatal("New() accepted an unknown bounds shape")
	}
}
