// Package config provides configuration loading and access for the force
// field simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Simulation SimulationConfig `yaml:"simulation"`
	Spawn      SpawnConfig      `yaml:"spawn"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Sampling   SamplingConfig   `yaml:"sampling"`
	Logging    LoggingConfig    `yaml:"logging"`
	Fields     []FieldConfig    `yaml:"fields"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// Vec3 is an [x, y, z] triple in YAML.
type Vec3 [3]float64

// Vec converts to a gonum vector.
func (v Vec3) Vec() r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// SchedulerConfig tunes every batch scheduler.
type SchedulerConfig struct {
	MinTicksBetweenBatches int `yaml:"min_ticks_between_batches"` // Ticks to wait after a batch completes
	ParallelThreshold      int `yaml:"parallel_threshold"`        // Below this many points a batch runs inline
	Workers                int `yaml:"workers"`                   // Worker pool size, 0 = GOMAXPROCS
}

// SimulationConfig holds world and integration settings.
type SimulationConfig struct {
	DT              float64 `yaml:"dt"`                // Seconds per tick
	WorldHalfExtent float64 `yaml:"world_half_extent"` // Bodies leaving the cube [-h, h]^3 respawn
	MaxSpeed        float64 `yaml:"max_speed"`         // Velocity clamp, 0 = unlimited
	FieldDrift      bool    `yaml:"field_drift"`       // Move fields by their velocity each tick
	GridCellSize    float64 `yaml:"grid_cell_size"`    // Trigger broadphase cell edge
}

// SpawnConfig describes the bodies released into the world.
type SpawnConfig struct {
	Count      int                `yaml:"count"`
	Center     Vec3               `yaml:"center"`
	HalfExtent float64            `yaml:"half_extent"` // Spawn cube half size
	Speed      float64            `yaml:"speed"`       // Max initial speed per axis
	Mass       float64            `yaml:"mass"`
	Drag       float64            `yaml:"drag"`      // Linear drag per second
	Colliders  int                `yaml:"colliders"` // Trigger colliders per body, placed on the first points
	Points     []ForcePointConfig `yaml:"points"`
}

// ForcePointConfig is one sample point on a body.
type ForcePointConfig struct {
	Offset  Vec3    `yaml:"offset"`   // Body-local position
	MassPct float64 `yaml:"mass_pct"` // Share of body mass carried by this point, in percent
}

// TelemetryConfig holds telemetry settings.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"`          // Ticks per logged stats window
	PerfCollectorWindow int `yaml:"perf_collector_window"` // Ticks averaged by the perf collector
}

// SamplingConfig holds defaults for the field sampling tool.
type SamplingConfig struct {
	Divisions float64 `yaml:"divisions"` // Grid spacing = |bounds size| / divisions
}

// LoggingConfig controls log output of the simulation runner.
type LoggingConfig struct {
	File             string  `yaml:"file"`              // Rotated JSON log file, empty = stdout only
	MaxSizeMB        int     `yaml:"max_size_mb"`       // Rotate after this many megabytes
	MaxBackups       int     `yaml:"max_backups"`       // Rotated files kept
	MaxAgeDays       int     `yaml:"max_age_days"`      // Days rotated files are kept, 0 = forever
	Compress         bool    `yaml:"compress"`          // Gzip rotated files
	ProgressInterval float64 `yaml:"progress_interval"` // Seconds between progress lines, 0 = off
}

// FieldConfig describes one force field in the scene.
type FieldConfig struct {
	Name      string           `yaml:"name"`
	Kind      string           `yaml:"kind"` // zone | radial
	Position  Vec3             `yaml:"position"`
	Rotation  Vec3             `yaml:"rotation"` // Euler degrees
	Velocity  Vec3             `yaml:"velocity"` // Drift per second
	Gravity   bool             `yaml:"gravity"`
	Center    Vec3             `yaml:"center"`    // Radial, field-local
	Magnitude float64          `yaml:"magnitude"` // Radial
	Bounds    []ColliderConfig `yaml:"bounds"`
	Points    []PointConfig    `yaml:"points"` // Zone
}

// ColliderConfig is one bounding shape of a field.
type ColliderConfig struct {
	Shape    string  `yaml:"shape"` // sphere | box | capsule
	Offset   Vec3    `yaml:"offset"`
	Rotation Vec3    `yaml:"rotation"` // Euler degrees
	Radius   float64 `yaml:"radius"`
	Size     Vec3    `yaml:"size"` // Box full size
	Height   float64 `yaml:"height"`
	Axis     string  `yaml:"axis"` // x | y | z, default y
}

// PointConfig is one zone force point.
type PointConfig struct {
	Position Vec3 `yaml:"position"`
	Force    Vec3 `yaml:"force"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldMin     r3.Vec  // -WorldHalfExtent on every axis
	WorldMax     r3.Vec  // +WorldHalfExtent on every axis
	PointMassPct float64 // Sum of spawn point mass percentages
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := Merge(cfg, data); err != nil {
			return nil, err
		}
	}

	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge overlays YAML data onto cfg. Only fields present in data are
// overwritten; a fields list replaces the whole list.
func Merge(cfg *Config, data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	h := c.Simulation.WorldHalfExtent
	c.Derived.WorldMin = r3.Vec{X: -h, Y: -h, Z: -h}
	c.Derived.WorldMax = r3.Vec{X: h, Y: h, Z: h}

	// A body without explicit points samples at its centre.
	if len(c.Spawn.Points) == 0 {
		c.Spawn.Points = []ForcePointConfig{{MassPct: 100}}
	}
	c.Derived.PointMassPct = 0
	for _, p := range c.Spawn.Points {
		c.Derived.PointMassPct += p.MassPct
	}

	if c.Spawn.Colliders <= 0 {
		c.Spawn.Colliders = 1
	}
	for i := range c.Fields {
		f := &c.Fields[i]
		if f.Kind == "" {
			f.Kind = "zone"
		}
		for j := range f.Bounds {
			if f.Bounds[j].Axis == "" {
				f.Bounds[j].Axis = "y"
			}
		}
	}
}

// Validate reports settings the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Simulation.DT <= 0 {
		errs = append(errs, errors.New("simulation.dt must be positive"))
	}
	if c.Simulation.WorldHalfExtent <= 0 {
		errs = append(errs, errors.New("simulation.world_half_extent must be positive"))
	}
	if c.Simulation.GridCellSize <= 0 {
		errs = append(errs, errors.New("simulation.grid_cell_size must be positive"))
	}
	if c.Scheduler.MinTicksBetweenBatches < 0 {
		errs = append(errs, errors.New("scheduler.min_ticks_between_batches must not be negative"))
	}
	if c.Logging.ProgressInterval < 0 {
		errs = append(errs, errors.New("logging.progress_interval must not be negative"))
	}
	if c.Spawn.Mass <= 0 {
		errs = append(errs, errors.New("spawn.mass must be positive"))
	}

	seen := make(map[string]bool, len(c.Fields))
	for i, f := range c.Fields {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("fields[%d]: name is required", i))
		} else if seen[f.Name] {
			errs = append(errs, fmt.Errorf("fields[%d]: duplicate name %q", i, f.Name))
		}
		seen[f.Name] = true

		switch strings.ToLower(f.Kind) {
		case "zone", "radial", "sphere":
		default:
			errs = append(errs, fmt.Errorf("field %q: unknown kind %q", f.Name, f.Kind))
		}
		for j, b := range f.Bounds {
			switch strings.ToLower(b.Shape) {
			case "sphere", "box", "capsule":
			default:
				errs = append(errs, fmt.Errorf("field %q: bounds[%d]: unknown shape %q", f.Name, j, b.Shape))
			}
		}
	}
	return errors.Join(errs...)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
