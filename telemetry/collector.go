package telemetry

import (
	"github.com/pthm-cable/forcefield/batch"
)

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	enters       int
	exits        int
	respawns     int
	batchPoints  int
	batchSkipped int
	batchUS      []float64
}

// NewCollector creates a new stats collector.
// windowTicks: how many ticks each stats window lasts
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowTicks int, dt float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowDurationTicks: int32(windowTicks),
		dt:                  dt,
	}
}

// Record counts an event.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventEnter:
		c.enters++
	case EventExit:
		c.exits++
	case EventRespawn:
		c.respawns++
	}
}

// RecordBatch records a completed batch.
func (c *Collector) RecordBatch(r batch.Report) {
	c.batchPoints += r.Points
	c.batchSkipped += r.Skipped
	c.batchUS = append(c.batchUS, float64(r.Duration.Nanoseconds())/1e3)
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// WorldState is the end-of-window snapshot supplied by the simulation.
type WorldState struct {
	Bodies           int
	BodiesInField    int
	ConfigErrors     int
	ActiveSchedulers int
	ForceMagnitudes  []float64
	Speeds           []float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, world WorldState) WindowStats {
	batchMean, batchStd := MeanStd(c.batchUS)
	forceMean, p10, p50, p90 := ComputeDistribution(world.ForceMagnitudes)
	speedMean, _ := MeanStd(world.Speeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Bodies:        world.Bodies,
		BodiesInField: world.BodiesInField,

		Enters:   c.enters,
		Exits:    c.exits,
		Respawns: c.respawns,

		Batches:        len(c.batchUS),
		BatchPoints:    c.batchPoints,
		BatchSkipped:   c.batchSkipped,
		BatchMeanUS:    batchMean,
		BatchStdUS:     batchStd,
		ConfigErrors:   world.ConfigErrors,
		ActiveSchedule: world.ActiveSchedulers,

		ForceMean: forceMean,
		ForceP10:  p10,
		ForceP50:  p50,
		ForceP90:  p90,
		SpeedMean: speedMean,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.enters = 0
	c.exits = 0
	c.respawns = 0
	c.batchPoints = 0
	c.batchSkipped = 0
	c.batchUS = c.batchUS[:0]

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
