package telemetry

import (
	"log/slog"
	"time"
)

// Phase is one timed section of a simulation step.
type Phase uint8

// Phases in step order.
const (
	PhaseDrift Phase = iota
	PhaseOverlap
	PhaseSchedule
	PhaseIntegrate
	PhaseRespawn
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{"drift", "overlap", "schedule", "integrate", "respawn", "telemetry"}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// tickTiming is the measured time of one step.
type tickTiming struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector times step phases over a rolling window of ticks. Phases
// run back to back: starting one ends the previous.
type PerfCollector struct {
	ring  []tickTiming
	next  int
	count int

	cur        tickTiming
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
}

// NewPerfCollector creates a collector averaging over window ticks.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]tickTiming, window)}
}

// StartTick begins timing a new step.
func (p *PerfCollector) StartTick() {
	p.cur = tickTiming{}
	p.tickStart = time.Now()
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and opens ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = ph
	p.phaseStart = now
	p.inPhase = true
}

// EndTick closes the step and stores it in the window.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.count = min(p.count+1, len(p.ring))
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase < numPhases {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// PerfStats summarizes the window.
type PerfStats struct {
	AvgTick        time.Duration
	MinTick        time.Duration
	MaxTick        time.Duration
	PhaseAvg       [numPhases]time.Duration
	TicksPerSecond float64
}

// PhasePct returns ph's share of the average step in percent.
func (s PerfStats) PhasePct(ph Phase) float64 {
	if s.AvgTick <= 0 || ph >= numPhases {
		return 0
	}
	return float64(s.PhaseAvg[ph]) / float64(s.AvgTick) * 100
}

// Stats aggregates the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats
	if p.count == 0 {
		return s
	}

	var total time.Duration
	var phaseSum [numPhases]time.Duration
	for i, t := range p.ring[:p.count] {
		total += t.total
		if i == 0 || t.total < s.MinTick {
			s.MinTick = t.total
		}
		s.MaxTick = max(s.MaxTick, t.total)
		for ph, d := range t.phases {
			phaseSum[ph] += d
		}
	}

	n := time.Duration(p.count)
	s.AvgTick = total / n
	for ph := range phaseSum {
		s.PhaseAvg[ph] = phaseSum[ph] / n
	}
	if s.AvgTick > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTick)
	}
	return s
}

// LogStats logs the window with phase shares above 0.1%.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTick.Microseconds(),
		"max_tick_us", s.MaxTick.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if pct := s.PhasePct(ph); pct > 0.1 {
			attrs = append(attrs, ph.String()+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// PerfRecord is one perf.csv row.
type PerfRecord struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	DriftPct     float64 `csv:"drift_pct"`
	OverlapPct   float64 `csv:"overlap_pct"`
	SchedulePct  float64 `csv:"schedule_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	RespawnPct   float64 `csv:"respawn_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// Record flattens the stats into a CSV row.
func (s PerfStats) Record(windowEnd int32) PerfRecord {
	return PerfRecord{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTick.Microseconds(),
		MinTickUS:    s.MinTick.Microseconds(),
		MaxTickUS:    s.MaxTick.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		DriftPct:     s.PhasePct(PhaseDrift),
		OverlapPct:   s.PhasePct(PhaseOverlap),
		SchedulePct:  s.PhasePct(PhaseSchedule),
		IntegratePct: s.PhasePct(PhaseIntegrate),
		RespawnPct:   s.PhasePct(PhaseRespawn),
		TelemetryPct: s.PhasePct(PhaseTelemetry),
	}
}
