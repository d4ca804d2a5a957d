package telemetry

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// push stores a finished tick without timing it.
func (p *PerfCollector) push(total time.Duration, phases map[Phase]time.Duration) {
	t := tickTiming{total: total}
	for ph, d := range phases {
		t.phases[ph] = d
	}
	p.ring[p.next] = t
	p.next = (p.next + 1) % len(p.ring)
	p.count = min(p.count+1, len(p.ring))
}

func TestPerfCollectorTimesPhases(t *testing.T) {
	pc := NewPerfCollector(10)
	for i := 0; i < 3; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseOverlap)
		time.Sleep(200 * time.Microsecond)
		pc.StartPhase(PhaseIntegrate)
		time.Sleep(400 * time.Microsecond)
		pc.EndTick()
	}

	s := pc.Stats()
	if s.AvgTick <= 0 || s.TicksPerSecond <= 0 {
		t.Fatalf("no timing recorded: %+v", s)
	}
	if s.PhaseAvg[PhaseOverlap] <= 0 || s.PhaseAvg[PhaseIntegrate] <= 0 {
		t.Errorf("phase averages = %v", s.PhaseAvg)
	}
	if s.PhaseAvg[PhaseDrift] != 0 {
		t.Errorf("drift was never started but has %v", s.PhaseAvg[PhaseDrift])
	}
	if sum := s.PhaseAvg[PhaseOverlap] + s.PhaseAvg[PhaseIntegrate]; sum > s.AvgTick {
		t.Errorf("phases sum to %v, more than the tick %v", sum, s.AvgTick)
	}
}

func TestPerfCollectorWindow(t *testing.T) {
	tests := []struct {
		name   string
		window int
		ticks  []time.Duration
		want   [3]time.Duration // avg, min, max
	}{
		{"partial", 4, []time.Duration{10, 30}, [3]time.Duration{20, 10, 30}},
		{"full", 3, []time.Duration{10, 20, 30}, [3]time.Duration{20, 10, 30}},
		{"evicts oldest", 2, []time.Duration{1000, 10, 30}, [3]time.Duration{20, 10, 30}},
		{"default window", 0, []time.Duration{40}, [3]time.Duration{40, 40, 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := NewPerfCollector(tt.window)
			for _, d := range tt.ticks {
				pc.push(d*time.Microsecond, nil)
			}
			s := pc.Stats()
			got := [3]time.Duration{s.AvgTick, s.MinTick, s.MaxTick}
			for i := range tt.want {
				tt.want[i] *= time.Microsecond
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("avg/min/max mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPerfStatsPhasePct(t *testing.T) {
	pc := NewPerfCollector(8)
	pc.push(100*time.Microsecond, map[Phase]time.Duration{
		PhaseSchedule:  75 * time.Microsecond,
		PhaseIntegrate: 25 * time.Microsecond,
	})
	s := pc.Stats()

	if got := s.PhasePct(PhaseSchedule); got != 75 {
		t.Errorf("schedule pct = %v, want 75", got)
	}
	if got := s.PhasePct(PhaseIntegrate); got != 25 {
		t.Errorf("integrate pct = %v, want 25", got)
	}
	if got := s.PhasePct(numPhases); got != 0 {
		t.Errorf("out-of-range phase pct = %v", got)
	}
	if s.TicksPerSecond != 10000 {
		t.Errorf("TicksPerSecond = %v, want 10000", s.TicksPerSecond)
	}
}

func TestPerfStatsEmpty(t *testing.T) {
	s := NewPerfCollector(10).Stats()
	if s != (PerfStats{}) {
		t.Errorf("empty collector stats = %+v", s)
	}
	if s.PhasePct(PhaseDrift) != 0 {
		t.Error("empty stats report a phase share")
	}
	s.LogStats()
}

func TestPerfStatsRecord(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.push(200*time.Microsecond, map[Phase]time.Duration{
		PhaseDrift:     20 * time.Microsecond,
		PhaseOverlap:   40 * time.Microsecond,
		PhaseTelemetry: 10 * time.Microsecond,
	})

	want := PerfRecord{
		WindowEnd:    120,
		AvgTickUS:    200,
		MinTickUS:    200,
		MaxTickUS:    200,
		TicksPerSec:  5000,
		DriftPct:     10,
		OverlapPct:   20,
		TelemetryPct: 5,
	}
	if diff := cmp.Diff(want, pc.Stats().Record(120)); diff != "" {
		t.Errorf("Record mismatch (-want +got):\n%s", diff)
	}
}

func TestPhaseString(t *testing.T) {
	for ph, want := range map[Phase]string{
		PhaseDrift:     "drift",
		PhaseRespawn:   "respawn",
		PhaseTelemetry: "telemetry",
		numPhases:      "unknown",
	} {
		if got := ph.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", ph, got, want)
		}
	}
}
