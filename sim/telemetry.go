package sim

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forcefield/batch"
	"github.com/pthm-cable/forcefield/telemetry"
)

// flushTelemetry closes the stats window when it is due.
func (s *Sim) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	stats := s.collector.Flush(s.tick, s.worldState())
	perfStats := s.perfCollector.Stats()

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	if err := s.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := s.outputManager.WritePerf(perfStats, s.tick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	if s.statsCallback != nil {
		s.statsCallback(stats)
	}
}

// worldState gathers the end-of-window snapshot for the collector.
func (s *Sim) worldState() telemetry.WorldState {
	var ws telemetry.WorldState

	inField := make(map[ecs.Entity]struct{}, len(s.probes))
	for k := range s.probes {
		inField[k.entity] = struct{}{}
	}
	ws.BodiesInField = len(inField)

	for _, fs := range s.fields {
		if fs.sched.Err() != nil {
			ws.ConfigErrors++
		}
		if fs.sched.State() == batch.StateRunning {
			ws.ActiveSchedulers++
		}
	}

	query := s.bodyFilter.Query()
	for query.Next() {
		_, vel, _, _, force := query.Get()
		ws.Bodies++
		ws.Speeds = append(ws.Speeds, r3.Norm(vel.Vec()))
		ws.ForceMagnitudes = append(ws.ForceMagnitudes, r3.Norm(force.Vec()))
	}
	return ws
}
