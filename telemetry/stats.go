package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Bodies at window end
	Bodies        int `csv:"bodies"`
	BodiesInField int `csv:"bodies_in_field"`

	// Field membership events during window
	Enters   int `csv:"enters"`
	Exits    int `csv:"exits"`
	Respawns int `csv:"respawns"`

	// Batches completed during window
	Batches        int     `csv:"batches"`
	BatchPoints    int     `csv:"batch_points"`
	BatchSkipped   int     `csv:"batch_skipped"`
	BatchMeanUS    float64 `csv:"batch_mean_us"`
	BatchStdUS     float64 `csv:"batch_std_us"`
	ConfigErrors   int     `csv:"config_errors"`
	ActiveSchedule int     `csv:"active_schedulers"`

	// Net force magnitude on bodies (sampled at window end)
	ForceMean float64 `csv:"force_mean"`
	ForceP10  float64 `csv:"force_p10"`
	ForceP50  float64 `csv:"force_p50"`
	ForceP90  float64 `csv:"force_p90"`

	SpeedMean float64 `csv:"speed_mean"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean and percentiles of values.
func ComputeDistribution(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// MeanStd returns the mean and sample standard deviation of values. A single
// value has zero deviation.
func MeanStd(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("bodies", s.Bodies),
		slog.Int("bodies_in_field", s.BodiesInField),
		slog.Int("enters", s.Enters),
		slog.Int("exits", s.Exits),
		slog.Int("respawns", s.Respawns),
		slog.Int("batches", s.Batches),
		slog.Int("batch_points", s.BatchPoints),
		slog.Int("batch_skipped", s.BatchSkipped),
		slog.Float64("batch_mean_us", s.BatchMeanUS),
		slog.Float64("batch_std_us", s.BatchStdUS),
		slog.Int("config_errors", s.ConfigErrors),
		slog.Int("active_schedulers", s.ActiveSchedule),
		slog.Float64("force_mean", s.ForceMean),
		slog.Float64("force_p10", s.ForceP10),
		slog.Float64("force_p50", s.ForceP50),
		slog.Float64("force_p90", s.ForceP90),
		slog.Float64("speed_mean", s.SpeedMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"bodies", s.Bodies,
		"bodies_in_field", s.BodiesInField,
		"enters", s.Enters,
		"exits", s.Exits,
		"respawns", s.Respawns,
		"batches", s.Batches,
		"batch_points", s.BatchPoints,
		"batch_skipped", s.BatchSkipped,
		"batch_mean_us", s.BatchMeanUS,
		"batch_std_us", s.BatchStdUS,
		"config_errors", s.ConfigErrors,
		"active_schedulers", s.ActiveSchedule,
		"force_mean", s.ForceMean,
		"force_p50", s.ForceP50,
		"speed_mean", s.SpeedMean,
	)
}
