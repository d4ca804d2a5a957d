package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/forcefield/batch"
	"github.com/pthm-cable/forcefield/config"
)

// csvLog appends rows of T to one CSV file, writing the header with the
// first row.
type csvLog[T any] struct {
	name   string
	f      *os.File
	header bool
}

func createCSVLog[T any](dir, name string) (*csvLog[T], error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvLog[T]{name: name, f: f}, nil
}

func (l *csvLog[T]) append(row T) error {
	rows := []T{row}
	var err error
	if l.header {
		err = gocsv.MarshalWithoutHeaders(rows, l.f)
	} else {
		err = gocsv.Marshal(rows, l.f)
		l.header = err == nil
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", l.name, err)
	}
	return nil
}

func (l *csvLog[T]) close() error {
	if l == nil {
		return nil
	}
	return l.f.Close()
}

// OutputManager writes a run's CSV logs and config snapshot into one
// directory. A nil manager discards everything.
type OutputManager struct {
	dir       string
	telemetry *csvLog[WindowStats]
	perf      *csvLog[PerfRecord]
	batches   *csvLog[BatchRecord]
}

// NewOutputManager creates dir and its CSV files. It returns nil when dir
// is empty.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	var err error
	if om.telemetry, err = createCSVLog[WindowStats](dir, "telemetry.csv"); err != nil {
		return nil, err
	}
	if om.perf, err = createCSVLog[PerfRecord](dir, "perf.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.batches, err = createCSVLog[BatchRecord](dir, "batches.csv"); err != nil {
		om.Close()
		return nil, err
	}
	return om, nil
}

// WriteConfig saves cfg as config.yaml.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry appends a window to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.telemetry.append(stats)
}

// WritePerf appends the perf window ending at windowEnd to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	return om.perf.append(stats.Record(windowEnd))
}

// BatchRecord is one completed batch as written to batches.csv.
type BatchRecord struct {
	Tick        int32  `csv:"tick"`
	Field       string `csv:"field"`
	Batch       uint64 `csv:"batch"`
	Subscribers int    `csv:"subscribers"`
	Skipped     int    `csv:"skipped"`
	Points      int    `csv:"points"`
	DurationUS  int64  `csv:"duration_us"`
}

// NewBatchRecord flattens a batch report for CSV export.
func NewBatchRecord(tick int32, r batch.Report) BatchRecord {
	return BatchRecord{
		Tick:        tick,
		Field:       r.Field,
		Batch:       r.Batch,
		Subscribers: r.Subscribers,
		Skipped:     r.Skipped,
		Points:      r.Points,
		DurationUS:  r.Duration.Microseconds(),
	}
}

// WriteBatch appends rec to batches.csv.
func (om *OutputManager) WriteBatch(rec BatchRecord) error {
	if om == nil {
		return nil
	}
	return om.batches.append(rec)
}

// Dir returns the output directory, or "" when output is disabled.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes every open file.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return errors.Join(om.telemetry.close(), om.perf.close(), om.batches.close())
}
