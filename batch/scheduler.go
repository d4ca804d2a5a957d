package batch

import (
	"log/slog"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forcefield/field"
	"github.com/pthm-cable/forcefield/geom"
)

// State is the scheduler lifecycle state.
type State uint8

const (
	StateIdle    State = iota // No subscribers, no buffers, no workers
	StateRunning              // At least one subscriber
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// phase is the position in the running cycle.
type phase uint8

const (
	phaseThrottle phase = iota // Counting ticks since the last completion
	phaseAwait                 // A batch is in flight
)

// Options tunes a Scheduler.
type Options struct {
	// MinTicksBetweenBatches is the number of ticks to wait after a batch
	// completes before dispatching the next one.
	MinTicksBetweenBatches int
	// ParallelThreshold is the point count below which a batch runs inline
	// on the ticking goroutine.
	ParallelThreshold int
	// Workers is the worker pool size. 0 means GOMAXPROCS.
	Workers int

	Logger *slog.Logger
	// OnReport, if set, is called after every completed batch.
	OnReport func(Report)
}

// DefaultOptions returns the standard scheduler tuning.
func DefaultOptions() Options {
	return Options{
		MinTicksBetweenBatches: 10,
		ParallelThreshold:      64,
	}
}

// Report summarizes one completed batch.
type Report struct {
	Field       string
	Batch       uint64
	Subscribers int // Received results
	Skipped     int // Unregistered or invalid at completion
	Points      int
	Duration    time.Duration // Dispatch to completion
}

// Scheduler owns one field's subscribers and batch cycle. Call Tick once per
// frame from a single goroutine; Register and Unregister may be called from
// anywhere, including from OnForcesUpdated.
type Scheduler struct {
	field  *field.Field
	opts   Options
	logger *slog.Logger

	mu          sync.Mutex
	registry    *Registry
	state       State
	phase       phase
	ticksWaited int
	closed      bool

	buf      *Buffer
	pool     *workerPool
	inflight *job

	shapes    *geom.Set
	shapesAt  r3.Vec
	dirty     bool
	err       error
	errLogged bool
	batches   uint64
}

// NewScheduler creates an idle scheduler for f.
func NewScheduler(f *field.Field, opts Options) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MinTicksBetweenBatches < 0 {
		opts.MinTicksBetweenBatches = 0
	}
	return &Scheduler{
		field:    f,
		opts:     opts,
		logger:   logger,
		registry: NewRegistry(),
	}
}

// Field returns the field this scheduler evaluates.
func (s *Scheduler) Field() *field.Field {
	return s.field
}

// Register adds sub. The first subscriber starts the scheduler.
func (s *Scheduler) Register(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.registry.Register(sub) && s.state == StateIdle {
		s.startLocked()
	}
}

// Unregister removes sub. Removing the last subscriber waits for any
// in-flight batch and releases every buffer.
func (s *Scheduler) Unregister(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry.Unregister(sub) && s.state == StateRunning {
		s.stopLocked()
	}
}

// ResultsFor returns the last forces delivered to sub, or zeros.
func (s *Scheduler) ResultsFor(sub Subscriber) []r3.Vec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.ResultsFor(sub)
}

// Len returns the number of registered subscribers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Len()
}

// State returns the lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Allocated reports whether batch buffers or workers are held.
func (s *Scheduler) Allocated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf != nil || s.pool != nil
}

// Batches returns the number of batches dispatched so far.
func (s *Scheduler) Batches() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches
}

// Err returns the configuration error that is suppressing dispatch, if any.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Invalidate forces geometry to be rebuilt for the next batch. Use it after
// rotating the field or changing its colliders; plain translation is
// detected automatically.
func (s *Scheduler) Invalidate() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// Sample evaluates the field immediately, bypassing the batch cycle.
func (s *Scheduler) Sample(positions []r3.Vec) ([]r3.Vec, error) {
	return field.Sample(s.field, positions)
}

// Wait blocks until the in-flight batch, if any, has finished evaluating.
// Results are still delivered by the next Tick.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	j := s.inflight
	s.mu.Unlock()
	if j != nil {
		j.wait()
	}
}

// Close stops the scheduler and drops every subscriber. It is safe to call
// more than once.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.state == StateRunning {
		s.stopLocked()
	}
	s.registry.Clear()
}

// Tick advances the batch cycle by one frame: it delivers a finished batch,
// counts throttle ticks and dispatches the next batch when due.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}

	var deliveries []delivery
	var report *Report

	switch s.phase {
	case phaseAwait:
		if !s.inflight.isDone() {
			s.mu.Unlock()
			return
		}
		deliveries, report = s.completeLocked()
		s.phase = phaseThrottle
		s.ticksWaited = 0
	case phaseThrottle:
		s.ticksWaited++
	}

	if s.phase == phaseThrottle && s.ticksWaited >= s.opts.MinTicksBetweenBatches {
		s.dispatchLocked()
	}
	onReport := s.opts.OnReport
	s.mu.Unlock()

	for _, d := range deliveries {
		d.sub.OnForcesUpdated(d.forces)
	}
	if report != nil && onReport != nil {
		onReport(*report)
	}
}

func (s *Scheduler) startLocked() {
	s.state = StateRunning
	s.buf = newBuffer()
	s.pool = newWorkerPool(s.opts.Workers, s.opts.ParallelThreshold)
	s.dirty = true
	s.phase = phaseThrottle
	s.ticksWaited = s.opts.MinTicksBetweenBatches

	s.logger.Debug("scheduler_start", "field", s.field.Name())
}

func (s *Scheduler) stopLocked() {
	if s.inflight != nil {
		s.inflight.wait()
		s.inflight = nil
	}
	s.pool.stopWorkers()
	s.pool = nil
	s.buf.release()
	s.buf = nil
	s.shapes = nil
	s.state = StateIdle
	s.phase = phaseThrottle

	s.logger.Debug("scheduler_stop", "field", s.field.Name())
}

// snapshotLocked returns the state the next batch evaluates against.
// Geometry is reused unless the field moved or was invalidated; the
// generator is rebuilt every time to pick up edits.
func (s *Scheduler) snapshotLocked() (*field.Snapshot, error) {
	pos := s.field.Position()
	if s.shapes == nil || s.dirty || pos != s.shapesAt {
		shapes, err := s.field.Shapes()
		if err != nil {
			return nil, err
		}
		s.shapes = shapes
		s.shapesAt = pos
		s.dirty = false
	}

	gen, err := s.field.Generator()
	if err != nil {
		return nil, err
	}
	return &field.Snapshot{Shapes: s.shapes, Generator: gen}, nil
}

func (s *Scheduler) dispatchLocked() {
	snap, err := s.snapshotLocked()
	if err != nil {
		s.err = err
		if !s.errLogged {
			s.logger.Warn("field_config_error", "field", s.field.Name(), "err", err)
			s.errLogged = true
		}
		// Retry after another throttle period in case the field is fixed.
		s.ticksWaited = 0
		return
	}
	s.err = nil
	s.errLogged = false

	s.buf.flatten(s.registry.order)
	s.inflight = s.pool.dispatch(snap, s.buf.Positions, s.buf.Forces)
	s.phase = phaseAwait
	s.batches++
}

func (s *Scheduler) completeLocked() ([]delivery, *Report) {
	j := s.inflight
	s.inflight = nil

	deliveries, skipped := s.buf.unflatten(func(sl *slot) bool {
		return s.registry.live(sl) && isValid(sl.sub)
	})

	return deliveries, &Report{
		Field:       s.field.Name(),
		Batch:       s.batches,
		Subscribers: len(deliveries),
		Skipped:     skipped,
		Points:      len(j.positions),
		Duration:    j.elapsed,
	}
}
