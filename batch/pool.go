package batch

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forcefield/field"
)

// job is one dispatched batch. done is closed once every force is written.
type job struct {
	snap      *field.Snapshot
	positions []r3.Vec
	forces    []r3.Vec

	remaining atomic.Int32
	started   time.Time
	elapsed   time.Duration // valid after done is closed
	done      chan struct{}
}

func newJob(snap *field.Snapshot, positions, forces []r3.Vec) *job {
	return &job{
		snap:      snap,
		positions: positions,
		forces:    forces,
		started:   time.Now(),
		done:      make(chan struct{}),
	}
}

func (j *job) run(start, end int) {
	j.snap.EvaluateInto(j.forces[start:end], j.positions[start:end])
}

func (j *job) finish() {
	j.elapsed = time.Since(j.started)
	close(j.done)
}

// isDone polls without blocking.
func (j *job) isDone() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

func (j *job) wait() {
	<-j.done
}

// workChunk is a range of one job for a worker to evaluate.
type workChunk struct {
	job        *job
	start, end int
}

// workerPool is a set of persistent goroutines evaluating chunks. It lives
// as long as its scheduler is running.
type workerPool struct {
	numWorkers int
	threshold  int

	workChan chan workChunk
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newWorkerPool(workers, threshold int) *workerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &workerPool{numWorkers: workers, threshold: threshold}
}

// startWorkers launches the worker goroutines.
func (p *workerPool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them. The caller
// must have waited for the in-flight job first.
func (p *workerPool) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	p.running = false
}

func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.job.run(chunk.start, chunk.end)
			if chunk.job.remaining.Add(-1) == 0 {
				chunk.job.finish()
			}
		}
	}
}

// dispatch starts evaluating positions into forces and returns without
// waiting. Small batches run inline and come back already done. Only one job
// may be in flight at a time.
func (p *workerPool) dispatch(snap *field.Snapshot, positions, forces []r3.Vec) *job {
	j := newJob(snap, positions, forces)
	n := len(positions)

	if n == 0 || n < p.threshold {
		j.run(0, n)
		j.finish()
		return j
	}

	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	chunks := (n + chunkSize - 1) / chunkSize
	j.remaining.Store(int32(chunks))

	// At most numWorkers chunks, so the buffered channel never blocks.
	for start := 0; start < n; start += chunkSize {
		p.workChan <- workChunk{job: j, start: start, end: min(start+chunkSize, n)}
	}
	return j
}
