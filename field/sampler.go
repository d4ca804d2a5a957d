package field

import (
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// sampleChunk is the number of positions one goroutine evaluates.
const sampleChunk = 1024

// Sample evaluates f at every position immediately and returns a result of
// the same length.
//
// Every call rebuilds geometry and generator snapshots and allocates the
// result, which makes it far more expensive per point than a batch
// scheduler. Do not call it from a per-frame loop.
func Sample(f *Field, positions []r3.Vec) ([]r3.Vec, error) {
	snap, err := f.Snapshot()
	if err != nil {
		return nil, err
	}
	return SampleSnapshot(snap, positions), nil
}

// SampleSnapshot runs the kernel over positions to completion.
func SampleSnapshot(snap *Snapshot, positions []r3.Vec) []r3.Vec {
	forces := make([]r3.Vec, len(positions))
	if len(positions) <= sampleChunk {
		snap.EvaluateInto(forces, positions)
		return forces
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < len(positions); start += sampleChunk {
		end := min(start+sampleChunk, len(positions))
		g.Go(func() error {
			snap.EvaluateInto(forces[start:end], positions[start:end])
			return nil
		})
	}
	_ = g.Wait() // workers never fail
	return forces
}
