package field

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forcefield/geom"
)

func gridPositions(n int, step float64) []r3.Vec {
	out := make([]r3.Vec, 0, n*n*n)
	half := float64(n) * step / 2
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				out = append(out, r3.Vec{
					X: float64(x)*step - half,
					Y: float64(y)*step - half,
					Z: float64(z)*step - half,
				})
			}
		}
	}
	return out
}

func zoneField() *Field {
	return New(Definition{
		Name: "zone",
		Kind: KindZone,
		Colliders: []geom.Collider{
			{Kind: geom.KindBox, Size: r3.Vec{X: 10, Y: 10, Z: 10}, Rotation: geom.Euler(0, 30, 0)},
			{Kind: geom.KindCapsule, Offset: r3.Vec{X: 8}, Height: 12, Radius: 2, Axis: geom.AxisY},
		},
		Points: []Point{
			{LocalPosition: r3.Vec{Y: 2}, Force: r3.Vec{Y: -9.8}},
			{LocalPosition: r3.Vec{X: 8}, Force: r3.Vec{X: 3, Y: 3}},
		},
	})
}

func TestSampleIdempotent(t *testing.T) {
	f := zoneField()
	positions := gridPositions(8, 2)

	first, err := Sample(f, positions)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Sample(f, positions)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(positions) {
		t.Fatalf("len = %d, want %d", len(first), len(positions))
	}
	if !slices.Equal(first, second) {
		t.Error("identical inputs produced different results")
	}
}

func TestSampleParallelMatchesSerial(t *testing.T) {
	f := zoneField()
	positions := gridPositions(14, 1.3) // > sampleChunk
	if len(positions) <= sampleChunk {
		t.Fatalf("test needs more than %d positions", sampleChunk)
	}

	got, err := Sample(f, positions)
	if err != nil {
		t.Fatal(err)
	}

	snap := mustSnapshot(t, f)
	want := make([]r3.Vec, len(positions))
	snap.EvaluateInto(want, positions)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parallel result differs from serial (-want +got):\n%s", diff)
	}
}

func TestSampleEmptyAndErrors(t *testing.T) {
	got, err := Sample(zoneField(), nil)
	if err != nil || len(got) != 0 {
		t.Errorf("empty input: %v, %v", got, err)
	}

	_, err = Sample(New(Definition{Name: "bare", Kind: KindZone}), []r3.Vec{{}})
	if !errors.Is(err, ErrNoGeometry) {
		t.Errorf("err = %v, want ErrNoGeometry", err)
	}
}
