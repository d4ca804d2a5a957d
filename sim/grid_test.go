package sim

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forcefield/geom"
)

func TestColliderGridQuery(t *testing.T) {
	g := newColliderGrid(r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 10, Y: 10, Z: 10}, 5)

	near := colliderKey{index: 0}
	far := colliderKey{index: 1}
	g.Insert(near, r3.Vec{X: 1, Y: 1, Z: 1})
	g.Insert(far, r3.Vec{X: -9, Y: -9, Z: -9})

	got := g.QueryInto(nil, geom.AABB{Min: r3.Vec{}, Max: r3.Vec{X: 2, Y: 2, Z: 2}})
	if len(got) != 1 || got[0].key != near {
		t.Fatalf("QueryInto() = %v, want only the near collider", got)
	}

	g.Clear()
	if got := g.QueryInto(nil, geom.AABB{Min: r3.Vec{X: -10, Y: -10, Z: -10}, Max: r3.Vec{X: 10, Y: 10, Z: 10}}); len(got) != 0 {
		t.Errorf("after Clear() query returned %d entries", len(got))
	}
}

func TestColliderGridClampsOutsidePoints(t *testing.T) {
	g := newColliderGrid(r3.Vec{X: -10, Y: -10, Z: -10}, r3.Vec{X: 10, Y: 10, Z: 10}, 5)

	tests := []struct {
		name string
		pos  r3.Vec
	}{
		{"beyond max", r3.Vec{X: 50, Y: 50, Z: 50}},
		{"beyond min", r3.Vec{X: -50, Y: -50, Z: -50}},
		{"nan", r3.Vec{X: math.NaN()}},
		{"inf", r3.Vec{X: math.Inf(1), Y: math.Inf(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Clear()
			g.Insert(colliderKey{}, tt.pos)
			if got := g.QueryInto(nil, geom.AABB{Min: tt.pos, Max: tt.pos}); len(got) != 1 {
				t.Errorf("QueryInto() at %v = %d entries, want 1", tt.pos, len(got))
			}
		})
	}
}
