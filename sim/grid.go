package sim

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forcefield/geom"
)

// gridEntry is a body collider placed in the grid.
type gridEntry struct {
	key colliderKey
	pos r3.Vec
}

// colliderGrid is a uniform cell grid over the world cube used as the
// broadphase for trigger detection. Positions outside the cube land in the
// nearest edge cell.
type colliderGrid struct {
	cellSize float64
	origin   r3.Vec
	n        int           // cells per axis
	cells    [][]gridEntry // flat n*n*n grid
}

func newColliderGrid(lo, hi r3.Vec, cellSize float64) *colliderGrid {
	size := r3.Sub(hi, lo)
	extent := size.X
	if size.Y > extent {
		extent = size.Y
	}
	if size.Z > extent {
		extent = size.Z
	}
	n := int(extent/cellSize) + 1

	cells := make([][]gridEntry, n*n*n)
	for i := range cells {
		cells[i] = make([]gridEntry, 0, 4)
	}
	return &colliderGrid{cellSize: cellSize, origin: lo, n: n, cells: cells}
}

// Clear removes all entries.
func (g *colliderGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds a collider at p.
func (g *colliderGrid) Insert(key colliderKey, p r3.Vec) {
	x, y, z := g.cell(p)
	idx := g.index(x, y, z)
	g.cells[idx] = append(g.cells[idx], gridEntry{key: key, pos: p})
}

// QueryInto appends every entry in the cells overlapping box to dst.
// Candidates may lie outside box.
func (g *colliderGrid) QueryInto(dst []gridEntry, box geom.AABB) []gridEntry {
	x0, y0, z0 := g.cell(box.Min)
	x1, y1, z1 := g.cell(box.Max)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				dst = append(dst, g.cells[g.index(x, y, z)]...)
			}
		}
	}
	return dst
}

func (g *colliderGrid) cell(p r3.Vec) (x, y, z int) {
	return g.clamp((p.X - g.origin.X) / g.cellSize),
		g.clamp((p.Y - g.origin.Y) / g.cellSize),
		g.clamp((p.Z - g.origin.Z) / g.cellSize)
}

func (g *colliderGrid) clamp(v float64) int {
	switch {
	case !(v >= 0): // negative or NaN
		return 0
	case v >= float64(g.n):
		return g.n - 1
	}
	return int(v)
}

func (g *colliderGrid) index(x, y, z int) int {
	return (z*g.n+y)*g.n + x
}
