package contact

import (
	"math"

	"github.com/san-kum/packsim/internal/geom"
	"github.com/san-kum/packsim/internal/grid"
	"gonum.org/v1/gonum/spatial/r2"
)

// Sphere k belongs to body k mod bodies, so two spheres share a body iff
// their indices are congruent modulo the body count.
func sameBody(p, q int32, bodies int32) bool {
	return (p-q)%bodies == 0
}

// DetectPairs scans every interior cell of a built grid against itself and
// its forward half stencil, inserting each touching pair from different
// bodies into dst. It returns the number of insert attempts; with a sound
// stencil this equals dst.Len().
func DetectPairs(g *grid.Grid, xs, ys []float64, bodies int, dst *PairStore) int {
	nb := int32(bodies)
	stencil := g.Stencil()
	attempts := 0

	try := func(p, q int32) {
		if sameBody(p, q, nb) {
			return
		}
		dx := xs[p] - xs[q]
		dy := ys[p] - ys[q]
		r2sq := dx*dx + dy*dy
		if r2sq < pairCutoffSq {
			attempts++
			dst.Insert(int(p), int(q), math.Sqrt(r2sq), r2.Vec{X: dx, Y: dy})
		}
	}

	for row := 1; row < g.Rows()-1; row++ {
		for col := 1; col < g.Cols()-1; col++ {
			idx := g.Index(col, row)
			cell := g.Cell(idx)
			if len(cell) == 0 {
				continue
			}
			for _, off := range stencil {
				other := g.Cell(idx + off)
				for _, p := range cell {
					for _, q := range other {
						try(p, q)
					}
				}
			}
			for a := 0; a < len(cell); a++ {
				for b := a + 1; b < len(cell); b++ {
					try(cell[a], cell[b])
				}
			}
		}
	}
	return attempts
}

// DetectWalls queries the wall gap of every sphere and records those
// closer than WallCutoff.
func DetectWalls(b geom.Reader, xs, ys []float64, dst *WallStore) {
	for k := range xs {
		h, n := b.Distance(r2.Vec{X: xs[k], Y: ys[k]})
		if h < WallCutoff {
			dst.Insert(k, h, n)
		}
	}
}

// BruteForcePairs is the O(n²) reference for DetectPairs.
func BruteForcePairs(xs, ys []float64, bodies int, dst *PairStore) {
	nb := int32(bodies)
	for i := 0; i < len(xs); i++ {
		for j := i + 1; j < len(xs); j++ {
			if sameBody(int32(i), int32(j), nb) {
				continue
			}
			dx := xs[i] - xs[j]
			dy := ys[i] - ys[j]
			r2sq := dx*dx + dy*dy
			if r2sq < pairCutoffSq {
				dst.Insert(i, j, math.Sqrt(r2sq), r2.Vec{X: dx, Y: dy})
			}
		}
	}
}
