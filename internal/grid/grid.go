// Package grid buckets sub-sphere centres into uniform square cells so that
// contact detection only has to look at neighbouring cells.
package grid

import (
	"errors"
	"fmt"
	"math"
)

// CellSize is twice the unit interaction radius.
const CellSize = 2.0

var (
	// ErrCellOverflow means more spheres landed in one cell than its
	// capacity allows. The run cannot continue.
	ErrCellOverflow = errors.New("grid: cell capacity exceeded")

	// ErrOutOfGrid means a sphere left the region the grid covers.
	ErrOutOfGrid = errors.New("grid: sphere outside grid")
)

type OverflowError struct {
	Col, Row int
	Capacity int
	ID       int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("grid: cell (%d,%d) holds %d spheres, cannot add %d", e.Col, e.Row, e.Capacity, e.ID)
}

func (e *OverflowError) Unwrap() error { return ErrCellOverflow }

type OutOfGridError struct {
	ID   int
	X, Y float64
}

func (e *OutOfGridError) Error() string {
	return fmt.Sprintf("grid: sphere %d at (%.4f, %.4f) is outside the grid", e.ID, e.X, e.Y)
}

func (e *OutOfGridError) Unwrap() error { return ErrOutOfGrid }

// Grid is a cols x rows array of bounded cells. A ring of guard cells
// surrounds the occupied region so the forward stencil of every interior
// cell stays in range.
type Grid struct {
	cellSize float64
	inv      float64
	xshift   int
	yshift   int
	cols     int
	rows     int
	capacity int
	cells    [][]int32
	stencil  [4]int
}

// New sizes a grid for a boundary whose enclosing half box is (halfA,
// halfB); the caller adds any body-radius margin.
func New(halfA, halfB float64, capacity int) *Grid {
	m := int(math.Ceil(halfA / CellSize))
	n := int(math.Ceil(halfB / CellSize))
	if m < 1 {
		m = 1
	}
	if n < 1 {
		n = 1
	}
	g := &Grid{
		cellSize: CellSize,
		inv:      1 / CellSize,
		xshift:   m + 1,
		yshift:   n + 1,
		capacity: capacity,
	}
	g.cols = 2 * g.xshift
	g.rows = 2 * g.yshift
	g.cells = make([][]int32, g.cols*g.rows)
	backing := make([]int32, len(g.cells)*capacity)
	for i := range g.cells {
		g.cells[i] = backing[i*capacity : i*capacity : (i+1)*capacity]
	}
	// (col+1,row-1), (col+1,row), (col+1,row+1), (col,row+1)
	g.stencil = [4]int{1 - g.cols, 1, 1 + g.cols, g.cols}
	return g
}

func (g *Grid) Cols() int       { return g.cols }
func (g *Grid) Rows() int       { return g.rows }
func (g *Grid) Capacity() int   { return g.capacity }
func (g *Grid) Stencil() [4]int { return g.stencil }

// Locate maps a coordinate to its column (or row) index.
func (g *Grid) Locate(x float64, shift int) int {
	return int(math.Floor(x*g.inv)) + shift
}

func (g *Grid) LocateX(x float64) int { return g.Locate(x, g.xshift) }
func (g *Grid) LocateY(y float64) int { return g.Locate(y, g.yshift) }

// Index flattens a (col, row) pair.
func (g *Grid) Index(col, row int) int { return row*g.cols + col }

// Interior reports whether (col, row) is inside the guard ring.
func (g *Grid) Interior(col, row int) bool {
	return col >= 1 && col < g.cols-1 && row >= 1 && row < g.rows-1
}

// Add appends id to cell (col, row).
func (g *Grid) Add(col, row, id int) error {
	idx := g.Index(col, row)
	c := g.cells[idx]
	if len(c) == g.capacity {
		return &OverflowError{Col: col, Row: row, Capacity: g.capacity, ID: id}
	}
	g.cells[idx] = append(c, int32(id))
	return nil
}

// Cell returns the ids in the flat cell idx. The slice is owned by the grid.
func (g *Grid) Cell(idx int) []int32 { return g.cells[idx] }

// Clear empties every cell, keeping the allocations.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Build clears the grid and inserts sphere k at (xs[k], ys[k]).
func (g *Grid) Build(xs, ys []float64) error {
	g.Clear()
	for k := range xs {
		col, row := g.LocateX(xs[k]), g.LocateY(ys[k])
		if !g.Interior(col, row) {
			return &OutOfGridError{ID: k, X: xs[k], Y: ys[k]}
		}
		if err := g.Add(col, row, k); err != nil {
			return err
		}
	}
	return nil
}

// Occupancy returns the number of spheres currently stored.
func (g *Grid) Occupancy() int {
	total := 0
	for _, c := range g.cells {
		total += len(c)
	}
	return total
}
