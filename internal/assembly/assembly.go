// Package assembly maps rigid-body coordinates to the positions of their
// constituent spheres and pulls sphere forces back to body forces and
// torques.
//
// Body coordinates are laid out as [x_0..x_{N-1}, y_0..y_{N-1},
// θ_0..θ_{N-1}]. Sphere s of body b has index k = s·N + b, and sphere-space
// vectors are laid out as [x_0..x_{Nm-1}, y_0..y_{Nm-1}].
package assembly

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r2"
)

// Inertia is the rotational inertia scale applied to torques.
const Inertia = 1.0

var ErrEmptyShape = errors.New("assembly: shape has no spheres")

// Shape is the rigid arrangement of sphere centres in a body's local frame.
type Shape struct {
	offsets []r2.Vec
}

func NewShape(offsets []r2.Vec) (*Shape, error) {
	if len(offsets) == 0 {
		return nil, ErrEmptyShape
	}
	return &Shape{offsets: append([]r2.Vec(nil), offsets...)}, nil
}

// NewChain lays m spheres on the local x axis, centred on the origin, with
// the given centre-to-centre spacing.
func NewChain(m int, spacing float64) (*Shape, error) {
	if m <= 0 {
		return nil, fmt.Errorf("%w: m=%d", ErrEmptyShape, m)
	}
	offsets := make([]r2.Vec, m)
	start := -float64(m-1) * spacing / 2
	for s := range offsets {
		offsets[s] = r2.Vec{X: start + float64(s)*spacing}
	}
	return &Shape{offsets: offsets}, nil
}

func (s *Shape) Len() int { return len(s.offsets) }

func (s *Shape) Offset(i int) r2.Vec { return s.offsets[i] }

// BodyRadius is the radius of the smallest origin-centred disc holding
// every unit sphere of the body.
func (s *Shape) BodyRadius() float64 {
	var r float64
	for _, o := range s.offsets {
		r = math.Max(r, r2.Norm(o))
	}
	return r + 1
}

// areaSlices is the number of strips used to integrate the union area.
const areaSlices = 4096

// Area is the area covered by the union of the body's unit discs. It is
// integrated strip by strip, merging the chords each disc cuts in a strip.
func (s *Shape) Area() float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, o := range s.offsets {
		lo = math.Min(lo, o.X-1)
		hi = math.Max(hi, o.X+1)
	}
	w := (hi - lo) / areaSlices
	type chord struct{ lo, hi float64 }
	chords := make([]chord, 0, len(s.offsets))

	var area float64
	for i := 0; i < areaSlices; i++ {
		x := lo + (float64(i)+0.5)*w
		chords = chords[:0]
		for _, o := range s.offsets {
			dx := x - o.X
			if dx*dx >= 1 {
				continue
			}
			h := math.Sqrt(1 - dx*dx)
			chords = append(chords, chord{o.Y - h, o.Y + h})
		}
		sort.Slice(chords, func(a, b int) bool { return chords[a].lo < chords[b].lo })
		var length, end float64
		end = math.Inf(-1)
		for _, c := range chords {
			if c.lo > end {
				length += c.hi - c.lo
				end = c.hi
			} else if c.hi > end {
				length += c.hi - end
				end = c.hi
			}
		}
		area += length * w
	}
	return area
}

// Transformer converts between body and sphere space for a fixed body count.
type Transformer struct {
	shape *Shape
	n     int
	// rel is the rotated offset of every sphere, cached by Lift for the
	// Project call of the same configuration.
	relX []float64
	relY []float64
}

func NewTransformer(shape *Shape, bodies int) *Transformer {
	nm := bodies * shape.Len()
	return &Transformer{
		shape: shape,
		n:     bodies,
		relX:  make([]float64, nm),
		relY:  make([]float64, nm),
	}
}

func (t *Transformer) Bodies() int  { return t.n }
func (t *Transformer) Spheres() int { return t.n * t.shape.Len() }
func (t *Transformer) Shape() *Shape {
	return t.shape
}

// Lift writes the sphere positions of q into dst, allocating it when it is
// too short, and refreshes the rotated offsets used by Project.
func (t *Transformer) Lift(q, dst []float64) []float64 {
	n, m := t.n, t.shape.Len()
	nm := n * m
	if cap(dst) < 2*nm {
		dst = make([]float64, 2*nm)
	}
	dst = dst[:2*nm]

	for b := 0; b < n; b++ {
		rot := mgl64.Rotate2D(q[2*n+b])
		for s, o := range t.shape.offsets {
			v := rot.Mul2x1(mgl64.Vec2{o.X, o.Y})
			k := s*n + b
			t.relX[k], t.relY[k] = v[0], v[1]
			dst[k] = q[b] + v[0]
			dst[nm+k] = q[n+b] + v[1]
		}
	}
	return dst
}

// Project sums the sphere gradient g over each body into dst: the linear
// components, and the torque r × g about the body centre scaled by Inertia.
// The offsets are those of the last Lift.
func (t *Transformer) Project(g, dst []float64) []float64 {
	n, m := t.n, t.shape.Len()
	nm := n * m
	if cap(dst) < 3*n {
		dst = make([]float64, 3*n)
	}
	dst = dst[:3*n]
	clear(dst)

	for s := 0; s < m; s++ {
		for b := 0; b < n; b++ {
			k := s*n + b
			gx, gy := g[k], g[nm+k]
			dst[b] += gx
			dst[n+b] += gy
			dst[2*n+b] += Inertia * (t.relX[k]*gy - t.relY[k]*gx)
		}
	}
	return dst
}
