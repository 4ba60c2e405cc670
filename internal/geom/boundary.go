// Package geom implements the confining boundaries of a packing run and the
// signed-distance queries used by wall collision detection.
//
// Distances follow one convention throughout: the gap h is positive inside
// the boundary and negative outside, and the returned normal is the unit
// gradient of h, which points into the interior.
package geom

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrNoConvergence marks an ellipse projection that ran out of iterations.
// Solve never returns it; it is reported through Ellipse.TakeMisses.
var ErrNoConvergence = errors.New("geom: nearest-point solver did not converge")

// Reader is the query side of a Boundary. Holders of a Reader cannot
// resize the wall behind the back of whoever caches distances against it.
type Reader interface {
	Name() string
	// ScalarRadius is the single size parameter compression acts on.
	ScalarRadius() float64
	InitialScalarRadius() float64
	// Distance returns the signed gap from p to the wall and the unit
	// gradient of the gap at p.
	Distance(p r2.Vec) (h float64, n r2.Vec)
	Contains(p r2.Vec) bool
	// HalfExtents is the axis-aligned half box enclosing the boundary.
	HalfExtents() (a, b float64)
	Area() float64
}

// Boundary is the confining wall of a packing run.
type Boundary interface {
	Reader
	SetScalarRadius(r float64)
	Compress(rate float64)
}

// ErrUnknownShape is returned by New for an unrecognised shape name.
var ErrUnknownShape = errors.New("geom: unknown boundary shape")

// New builds a boundary by name. For a circle only b is used as the radius;
// an ellipse with a == 0 degenerates to a circle of radius b.
func New(shape string, a, b float64, opts ...EllipseOption) (Boundary, error) {
	switch shape {
	case "circle":
		return NewCircle(b), nil
	case "ellipse":
		if a == 0 {
			a = b
		}
		return NewEllipse(a, b, opts...), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownShape, shape)
}

// minNormDist guards normalisation near the origin.
const minNormDist = 1e-12

type Circle struct {
	radius  float64
	initial float64
}

func NewCircle(radius float64) *Circle {
	return &Circle{radius: radius, initial: radius}
}

func (c *Circle) Name() string                 { return "circle" }
func (c *Circle) Radius() float64              { return c.radius }
func (c *Circle) ScalarRadius() float64        { return c.radius }
func (c *Circle) InitialScalarRadius() float64 { return c.initial }
func (c *Circle) SetScalarRadius(r float64)    { c.radius = r }
func (c *Circle) Compress(rate float64)        { c.SetScalarRadius(c.radius - rate) }
func (c *Circle) HalfExtents() (float64, float64) {
	return c.radius, c.radius
}
func (c *Circle) Area() float64 { return math.Pi * c.radius * c.radius }

func (c *Circle) Contains(p r2.Vec) bool {
	return p.X*p.X+p.Y*p.Y <= c.radius*c.radius
}

func (c *Circle) Distance(p r2.Vec) (float64, r2.Vec) {
	d := r2.Norm(p)
	if d < minNormDist {
		return c.radius, r2.Vec{}
	}
	return c.radius - d, r2.Scale(-1/d, p)
}
