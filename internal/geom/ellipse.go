package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultSolverIterations = 32
	DefaultSolverTolerance  = 1e-10

	// gateMargin is the distance inside the wall below which no point can
	// touch it: one sphere diameter.
	gateMargin = 2.0
	// gateGap is reported for gated points; it is beyond the wall cutoff.
	gateGap = 2.0
)

// Coefficients are the per-size constants cached by an EllipseSolver.
type Coefficients struct {
	A, B   float64
	A2, B2 float64
	// GateX, GateY are 1/(a-2)^2 and 1/(b-2)^2.
	GateX, GateY float64
}

func newCoefficients(a, b float64) Coefficients {
	c := Coefficients{A: a, B: b, A2: a * a, B2: b * b}
	if a > gateMargin && b > gateMargin {
		c.GateX = 1 / ((a - gateMargin) * (a - gateMargin))
		c.GateY = 1 / ((b - gateMargin) * (b - gateMargin))
	}
	return c
}

// EllipseSolver projects points onto the ellipse x²/a² + y²/b² = 1.
//
// For a point p in the first quadrant the nearest boundary point is
// X = (a²x/(t+a²), b²y/(t+b²)) where t is the root of
//
//	F(t) = (ax/(t+a²))² + (by/(t+b²))² - 1
//
// on (-min(a²,b²), ∞). The solver works in s = t + min(a²,b²) so roots next
// to the pole keep their precision, and runs Newton on R(s) = (F+1)^(-1/2),
// which is close to linear in s, inside a bisection bracket. Since
// p - X = t·(X/a², Y/b²), the signed gap is -t·|(X/a², Y/b²)|, positive
// inside.
type EllipseSolver struct {
	c       Coefficients
	minSq   float64
	maxIter int
	tol     float64
}

func NewEllipseSolver(a, b float64, maxIter int, tol float64) *EllipseSolver {
	if maxIter <= 0 {
		maxIter = DefaultSolverIterations
	}
	if tol <= 0 {
		tol = DefaultSolverTolerance
	}
	c := newCoefficients(a, b)
	return &EllipseSolver{
		c:       c,
		minSq:   math.Min(c.A2, c.B2),
		maxIter: maxIter,
		tol:     tol,
	}
}

func (s *EllipseSolver) Coefficients() Coefficients { return s.c }

// Gate reports whether (x, y) is close enough to the wall to need a solve.
// Points strictly inside the ellipse with half-axes (a-2, b-2) cannot
// touch the wall.
func (s *EllipseSolver) Gate(x, y float64) bool {
	if s.c.GateX == 0 {
		return true
	}
	return x*x*s.c.GateX+y*y*s.c.GateY > 1
}

// Solve returns the signed gap and inward unit normal at (x, y). When the
// iteration budget runs out the best estimate is returned with ok false.
func (s *EllipseSolver) Solve(x, y float64) (h float64, n r2.Vec, ok bool) {
	if ah, an, hit := s.solveAxis(x, y); hit {
		return ah, an, true
	}

	a2, b2 := s.c.A2, s.c.B2
	oa, ob := a2-s.minSq, b2-s.minSq
	px, py := math.Abs(x), math.Abs(y)
	// Keeps the pole term finite; the gap moves by at most eps.
	eps := 1e-12 * (s.c.A + s.c.B)
	if px < eps {
		px = eps
	}
	if py < eps {
		py = eps
	}
	ax, by := s.c.A*px, s.c.B*py

	// R(lo) <= 1 <= R(hi), and lo > 0 because one of oa, ob is zero.
	lo := math.Max(ax-oa, by-ob)
	hi := math.Hypot(ax, by)
	u := lo
	for i := 0; i < s.maxIter; i++ {
		da, db := u+oa, u+ob
		ra, rb := ax/da, by/db
		r := 1 / math.Sqrt(ra*ra+rb*rb)
		g := r - 1
		if math.Abs(g) < s.tol {
			ok = true
			break
		}
		if g < 0 {
			lo = u
		} else {
			hi = u
		}
		dr := r * r * r * (ra*ra/da + rb*rb/db)
		next := u - g/dr
		if !(next > lo && next <= hi) {
			next = 0.5 * (lo + hi)
		}
		if math.Abs(next-u) <= 1e-15*u {
			u = next
			ok = true
			break
		}
		u = next
	}

	// p - X = t·(X/a², Y/b²) and (X/a², Y/b²) is the outward normal.
	t := u - s.minSq
	gx, gy := px/(u+oa), py/(u+ob)
	norm := math.Hypot(gx, gy)
	if norm < minNormDist {
		return -t, r2.Vec{}, ok
	}
	h = -t * norm
	n = r2.Vec{
		X: -math.Copysign(gx/norm, x),
		Y: -math.Copysign(gy/norm, y),
	}
	return h, n, ok
}

// solveAxis handles points on the major axis inside the evolute, where the
// root sits on the pole t = -min(a²,b²) and the two nearest points are
// mirror images off the axis; the one on the side of p is used. It reports
// false for every other point.
func (s *EllipseSolver) solveAxis(x, y float64) (float64, r2.Vec, bool) {
	a, b := s.c.A, s.c.B
	a2, b2 := s.c.A2, s.c.B2
	axis := 1e-9 * (a + b)
	switch {
	case a2 > b2 && math.Abs(y) < axis && a*math.Abs(x) < a2-b2:
		px := math.Abs(x)
		x0 := a2 * px / (a2 - b2)
		y0 := b * math.Sqrt(math.Max(0, 1-x0*x0/a2))
		return s.axisGap(px, 0, x0, y0, x, y)
	case b2 > a2 && math.Abs(x) < axis && b*math.Abs(y) < b2-a2:
		py := math.Abs(y)
		y0 := b2 * py / (b2 - a2)
		x0 := a * math.Sqrt(math.Max(0, 1-y0*y0/b2))
		return s.axisGap(0, py, x0, y0, x, y)
	}
	return 0, r2.Vec{}, false
}

// axisGap is the gap from (px, py) to the boundary point (x0, y0), with
// the inward normal taking the signs of sx, sy.
func (s *EllipseSolver) axisGap(px, py, x0, y0, sx, sy float64) (float64, r2.Vec, bool) {
	gx, gy := x0/s.c.A2, y0/s.c.B2
	norm := math.Hypot(gx, gy)
	n := r2.Vec{
		X: -math.Copysign(gx/norm, sx),
		Y: -math.Copysign(gy/norm, sy),
	}
	return math.Hypot(px-x0, py-y0), n, true
}

// Ellipse is an axis-aligned elliptic wall. Its scalar radius is the b
// half-axis; compression keeps the aspect ratio a/b fixed.
type Ellipse struct {
	a, b    float64
	aspect  float64
	initial float64
	maxIter int
	tol     float64
	sol     *EllipseSolver
	misses  int
}

type EllipseOption func(*Ellipse)

func SolverIterations(n int) EllipseOption {
	return func(e *Ellipse) { e.maxIter = n }
}

func SolverTolerance(tol float64) EllipseOption {
	return func(e *Ellipse) { e.tol = tol }
}

func NewEllipse(a, b float64, opts ...EllipseOption) *Ellipse {
	e := &Ellipse{
		a:       a,
		b:       b,
		aspect:  a / b,
		initial: b,
		maxIter: DefaultSolverIterations,
		tol:     DefaultSolverTolerance,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.sol = NewEllipseSolver(a, b, e.maxIter, e.tol)
	return e
}

func (e *Ellipse) Name() string                 { return "ellipse" }
func (e *Ellipse) A() float64                   { return e.a }
func (e *Ellipse) B() float64                   { return e.b }
func (e *Ellipse) AspectRatio() float64         { return e.aspect }
func (e *Ellipse) ScalarRadius() float64        { return e.b }
func (e *Ellipse) InitialScalarRadius() float64 { return e.initial }
func (e *Ellipse) Solver() *EllipseSolver       { return e.sol }
func (e *Ellipse) HalfExtents() (float64, float64) {
	return e.a, e.b
}
func (e *Ellipse) Area() float64 { return math.Pi * e.a * e.b }

// SetScalarRadius resizes the ellipse and rebuilds the solver so no query
// sees coefficients from the previous size.
func (e *Ellipse) SetScalarRadius(r float64) {
	e.b = r
	e.a = e.aspect * r
	e.sol = NewEllipseSolver(e.a, e.b, e.maxIter, e.tol)
}

func (e *Ellipse) Compress(rate float64) { e.SetScalarRadius(e.b - rate) }

func (e *Ellipse) Contains(p r2.Vec) bool {
	return p.X*p.X/(e.a*e.a)+p.Y*p.Y/(e.b*e.b) <= 1
}

func (e *Ellipse) Distance(p r2.Vec) (float64, r2.Vec) {
	if !e.sol.Gate(p.X, p.Y) {
		return gateGap, r2.Vec{}
	}
	h, n, ok := e.sol.Solve(p.X, p.Y)
	if !ok {
		e.misses++
	}
	return h, n
}

// TakeMisses returns the number of unconverged solves since the last call.
func (e *Ellipse) TakeMisses() int {
	m := e.misses
	e.misses = 0
	return m
}
