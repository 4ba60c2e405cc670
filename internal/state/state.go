// Package state owns the generalized coordinates of a packing run and every
// quantity derived from them.
//
// Derived values form a chain: sphere positions, grid, contacts, then energy
// and gradient. Each is computed on first request and reused until the
// coordinates or the boundary change. Those only change through the methods
// of Info, each of which advances a single epoch counter; a cached value is
// valid exactly when its stamp equals the current epoch.
package state

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/packsim/internal/assembly"
	"github.com/san-kum/packsim/internal/contact"
	"github.com/san-kum/packsim/internal/geom"
	"github.com/san-kum/packsim/internal/grid"
	"github.com/san-kum/packsim/internal/potential"
)

type Info struct {
	q        []float64
	n        int
	tr       *assembly.Transformer
	boundary geom.Boundary
	pot      *potential.Potential
	capacity int

	epoch uint64

	spheres   []float64
	spheresAt uint64

	grid   *grid.Grid
	gridAt uint64

	pairs      *contact.PairStore
	walls      *contact.WallStore
	contactsAt uint64

	energy   float64
	energyAt uint64

	grad       []float64
	gradAt     uint64
	sphereGrad []float64
	pairVals   []r2.Vec
	wallVals   []r2.Vec
}

// New takes a copy of q, which must hold 3N coordinates for the given body
// count. capacity bounds the number of spheres per grid cell.
func New(q []float64, bodies int, shape *assembly.Shape, b geom.Boundary, pot *potential.Potential, capacity int) (*Info, error) {
	if bodies <= 0 || len(q) != 3*bodies {
		return nil, ErrDimensionMismatch
	}
	if err := CheckIntegrity(q); err != nil {
		return nil, err
	}
	tr := assembly.NewTransformer(shape, bodies)
	nm := tr.Spheres()
	return &Info{
		q:          append([]float64(nil), q...),
		n:          bodies,
		tr:         tr,
		boundary:   b,
		pot:        pot,
		capacity:   capacity,
		epoch:      1,
		pairs:      contact.NewPairStore(2 * nm),
		walls:      contact.NewWallStore(nm / 4),
		grad:       make([]float64, 3*bodies),
		sphereGrad: make([]float64, 2*nm),
	}, nil
}

// CheckIntegrity returns a *CorruptionError for the first NaN or Inf in q.
func CheckIntegrity(q []float64) error {
	for i, v := range q {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &CorruptionError{Index: i, Value: v}
		}
	}
	return nil
}

func (s *Info) invalidate() { s.epoch++ }

func (s *Info) Bodies() int                     { return s.n }
func (s *Info) Spheres() int                    { return s.tr.Spheres() }
func (s *Info) Shape() *assembly.Shape          { return s.tr.Shape() }
func (s *Info) Boundary() geom.Reader           { return s.boundary }
func (s *Info) Potential() *potential.Potential { return s.pot }

// Q returns a copy of the generalized coordinates.
func (s *Info) Q() []float64 {
	return append([]float64(nil), s.q...)
}

// SetCoordinates replaces the coordinates with a copy of q.
func (s *Info) SetCoordinates(q []float64) error {
	if len(q) != len(s.q) {
		return ErrDimensionMismatch
	}
	if err := CheckIntegrity(q); err != nil {
		return err
	}
	copy(s.q, q)
	s.invalidate()
	return nil
}

// Update lets fn edit the coordinates in place. Caches are dropped
// afterwards and the result is integrity checked.
func (s *Info) Update(fn func(q []float64)) error {
	fn(s.q)
	s.invalidate()
	return CheckIntegrity(s.q)
}

func (s *Info) SetScalarRadius(r float64) {
	s.boundary.SetScalarRadius(r)
	s.invalidate()
}

func (s *Info) Compress(rate float64) {
	s.boundary.Compress(rate)
	s.invalidate()
}

// SolverMisses returns and resets the number of boundary queries that did
// not converge, for boundaries that count them.
func (s *Info) SolverMisses() int {
	if m, ok := s.boundary.(interface{ TakeMisses() int }); ok {
		return m.TakeMisses()
	}
	return 0
}

// SphereSpace returns the sphere positions laid out as [x..., y...]. The
// slice is owned by s and valid until the next mutation.
func (s *Info) SphereSpace() []float64 {
	if s.spheresAt != s.epoch {
		s.spheres = s.tr.Lift(s.q, s.spheres)
		s.spheresAt = s.epoch
	}
	return s.spheres
}

func (s *Info) xy() ([]float64, []float64) {
	p := s.SphereSpace()
	nm := len(p) / 2
	return p[:nm], p[nm:]
}

// Grid returns the grid filled with the current sphere positions. It is
// allocated on first use from the boundary extents at that time.
func (s *Info) Grid() (*grid.Grid, error) {
	if s.grid == nil {
		a, b := s.boundary.HalfExtents()
		r := s.tr.Shape().BodyRadius()
		s.grid = grid.New(a+r, b+r, s.capacity)
	}
	if s.gridAt != s.epoch {
		xs, ys := s.xy()
		if err := s.grid.Build(xs, ys); err != nil {
			return nil, err
		}
		s.gridAt = s.epoch
	}
	return s.grid, nil
}

// Contacts returns the particle and wall contacts of the current state.
// Both stores are owned by s and valid until the next mutation.
func (s *Info) Contacts() (*contact.PairStore, *contact.WallStore, error) {
	if s.contactsAt != s.epoch {
		g, err := s.Grid()
		if err != nil {
			return nil, nil, err
		}
		xs, ys := s.xy()
		s.pairs.Clear()
		s.walls.Clear()
		contact.DetectPairs(g, xs, ys, s.n, s.pairs)
		contact.DetectWalls(s.boundary, xs, ys, s.walls)
		s.contactsAt = s.epoch
	}
	return s.pairs, s.walls, nil
}

func (s *Info) Energy() (float64, error) {
	if s.energyAt == s.epoch {
		return s.energy, nil
	}
	pairs, walls, err := s.Contacts()
	if err != nil {
		return 0, err
	}
	var e float64
	for _, p := range pairs.Entries() {
		e += s.pot.Pair(p.R)
	}
	for _, w := range walls.Entries() {
		e += s.pot.Wall(w.H)
	}
	s.energy, s.energyAt = e, s.epoch
	return e, nil
}

func (s *Info) gradient() ([]float64, error) {
	if s.gradAt == s.epoch {
		return s.grad, nil
	}
	pairs, walls, err := s.Contacts()
	if err != nil {
		return nil, err
	}
	clear(s.sphereGrad)
	s.pairVals = pairs.Map(func(p contact.Pair) r2.Vec {
		return r2.Scale(s.pot.PairDerivOverR(p.R), p.D)
	}, s.pairVals)
	pairs.ReduceAsym(s.pairVals, s.sphereGrad)

	s.wallVals = walls.Map(func(w contact.Wall) r2.Vec {
		return r2.Scale(s.pot.WallDeriv(w.H), w.N)
	}, s.wallVals)
	walls.Scatter(s.wallVals, s.sphereGrad)

	s.grad = s.tr.Project(s.sphereGrad, s.grad)
	s.gradAt = s.epoch
	return s.grad, nil
}

// Gradient returns a copy of the generalized energy gradient.
func (s *Info) Gradient() ([]float64, error) {
	g, err := s.gradient()
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), g...), nil
}

// Step moves the coordinates by -size times the gradient and returns the
// energy of the new configuration.
func (s *Info) Step(size float64) (float64, error) {
	g, err := s.gradient()
	if err != nil {
		return 0, err
	}
	floats.AddScaled(s.q, -size, g)
	s.invalidate()
	if err := CheckIntegrity(s.q); err != nil {
		return 0, err
	}
	return s.Energy()
}

// GradientNorm is the Euclidean norm of the generalized gradient.
func (s *Info) GradientNorm() (float64, error) {
	g, err := s.gradient()
	if err != nil {
		return 0, err
	}
	return floats.Norm(g, 2), nil
}

func (s *Info) GradientMaxAbs() (float64, error) {
	g, err := s.gradient()
	if err != nil {
		return 0, err
	}
	return floats.Norm(g, math.Inf(1)), nil
}
