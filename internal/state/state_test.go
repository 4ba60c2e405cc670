package state

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/packsim/internal/assembly"
	"github.com/san-kum/packsim/internal/geom"
	"github.com/san-kum/packsim/internal/grid"
	"github.com/san-kum/packsim/internal/potential"
)

func newInfo(t testing.TB, q []float64, bodies, m int, spacing float64, b geom.Boundary, fam potential.Family) *Info {
	t.Helper()
	shape, err := assembly.NewChain(m, spacing)
	require.NoError(t, err)
	s, err := New(q, bodies, shape, b, potential.New(fam, potential.DefaultResolutionBits), 32)
	require.NoError(t, err)
	return s
}

func TestNewRejectsBadCoordinates(t *testing.T) {
	shape, _ := assembly.NewChain(1, 0)
	pot := potential.New(potential.Exp, 8)
	_, err := New(make([]float64, 5), 2, shape, geom.NewCircle(5), pot, 4)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = New([]float64{0, math.Inf(1), 0}, 1, shape, geom.NewCircle(5), pot, 4)
	assert.ErrorIs(t, err, ErrNumericCorruption)
}

func TestCachesFollowCoordinates(t *testing.T) {
	q := []float64{0, 1.5, 0, 0, 0, 0}
	s := newInfo(t, q, 2, 1, 0, geom.NewCircle(10), potential.Exp)

	e1, err := s.Energy()
	require.NoError(t, err)
	assert.Greater(t, e1, 0.0)

	pairs, _, err := s.Contacts()
	require.NoError(t, err)
	assert.Equal(t, 1, pairs.Len())

	require.NoError(t, s.SetCoordinates([]float64{0, 3, 0, 0, 0, 0}))
	e2, err := s.Energy()
	require.NoError(t, err)
	assert.Zero(t, e2)
	pairs, _, _ = s.Contacts()
	assert.Zero(t, pairs.Len())

	require.NoError(t, s.Update(func(q []float64) { q[1] = 1.5 }))
	e3, _ := s.Energy()
	assert.Equal(t, e1, e3)
}

func TestQIsACopy(t *testing.T) {
	s := newInfo(t, []float64{1, 2, 3}, 1, 1, 0, geom.NewCircle(10), potential.Exp)
	q := s.Q()
	q[0] = 100
	assert.Equal(t, 1.0, s.Q()[0])
}

func TestCompressionRefreshesWallContacts(t *testing.T) {
	s := newInfo(t, []float64{8.5, 0, 0}, 1, 1, 0, geom.NewCircle(10), potential.Exp)
	_, walls, err := s.Contacts()
	require.NoError(t, err)
	assert.Zero(t, walls.Len())

	s.Compress(0.8)
	assert.InDelta(t, 9.2, s.Boundary().ScalarRadius(), 1e-12)
	_, walls, err = s.Contacts()
	require.NoError(t, err)
	require.Equal(t, 1, walls.Len())
	assert.InDelta(t, 0.7, walls.Entries()[0].H, 1e-12)

	e, err := s.Energy()
	require.NoError(t, err)
	assert.Greater(t, e, 0.0)

	s.SetScalarRadius(20)
	e, _ = s.Energy()
	assert.Zero(t, e)
}

func TestNarrowEllipseAxisWallContact(t *testing.T) {
	// a sphere on the long axis of a 60x5 ellipse, 0.7 from the tip
	s := newInfo(t, []float64{59.3, 0, 0}, 1, 1, 0, geom.NewEllipse(60, 5), potential.Exp)
	_, walls, err := s.Contacts()
	require.NoError(t, err)
	require.Equal(t, 1, walls.Len())
	w := walls.Entries()[0]
	assert.InDelta(t, 0.63966, w.H, 1e-4)
	assert.Less(t, w.N.X, 0.0)
	assert.Zero(t, s.SolverMisses())
}

func TestCorruptionIsReported(t *testing.T) {
	s := newInfo(t, []float64{0, 0, 0}, 1, 1, 0, geom.NewCircle(10), potential.Exp)
	err := s.Update(func(q []float64) { q[1] = math.NaN() })
	var ce *CorruptionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Index)
	assert.ErrorIs(t, err, ErrNumericCorruption)
}

func TestGridOverflowSurfaces(t *testing.T) {
	shape, _ := assembly.NewChain(1, 0)
	s, err := New([]float64{0.1, 0.2, 0.3, 0.1, 0.2, 0.3, 0, 0, 0}, 3, shape, geom.NewCircle(10), potential.New(potential.Exp, 8), 2)
	require.NoError(t, err)
	_, err = s.Energy()
	assert.ErrorIs(t, err, grid.ErrCellOverflow)
	_, err = s.Step(1e-3)
	assert.ErrorIs(t, err, grid.ErrCellOverflow)
}

func TestGradientMatchesEnergy(t *testing.T) {
	// Two overlapping chains, one of them pressed against the wall.
	q := []float64{0, 1.2, 8.8, 0.4, 0.3, -1.1, 0.2, 1.3, 0.7}
	s := newInfo(t, q, 3, 2, 1.0, geom.NewCircle(10), potential.Exp)

	g, err := s.Gradient()
	require.NoError(t, err)

	const d = 1e-5
	for i := range q {
		qp := append([]float64(nil), q...)
		qm := append([]float64(nil), q...)
		qp[i] += d
		qm[i] -= d
		require.NoError(t, s.SetCoordinates(qp))
		ep, err := s.Energy()
		require.NoError(t, err)
		require.NoError(t, s.SetCoordinates(qm))
		em, _ := s.Energy()

		numeric := (ep - em) / (2 * d)
		assert.InDelta(t, numeric, g[i], 1e-3*math.Max(1, math.Abs(g[i])), "component %d", i)
	}
}

func TestEnergyNonIncreasing(t *testing.T) {
	q := []float64{0, 1.1, -1.0, 0, 0.4, 1.2, 0, 0.3, 1.4}
	s := newInfo(t, q, 3, 2, 1.0, geom.NewCircle(10), potential.Exp)

	prev, err := s.Energy()
	require.NoError(t, err)
	require.Greater(t, prev, 0.0)
	for i := 0; i < 300; i++ {
		e, err := s.Step(1e-3)
		require.NoError(t, err)
		assert.LessOrEqual(t, e, prev+1e-12, "step %d", i)
		prev = e
	}

	norm, err := s.GradientNorm()
	require.NoError(t, err)
	maxAbs, err := s.GradientMaxAbs()
	require.NoError(t, err)
	assert.LessOrEqual(t, maxAbs, norm)
}

// drawOverlapping draws n centres uniformly from a disc of radius 2 until
// the closest pair overlaps by at most 0.2. Deeper overlaps need more than
// a thousand steps of 1e-3 to clear, since the pair force near contact is
// about 0.18.
func drawOverlapping(rng *rand.Rand, n int) []float64 {
	q := make([]float64, 3*n)
	for {
		for b := 0; b < n; b++ {
			for {
				x, y := 4*rng.Float64()-2, 4*rng.Float64()-2
				if x*x+y*y <= 4 {
					q[b], q[n+b] = x, y
					break
				}
			}
		}
		closest := math.Inf(1)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				closest = math.Min(closest, math.Hypot(q[i]-q[j], q[n+i]-q[n+j]))
			}
		}
		if closest >= 1.8 && closest < 2 {
			return q
		}
	}
}

func TestRelaxFourSpheres(t *testing.T) {
	q := drawOverlapping(rand.New(rand.NewSource(2024)), 4)
	s := newInfo(t, q, 4, 1, 0, geom.NewCircle(10), potential.ScreenedCoulomb)

	e0, err := s.Energy()
	require.NoError(t, err)
	require.Greater(t, e0, 1e-7)

	var e float64
	for i := 0; i < 1000; i++ {
		e, err = s.Step(1e-3)
		require.NoError(t, err)
	}
	assert.Less(t, e, 1e-7)

	final := s.Q()
	require.NoError(t, CheckIntegrity(final))
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			d := math.Hypot(final[i]-final[j], final[4+i]-final[4+j])
			assert.GreaterOrEqual(t, d, 2*(1-1e-3), "pair %d-%d", i, j)
		}
	}
}

func TestSolverMisses(t *testing.T) {
	e := geom.NewEllipse(12, 6, geom.SolverIterations(1))
	s := newInfo(t, []float64{3, 5, 0}, 1, 1, 0, e, potential.Exp)
	_, err := s.Energy()
	require.NoError(t, err)
	assert.Equal(t, 1, s.SolverMisses())
	assert.Zero(t, s.SolverMisses())

	c := newInfo(t, []float64{0, 0, 0}, 1, 1, 0, geom.NewCircle(5), potential.Exp)
	assert.Zero(t, c.SolverMisses())
}

func BenchmarkStep(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	const n = 400
	q := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		r := 28 * math.Sqrt(rng.Float64())
		phi := 2 * math.Pi * rng.Float64()
		q[i], q[n+i], q[2*n+i] = r*math.Cos(phi), r*math.Sin(phi), 2*math.Pi*rng.Float64()
	}
	s := newInfo(b, q, n, 3, 0.5, geom.NewEllipse(45, 30), potential.ScreenedCoulomb)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Step(1e-4); err != nil {
			b.Fatal(err)
		}
	}
}
