package assembly

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewChain(t *testing.T) {
	s, err := NewChain(3, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, r2.Vec{X: -1}, s.Offset(0))
	assert.Equal(t, r2.Vec{X: 1}, s.Offset(2))
	assert.Equal(t, 2.0, s.BodyRadius())

	s, err = NewChain(1, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.BodyRadius())

	_, err = NewChain(0, 1)
	assert.ErrorIs(t, err, ErrEmptyShape)
	_, err = NewShape(nil)
	assert.ErrorIs(t, err, ErrEmptyShape)
}

func TestLiftLayout(t *testing.T) {
	s, _ := NewChain(2, 2)
	tr := NewTransformer(s, 2)
	// body 0 at (0,0) unrotated, body 1 at (10,0) turned a quarter.
	q := []float64{0, 10, 0, 0, 0, math.Pi / 2}
	p := tr.Lift(q, nil)
	require.Len(t, p, 8)

	n := 4
	assert.InDelta(t, -1, p[0], 1e-12) // s0 b0
	assert.InDelta(t, 10, p[1], 1e-12) // s0 b1
	assert.InDelta(t, 1, p[2], 1e-12)  // s1 b0
	assert.InDelta(t, 10, p[3], 1e-12) // s1 b1
	assert.InDelta(t, 0, p[n+0], 1e-12)
	assert.InDelta(t, -1, p[n+1], 1e-12)
	assert.InDelta(t, 1, p[n+3], 1e-12)
}

func TestTranslationHasNoTorque(t *testing.T) {
	s, _ := NewChain(4, 0.7)
	tr := NewTransformer(s, 3)
	q := []float64{1, 2, 3, -1, 0, 1, 0.3, 1.1, -2}
	tr.Lift(q, nil)

	g := make([]float64, 2*tr.Spheres())
	for k := 0; k < tr.Spheres(); k++ {
		g[k] = 0.5
		g[tr.Spheres()+k] = -1.5
	}
	out := tr.Project(g, nil)
	for b := 0; b < 3; b++ {
		assert.InDelta(t, 2.0, out[b], 1e-12)
		assert.InDelta(t, -6.0, out[3+b], 1e-12)
		assert.InDelta(t, 0, out[6+b], 1e-12)
	}
}

// A linear sphere-space energy E = Σ w·p has sphere gradient w, so Project(w)
// must equal the body gradient by finite differences.
func TestProjectIsChainRule(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	s, _ := NewChain(3, 0.9)
	const n = 4
	tr := NewTransformer(s, n)
	w := make([]float64, 2*tr.Spheres())
	for i := range w {
		w[i] = rng.NormFloat64()
	}
	q := make([]float64, 3*n)
	for i := range q {
		q[i] = 4 * rng.NormFloat64()
	}

	energy := func(q []float64) float64 {
		p := tr.Lift(q, nil)
		var e float64
		for i := range p {
			e += w[i] * p[i]
		}
		return e
	}

	tr.Lift(q, nil)
	got := tr.Project(w, nil)

	const d = 1e-6
	for i := range q {
		qp := append([]float64(nil), q...)
		qm := append([]float64(nil), q...)
		qp[i] += d
		qm[i] -= d
		numeric := (energy(qp) - energy(qm)) / (2 * d)
		assert.InDelta(t, numeric, got[i], 1e-6, "component %d", i)
	}
}

func TestBuffersReused(t *testing.T) {
	s, _ := NewChain(2, 1)
	tr := NewTransformer(s, 2)
	buf := make([]float64, 8)
	q := make([]float64, 6)
	out := tr.Lift(q, buf)
	assert.Equal(t, &buf[0], &out[0])
}

func TestShapeArea(t *testing.T) {
	one, _ := NewChain(1, 0)
	assert.InDelta(t, math.Pi, one.Area(), 1e-4)

	apart, _ := NewChain(3, 2.5)
	assert.InDelta(t, 3*math.Pi, apart.Area(), 1e-3)

	stacked, _ := NewChain(4, 0)
	assert.InDelta(t, math.Pi, stacked.Area(), 1e-4)

	// Two unit discs one radius apart overlap in a lens of area 2π/3 - √3/2.
	pair, _ := NewChain(2, 1)
	lens := 2*math.Pi/3 - math.Sqrt(3)/2
	assert.InDelta(t, 2*math.Pi-lens, pair.Area(), 1e-3)

	off, _ := NewShape([]r2.Vec{{X: 0, Y: 0}, {X: 0, Y: 5}})
	assert.InDelta(t, 2*math.Pi, off.Area(), 1e-3)
}
