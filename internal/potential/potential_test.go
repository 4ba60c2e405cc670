package potential

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var all = []Family{Power, ScreenedCoulomb, Exp}

func TestTableInterpolation(t *testing.T) {
	tab := NewTable(math.Sin, 1, 12)
	assert.Equal(t, 4096, tab.Len())
	for _, x := range []float64{0, 0.1, 0.33333, 0.5, 0.98765} {
		assert.InDelta(t, math.Sin(x), tab.At(x), 1e-7)
	}
	assert.Zero(t, tab.At(1))
	assert.Zero(t, tab.At(-0.01))
	assert.Zero(t, tab.At(math.NaN()))
}

func TestTablePoleAtOrigin(t *testing.T) {
	tab := NewTable(func(x float64) float64 { return 1 / x }, 1, 8)
	assert.False(t, math.IsInf(tab.At(0), 0))
	assert.Equal(t, tab.vals[1], tab.vals[0])
}

func TestResolutionBitsClamped(t *testing.T) {
	assert.Equal(t, MinResolutionBits, New(Exp, 3).ResolutionBits())
	assert.Equal(t, DefaultResolutionBits, New(Exp, 0).ResolutionBits())
	assert.Equal(t, MaxResolutionBits, clampBits(40))
}

func TestTablesMatchClosedForm(t *testing.T) {
	for _, f := range all {
		p := New(f, DefaultResolutionBits)
		for r := 0.25; r < 1.95; r += 0.0731 {
			assert.InEpsilon(t, f.Pair(r), p.Pair(r), 1e-6, "%s pair r=%v", f.Name, r)
			assert.InEpsilon(t, f.PairDerivOverR(r), p.PairDerivOverR(r), 1e-6, "%s dpair r=%v", f.Name, r)
		}
		for h := 0.1; h < 0.95; h += 0.0377 {
			assert.InEpsilon(t, f.Wall(h), p.Wall(h), 1e-6, "%s wall h=%v", f.Name, h)
			assert.InEpsilon(t, f.WallDeriv(h), p.WallDeriv(h), 1e-6, "%s dwall h=%v", f.Name, h)
		}
	}
}

func TestDerivativesAreConsistent(t *testing.T) {
	const d = 1e-6
	for _, f := range all {
		for r := 0.3; r < 1.9; r += 0.1 {
			numeric := (f.Pair(r+d) - f.Pair(r-d)) / (2 * d)
			assert.InEpsilon(t, numeric, r*f.PairDerivOverR(r), 1e-5, "%s r=%v", f.Name, r)
		}
		for h := 0.1; h < 0.95; h += 0.1 {
			numeric := (f.Wall(h+d) - f.Wall(h-d)) / (2 * d)
			assert.InEpsilon(t, numeric, f.WallDeriv(h), 1e-5, "%s h=%v", f.Name, h)
		}
	}
}

func TestVanishAtCutoff(t *testing.T) {
	for _, f := range all {
		p := New(f, DefaultResolutionBits)
		assert.InDelta(t, 0, p.Pair(PairDomain-1e-9), 1e-6, f.Name)
		assert.InDelta(t, 0, p.Wall(WallDomain-1e-9), 1e-5, f.Name)
		assert.Zero(t, p.Pair(PairDomain), f.Name)
		assert.Zero(t, p.Pair(3), f.Name)
		assert.Zero(t, p.Wall(WallDomain), f.Name)
		assert.Zero(t, p.WallDeriv(1.5), f.Name)
	}
}

func TestMonotoneDecreasing(t *testing.T) {
	for _, f := range all {
		p := New(f, DefaultResolutionBits)
		prev := math.Inf(1)
		for r := 0.05; r < PairDomain; r += 0.01 {
			v := p.Pair(r)
			assert.LessOrEqual(t, v, prev, "%s r=%v", f.Name, r)
			prev = v
		}
		prev = math.Inf(1)
		for h := 0.01; h < WallDomain; h += 0.01 {
			v := p.Wall(h)
			assert.LessOrEqual(t, v, prev, "%s h=%v", f.Name, h)
			prev = v
		}
	}
}

func TestWallBeyondBoundary(t *testing.T) {
	p := New(Exp, 10)
	assert.Equal(t, Exp.Wall(-0.5), p.Wall(-0.5))
	assert.Equal(t, Exp.WallDeriv(-0.5), p.WallDeriv(-0.5))

	p = New(Power, 10)
	assert.InDelta(t, 100*math.Pow(1.5, 2.5), p.Wall(-0.5), 1e-9)

	p = New(ScreenedCoulomb, 10)
	assert.Zero(t, p.Wall(-0.5))
	assert.Zero(t, p.WallDeriv(-0.5))
}

func TestLookup(t *testing.T) {
	f, err := Lookup("screened_coulomb")
	require.NoError(t, err)
	assert.Equal(t, ScreenedCoulomb.Name, f.Name)

	_, err = Lookup("lennard_jones")
	assert.ErrorIs(t, err, ErrUnknownFamily)

	assert.Equal(t, []string{"exp", "power", "screened_coulomb"}, Names())

	p, err := NewByName("power", 12)
	require.NoError(t, err)
	assert.Equal(t, "power", p.Name())
}

func BenchmarkPairLookup(b *testing.B) {
	p := New(ScreenedCoulomb, DefaultResolutionBits)
	var sink float64
	for i := 0; i < b.N; i++ {
		sink += p.PairDerivOverR(0.5 + float64(i%1000)*1e-3)
	}
	_ = sink
}
