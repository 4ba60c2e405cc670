package potential

import "math"

const (
	DefaultResolutionBits = 16
	MinResolutionBits     = 8
	MaxResolutionBits     = 24
)

// Table provides precomputed samples of a scalar function on [0, domain).
// Uses linear interpolation for values between table entries.
type Table struct {
	vals   []float64
	domain float64
	scale  float64
}

// NewTable samples f at 2^bits + 1 evenly spaced points of [0, domain].
// Samples where f is not finite (a pole at the origin) copy their nearest
// finite neighbour.
func NewTable(f func(float64) float64, domain float64, bits int) *Table {
	bits = clampBits(bits)
	n := 1 << bits
	t := &Table{
		vals:   make([]float64, n+1),
		domain: domain,
		scale:  float64(n) / domain,
	}
	step := domain / float64(n)
	for i := n; i >= 0; i-- {
		v := f(float64(i) * step)
		if (math.IsNaN(v) || math.IsInf(v, 0)) && i < n {
			v = t.vals[i+1]
		}
		t.vals[i] = v
	}
	return t
}

func clampBits(bits int) int {
	if bits <= 0 {
		return DefaultResolutionBits
	}
	if bits < MinResolutionBits {
		return MinResolutionBits
	}
	if bits > MaxResolutionBits {
		return MaxResolutionBits
	}
	return bits
}

// At returns the interpolated value at x, or zero outside [0, domain).
func (t *Table) At(x float64) float64 {
	if !(x >= 0 && x < t.domain) {
		return 0
	}
	idx := x * t.scale
	i := int(idx)
	if i >= len(t.vals)-1 {
		return t.vals[len(t.vals)-1]
	}
	frac := idx - float64(i)
	return t.vals[i]*(1-frac) + t.vals[i+1]*frac
}

func (t *Table) Len() int        { return len(t.vals) - 1 }
func (t *Table) Domain() float64 { return t.domain }
