package metrics

import (
	"math"

	"github.com/san-kum/packsim/internal/packing"
)

// PackingFraction is the share of the boundary covered by bodies in the
// latest frame.
type PackingFraction struct {
	name     string
	bodyArea float64
	value    float64
}

func NewPackingFraction(bodyArea float64) *PackingFraction {
	return &PackingFraction{
		name:     "packing_fraction",
		bodyArea: bodyArea,
	}
}

func (p *PackingFraction) Name() string { return p.name }

func (p *PackingFraction) Observe(f packing.Frame) {
	area := math.Pi * f.A * f.B
	if area <= 0 {
		return
	}
	p.value = float64(f.Bodies()) * p.bodyArea / area
}

func (p *PackingFraction) Value() float64 { return p.value }

func (p *PackingFraction) Reset() { p.value = 0 }
