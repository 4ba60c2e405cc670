package metrics

import (
	"math"

	"github.com/san-kum/packsim/internal/packing"
)

// ResidualForce tracks the largest generalized force left after relaxation
// and how many frames ended above threshold.
type ResidualForce struct {
	name      string
	threshold float64
	max       float64
	unrelaxed int
	samples   int
}

func NewResidualForce(threshold float64) *ResidualForce {
	return &ResidualForce{
		name:      "residual_force",
		threshold: threshold,
	}
}

func (r *ResidualForce) Name() string {
	return r.name
}

func (r *ResidualForce) Observe(f packing.Frame) {
	r.samples++
	r.max = math.Max(r.max, f.MaxGradient)
	if f.MaxGradient > r.threshold {
		r.unrelaxed++
	}
}

func (r *ResidualForce) Value() float64 {
	return r.max
}

// RelaxedShare is the fraction of frames that ended below threshold.
func (r *ResidualForce) RelaxedShare() float64 {
	if r.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(r.unrelaxed)/float64(r.samples)
}

func (r *ResidualForce) Reset() {
	r.max = 0
	r.unrelaxed = 0
	r.samples = 0
}
