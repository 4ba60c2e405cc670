package packing

import (
	"math"

	"github.com/san-kum/packsim/internal/geom"
)

// circumscribedAttempts bounds the rejection sampling of one body.
const circumscribedAttempts = 1000

// placeRandom fills q with centres uniform in the boundary shrunk by one
// body radius, stretched along x for an ellipse, and uniform angles.
func (s *Simulation) placeRandom(q []float64) {
	n := s.cfg.Bodies
	radius, aspect := s.placementRadius()
	for b := 0; b < n; b++ {
		x, y := s.samplePoint(radius)
		q[b] = x * aspect
		q[n+b] = y
		q[2*n+b] = 2 * math.Pi * s.rng.Float64()
	}
}

// placeCircumscribed rejects centres whose enclosing discs would overlap a
// body already placed. A body that finds no free spot is placed at random
// and counted in the returned total.
func (s *Simulation) placeCircumscribed(q []float64) int {
	n := s.cfg.Bodies
	radius, aspect := s.placementRadius()
	minSq := 4 * s.bodyRadius * s.bodyRadius
	forced := 0

	for b := 0; b < n; b++ {
		var x, y float64
		placed := false
		for try := 0; try < circumscribedAttempts && !placed; try++ {
			x, y = s.samplePoint(radius)
			x *= aspect
			placed = true
			for o := 0; o < b; o++ {
				dx, dy := x-q[o], y-q[n+o]
				if dx*dx+dy*dy < minSq {
					placed = false
					break
				}
			}
		}
		if !placed {
			forced++
		}
		q[b], q[n+b] = x, y
		q[2*n+b] = 2 * math.Pi * s.rng.Float64()
	}
	return forced
}

func (s *Simulation) placementRadius() (float64, float64) {
	b := s.st.Boundary()
	r := math.Max(b.ScalarRadius()-s.bodyRadius, 0)
	aspect := 1.0
	if e, ok := b.(*geom.Ellipse); ok {
		aspect = e.AspectRatio()
	}
	return r, aspect
}

func (s *Simulation) samplePoint(radius float64) (float64, float64) {
	r := radius * math.Sqrt(s.rng.Float64())
	phi := 2 * math.Pi * s.rng.Float64()
	return r * math.Cos(phi), r * math.Sin(phi)
}

// cancelPenetration pulls every body whose enclosing disc crosses the
// boundary back onto the shrunken boundary, scaling its centre towards the
// origin. It reports whether any body moved.
func (s *Simulation) cancelPenetration() (bool, error) {
	a, b := s.st.Boundary().HalfExtents()
	ia, ib := a-s.bodyRadius, b-s.bodyRadius
	if ia <= 0 || ib <= 0 {
		return false, ErrBoundaryCollapsed
	}
	n := s.cfg.Bodies
	moved := false
	err := s.st.Update(func(q []float64) {
		for k := 0; k < n; k++ {
			x, y := q[k], q[n+k]
			v := x*x/(ia*ia) + y*y/(ib*ib)
			if v > 1 {
				scale := 1 / math.Sqrt(v)
				q[k], q[n+k] = x*scale, y*scale
				moved = true
			}
		}
	})
	return moved, err
}
