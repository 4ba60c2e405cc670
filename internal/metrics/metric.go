// Package metrics summarises the frames of a packing run.
package metrics

import "github.com/san-kum/packsim/internal/packing"

type Metric interface {
	Name() string
	Observe(f packing.Frame)
	Value() float64
	Reset()
}

// Set feeds every frame to its metrics. It is a packing.Observer.
type Set []Metric

func (s Set) OnFrame(f packing.Frame) error {
	for _, m := range s {
		m.Observe(f)
	}
	return nil
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}
