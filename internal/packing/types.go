package packing

import "errors"

var (
	// ErrInitTooDense indicates the initial placement could not be relaxed
	// below the energy threshold. Callers may retry with another seed.
	ErrInitTooDense = errors.New("packing: initial configuration too dense to relax")

	// ErrBoundaryCollapsed indicates a compression would shrink the boundary
	// below the size of a single body.
	ErrBoundaryCollapsed = errors.New("packing: boundary cannot shrink further")
)

// Result summarises one relaxation loop.
type Result struct {
	Iterations int
	Energy     float64
}

// Frame is a snapshot of the run emitted after a compression step.
type Frame struct {
	Index        int       `json:"id"`
	ScalarRadius float64   `json:"scalar_radius"`
	A            float64   `json:"a"`
	B            float64   `json:"b"`
	Iterations   int       `json:"iterations"`
	Energy       float64   `json:"energy"`
	Q            []float64 `json:"q"`
	EnergyCurve  []float64 `json:"energy_curve"`
	PairContacts int       `json:"pair_contacts"`
	WallContacts int       `json:"wall_contacts"`
	MaxGradient  float64   `json:"max_gradient"`
	Speed        float64   `json:"speed"`
}

func (f *Frame) Bodies() int { return len(f.Q) / 3 }

func (f *Frame) X() []float64      { n := f.Bodies(); return f.Q[:n] }
func (f *Frame) Y() []float64      { n := f.Bodies(); return f.Q[n : 2*n] }
func (f *Frame) Angles() []float64 { n := f.Bodies(); return f.Q[2*n:] }

type Observer interface {
	OnFrame(f Frame) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Frame) error

func (fn ObserverFunc) OnFrame(f Frame) error { return fn(f) }
