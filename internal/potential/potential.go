// Package potential defines the soft repulsive interactions of a packing
// run and evaluates them through interpolated lookup tables.
//
// Every family has a particle-particle part V(r), active for 0 < r < 2, and
// a particle-wall part W(h), active for h < 1. Both vanish at their cutoff
// and decrease monotonically towards it.
package potential

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	PairDomain = 2.0
	WallDomain = 1.0
)

var ErrUnknownFamily = errors.New("potential: unknown family")

// Family is the closed-form definition of a potential.
type Family struct {
	Name string
	// Pair is V(r); PairDerivOverR is V'(r)/r.
	Pair           func(r float64) float64
	PairDerivOverR func(r float64) float64
	// Wall is W(h); WallDeriv is W'(h).
	Wall      func(h float64) float64
	WallDeriv func(h float64) float64
	// WallExtends reports that Wall and WallDeriv stay valid for h <= 0,
	// i.e. for spheres whose centre left the boundary.
	WallExtends bool
}

var invE = math.Exp(-1)

var Power = Family{
	Name: "power",
	Pair: func(r float64) float64 { return math.Pow(2-r, 2.5) },
	PairDerivOverR: func(r float64) float64 {
		return -2.5 * math.Pow(2-r, 1.5) / r
	},
	Wall:        func(h float64) float64 { return 100 * math.Pow(1-h, 2.5) },
	WallDeriv:   func(h float64) float64 { return -250 * math.Pow(1-h, 1.5) },
	WallExtends: true,
}

var ScreenedCoulomb = Family{
	Name: "screened_coulomb",
	Pair: func(r float64) float64 { return math.Exp(-r/2)/r - invE/2 },
	PairDerivOverR: func(r float64) float64 {
		return -(r + 2) * math.Exp(-r/2) / (2 * r * r * r)
	},
	Wall: func(h float64) float64 { return math.Exp(-h)/h - invE },
	WallDeriv: func(h float64) float64 {
		return -(1 + h) * math.Exp(-h) / (h * h)
	},
}

var Exp = Family{
	Name:           "exp",
	Pair:           func(r float64) float64 { return math.Exp(-r/2) - invE },
	PairDerivOverR: func(r float64) float64 { return -math.Exp(-r/2) / (2 * r) },
	Wall:           func(h float64) float64 { return 100 * (math.Exp(-h) - invE) },
	WallDeriv:      func(h float64) float64 { return -100 * math.Exp(-h) },
	WallExtends:    true,
}

var families = map[string]Family{
	Power.Name:           Power,
	ScreenedCoulomb.Name: ScreenedCoulomb,
	Exp.Name:             Exp,
}

func Lookup(name string) (Family, error) {
	f, ok := families[name]
	if !ok {
		return Family{}, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
	}
	return f, nil
}

func Names() []string {
	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Potential is a Family tabulated at a fixed resolution.
type Potential struct {
	family Family
	bits   int
	pp     *Table
	dpp    *Table
	pw     *Table
	dpw    *Table
}

func New(f Family, bits int) *Potential {
	bits = clampBits(bits)
	return &Potential{
		family: f,
		bits:   bits,
		pp:     NewTable(f.Pair, PairDomain, bits),
		dpp:    NewTable(f.PairDerivOverR, PairDomain, bits),
		pw:     NewTable(f.Wall, WallDomain, bits),
		dpw:    NewTable(f.WallDeriv, WallDomain, bits),
	}
}

// NewByName looks up a family and tabulates it.
func NewByName(name string, bits int) (*Potential, error) {
	f, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return New(f, bits), nil
}

func (p *Potential) Name() string           { return p.family.Name }
func (p *Potential) ResolutionBits() int    { return p.bits }
func (p *Potential) Family() Family         { return p.family }
func (p *Potential) Pair(r float64) float64 { return p.pp.At(r) }

func (p *Potential) PairDerivOverR(r float64) float64 { return p.dpp.At(r) }

// Wall is W(h). Gaps at or below zero fall back to the closed form when the
// family defines one there, and are zero otherwise.
func (p *Potential) Wall(h float64) float64 {
	if h < 0 {
		if p.family.WallExtends {
			return p.family.Wall(h)
		}
		return 0
	}
	return p.pw.At(h)
}

func (p *Potential) WallDeriv(h float64) float64 {
	if h < 0 {
		if p.family.WallExtends {
			return p.family.WallDeriv(h)
		}
		return 0
	}
	return p.dpw.At(h)
}
