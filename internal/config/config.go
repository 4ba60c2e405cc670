package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBodies          = 1000
	DefaultSpheresPerBody  = 5
	DefaultSphereSpacing   = 1.0
	DefaultBoundaryRadius  = 70.0
	DefaultCompressionRate = 0.04
	DefaultCompressions    = 800
	DefaultOutputStride    = 1
	DefaultMaxContacts     = 32
	DefaultResolutionBits  = 16
	DefaultClassicStep     = 1e-3
	DefaultFineStep        = 1e-4
	DefaultEnergyEps       = 1e-7
	DefaultMaxIterations   = 10000
	DefaultInitIterations  = 20000
	DefaultFineIterations  = 100000
	DefaultEarlyStopCoef   = 0.1
	DefaultPatience        = 10
	DefaultEnergyStride    = 1000
	DefaultSolverIter      = 32
	DefaultSolverTol       = 1e-10
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Bodies         int               `yaml:"bodies"`
	SpheresPerBody int               `yaml:"spheres_per_body"`
	SphereSpacing  float64           `yaml:"sphere_spacing"`
	Boundary       BoundaryConfig    `yaml:"boundary"`
	Compression    CompressionConfig `yaml:"compression"`
	Grid           GridConfig        `yaml:"grid"`
	Potential      PotentialConfig   `yaml:"potential"`
	Descent        DescentConfig     `yaml:"descent"`
	Solver         SolverConfig      `yaml:"solver"`
	Seed           int64             `yaml:"seed"`
	Init           string            `yaml:"init"`
}

type BoundaryConfig struct {
	Shape string  `yaml:"shape"`
	A     float64 `yaml:"a"`
	B     float64 `yaml:"b"`
}

type CompressionConfig struct {
	Rate         float64 `yaml:"rate"`
	Steps        int     `yaml:"steps"`
	OutputStride int     `yaml:"output_stride"`
}

type GridConfig struct {
	MaxContacts int `yaml:"max_contacts"`
}

type PotentialConfig struct {
	Family         string `yaml:"family"`
	ResolutionBits int    `yaml:"resolution_bits"`
}

type DescentConfig struct {
	ClassicStep       float64 `yaml:"classic_step"`
	FineStep          float64 `yaml:"fine_step"`
	EnergyEps         float64 `yaml:"energy_eps"`
	MaxIterations     int     `yaml:"max_iterations"`
	MaxInitIterations int     `yaml:"max_init_iterations"`
	FineIterations    int     `yaml:"fine_iterations"`
	EarlyStopCoef     float64 `yaml:"early_stop_coef"`
	EarlyStopPatience int     `yaml:"early_stop_patience"`
	EnergyStride      int     `yaml:"energy_stride"`
}

type SolverConfig struct {
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
}

func DefaultConfig() *Config {
	return &Config{
		Bodies:         DefaultBodies,
		SpheresPerBody: DefaultSpheresPerBody,
		SphereSpacing:  DefaultSphereSpacing,
		Boundary: BoundaryConfig{
			Shape: "circle",
			A:     DefaultBoundaryRadius,
			B:     DefaultBoundaryRadius,
		},
		Compression: CompressionConfig{
			Rate:         DefaultCompressionRate,
			Steps:        DefaultCompressions,
			OutputStride: DefaultOutputStride,
		},
		Grid: GridConfig{MaxContacts: DefaultMaxContacts},
		Potential: PotentialConfig{
			Family:         "exp",
			ResolutionBits: DefaultResolutionBits,
		},
		Descent: DescentConfig{
			ClassicStep:       DefaultClassicStep,
			FineStep:          DefaultFineStep,
			EnergyEps:         DefaultEnergyEps,
			MaxIterations:     DefaultMaxIterations,
			MaxInitIterations: DefaultInitIterations,
			FineIterations:    DefaultFineIterations,
			EarlyStopCoef:     DefaultEarlyStopCoef,
			EarlyStopPatience: DefaultPatience,
			EnergyStride:      DefaultEnergyStride,
		},
		Solver: SolverConfig{
			MaxIterations: DefaultSolverIter,
			Tolerance:     DefaultSolverTol,
		},
		Init: "random",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy; presets hand out clones so callers may edit them.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// BodyRadius is the radius of the disc enclosing one body.
func (c *Config) BodyRadius() float64 {
	return 1 + float64(c.SpheresPerBody-1)*c.SphereSpacing/2
}

func (c *Config) Validate() error {
	switch {
	case c.Bodies <= 0:
		return fmt.Errorf("%w: bodies must be positive, got %d", ErrInvalid, c.Bodies)
	case c.SpheresPerBody <= 0:
		return fmt.Errorf("%w: spheres_per_body must be positive, got %d", ErrInvalid, c.SpheresPerBody)
	case c.SphereSpacing < 0:
		return fmt.Errorf("%w: sphere_spacing must not be negative", ErrInvalid)
	}

	switch c.Boundary.Shape {
	case "circle":
	case "ellipse":
		if c.Boundary.A <= 0 {
			return fmt.Errorf("%w: boundary.a must be positive for an ellipse", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: boundary.shape %q (want circle or ellipse)", ErrInvalid, c.Boundary.Shape)
	}
	if c.Boundary.B <= c.BodyRadius() {
		return fmt.Errorf("%w: boundary.b %.3g leaves no room for a body of radius %.3g", ErrInvalid, c.Boundary.B, c.BodyRadius())
	}
	if c.Boundary.Shape == "ellipse" && c.Boundary.A <= c.BodyRadius() {
		return fmt.Errorf("%w: boundary.a %.3g leaves no room for a body of radius %.3g", ErrInvalid, c.Boundary.A, c.BodyRadius())
	}

	if c.Compression.Rate < 0 {
		return fmt.Errorf("%w: compression.rate must not be negative", ErrInvalid)
	}
	if c.Compression.OutputStride <= 0 {
		return fmt.Errorf("%w: compression.output_stride must be positive", ErrInvalid)
	}
	if c.Grid.MaxContacts <= 0 {
		return fmt.Errorf("%w: grid.max_contacts must be positive", ErrInvalid)
	}

	switch c.Potential.Family {
	case "power", "screened_coulomb", "exp":
	default:
		return fmt.Errorf("%w: potential.family %q", ErrInvalid, c.Potential.Family)
	}
	if b := c.Potential.ResolutionBits; b < 8 || b > 24 {
		return fmt.Errorf("%w: potential.resolution_bits %d outside [8, 24]", ErrInvalid, b)
	}

	d := c.Descent
	if d.ClassicStep <= 0 || d.FineStep <= 0 {
		return fmt.Errorf("%w: descent step sizes must be positive", ErrInvalid)
	}
	if d.EnergyEps <= 0 {
		return fmt.Errorf("%w: descent.energy_eps must be positive", ErrInvalid)
	}
	if d.MaxIterations <= 0 || d.MaxInitIterations <= 0 || d.FineIterations <= 0 {
		return fmt.Errorf("%w: descent iteration limits must be positive", ErrInvalid)
	}
	if d.EnergyStride <= 0 || d.EarlyStopPatience <= 0 {
		return fmt.Errorf("%w: descent.energy_stride and early_stop_patience must be positive", ErrInvalid)
	}

	switch c.Init {
	case "random", "circumscribed":
	default:
		return fmt.Errorf("%w: init %q (want random or circumscribed)", ErrInvalid, c.Init)
	}
	return nil
}
