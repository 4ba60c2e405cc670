// Package automation runs scripted sequences of compressions described in
// YAML.
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/packsim/internal/config"
)

var ErrEmptyScenario = errors.New("automation: scenario has no steps")

// Scenario is a named list of runs.
//
//	name: ellipse-rates
//	steps:
//	  - name: slow
//	    shape: ellipse
//	    preset: tiny
//	    config:
//	      compression: {rate: 0.02}
//	  - name: direct
//	    preset: tiny
//	    target: 12
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step describes one run. The configuration starts from the defaults, or
// from the preset when one is named, and the keys under config override it.
type Step struct {
	Name   string    `yaml:"name"`
	Shape  string    `yaml:"shape"`
	Preset string    `yaml:"preset"`
	Config yaml.Node `yaml:"config"`
	// Target, when positive, compresses straight to this scalar radius.
	Target float64 `yaml:"target"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, ErrEmptyScenario
	}
	for i := range scenario.Steps {
		if _, err := scenario.Steps[i].Build(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &scenario, nil
}

// Build resolves the configuration of a step and validates it.
func (s *Step) Build() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		shape := s.Shape
		if shape == "" {
			shape = cfg.Boundary.Shape
		}
		cfg = config.GetPreset(shape, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %s/%s", shape, s.Preset)
		}
	} else if s.Shape != "" {
		cfg.Boundary.Shape = s.Shape
	}
	if !s.Config.IsZero() {
		if err := s.Config.Decode(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// StepFunc performs one resolved step.
type StepFunc func(ctx context.Context, i int, step *Step, cfg *config.Config) error

// RunScenario executes the steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, run StepFunc) error {
	for i := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		step := &scenario.Steps[i]
		cfg, err := step.Build()
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := run(ctx, i, step, cfg); err != nil {
			return fmt.Errorf("step %d run: %w", i+1, err)
		}
	}
	return nil
}
