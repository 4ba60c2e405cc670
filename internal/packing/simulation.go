// Package packing drives a compression run: it places the bodies, relaxes
// them by gradient descent, shrinks the boundary step by step and reports
// frames to observers.
package packing

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/packsim/internal/assembly"
	"github.com/san-kum/packsim/internal/config"
	"github.com/san-kum/packsim/internal/geom"
	"github.com/san-kum/packsim/internal/potential"
	"github.com/san-kum/packsim/internal/state"
)

// penetrationRounds bounds the cancel-and-relax rounds after placement.
const penetrationRounds = 10

type Simulation struct {
	cfg        *config.Config
	st         *state.Info
	shape      *assembly.Shape
	bodyRadius float64
	rng        *rand.Rand
	logger     *log.Logger
	observers  []Observer
	sampler    *Sampler

	compressions int
	finals       []float64
}

type Option func(*Simulation)

func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

func WithObserver(o Observer) Option {
	return func(s *Simulation) { s.observers = append(s.observers, o) }
}

// WithRand replaces the generator seeded from the configuration.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulation) { s.rng = r }
}

func New(cfg *config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	boundary, err := geom.New(cfg.Boundary.Shape, cfg.Boundary.A, cfg.Boundary.B,
		geom.SolverIterations(cfg.Solver.MaxIterations),
		geom.SolverTolerance(cfg.Solver.Tolerance))
	if err != nil {
		return nil, err
	}
	shape, err := assembly.NewChain(cfg.SpheresPerBody, cfg.SphereSpacing)
	if err != nil {
		return nil, err
	}
	pot, err := potential.NewByName(cfg.Potential.Family, cfg.Potential.ResolutionBits)
	if err != nil {
		return nil, err
	}
	st, err := state.New(make([]float64, 3*cfg.Bodies), cfg.Bodies, shape, boundary, pot, cfg.Grid.MaxContacts)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:        cfg,
		st:         st,
		shape:      shape,
		bodyRadius: shape.BodyRadius(),
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		logger:     log.New(io.Discard),
		sampler:    NewSampler(cfg.Descent.EnergyStride),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulation) Config() *config.Config { return s.cfg }
func (s *Simulation) State() *state.Info     { return s.st }
func (s *Simulation) Shape() *assembly.Shape { return s.shape }
func (s *Simulation) Compressions() int      { return s.compressions }

// FinalEnergies is the relaxed energy of every emitted frame.
func (s *Simulation) FinalEnergies() []float64 {
	return append([]float64(nil), s.finals...)
}

// Initialize places the bodies and relaxes them until no overlap remains.
// The relaxed placement is emitted as frame 0.
func (s *Simulation) Initialize(ctx context.Context) (Result, error) {
	q := make([]float64, 3*s.cfg.Bodies)
	switch s.cfg.Init {
	case "circumscribed":
		if forced := s.placeCircumscribed(q); forced > 0 {
			s.logger.Warn("circumscribed placement fell back to random", "bodies", forced)
		}
	default:
		s.placeRandom(q)
	}
	if err := s.st.SetCoordinates(q); err != nil {
		return Result{}, err
	}

	res, err := s.relaxInit(ctx)
	if err != nil {
		return res, err
	}
	for round := 0; round < penetrationRounds; round++ {
		moved, err := s.cancelPenetration()
		if err != nil {
			return res, err
		}
		if !moved {
			break
		}
		if res, err = s.relaxInit(ctx); err != nil {
			return res, err
		}
	}
	if res.Energy >= s.cfg.Descent.EnergyEps {
		return res, fmt.Errorf("%w: energy %.3g after %d iterations", ErrInitTooDense, res.Energy, res.Iterations)
	}
	return res, s.emit(0, res, 0)
}

func (s *Simulation) relaxInit(ctx context.Context) (Result, error) {
	res, err := s.RelaxClassic(ctx, s.cfg.Descent.MaxInitIterations)
	if err == nil {
		s.logger.Info("initialization relaxed", "iterations", res.Iterations, "energy", res.Energy)
	}
	return res, err
}

// RelaxClassic descends at the classic step size for at most n iterations,
// stopping once the energy drops below the threshold.
func (s *Simulation) RelaxClassic(ctx context.Context, n int) (Result, error) {
	var res Result
	step := s.cfg.Descent.ClassicStep
	for res.Iterations < n {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		e, err := s.st.Step(step)
		if err != nil {
			return res, err
		}
		res.Iterations++
		res.Energy = e
		s.sampler.Push(e)
		if e < s.cfg.Descent.EnergyEps {
			break
		}
	}
	return res, nil
}

// RelaxFine descends at the fine step size. Every energy_stride iterations
// the energy is compared to the best seen so far; when the relative gain
// stays below early_stop_coef times the step size for early_stop_patience
// checks in a row, the loop stops.
func (s *Simulation) RelaxFine(ctx context.Context, n int) (Result, error) {
	d := s.cfg.Descent
	var res Result
	best := math.MaxFloat64
	patience := 0
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		e, err := s.st.Step(d.FineStep)
		if err != nil {
			return res, err
		}
		res.Iterations++
		res.Energy = e
		s.sampler.Push(e)
		if e < d.EnergyEps {
			break
		}
		if i%d.EnergyStride != 0 {
			continue
		}
		if e/best-1 > -d.EarlyStopCoef*d.FineStep {
			patience++
			if patience == d.EarlyStopPatience {
				break
			}
		} else {
			patience = 0
		}
		best = math.Min(best, e)
	}
	return res, nil
}

// fits reports whether the boundary resized to scalar radius r still has
// room for a body across its shorter half-axis.
func (s *Simulation) fits(r float64) bool {
	b := s.st.Boundary()
	ha, hb := b.HalfExtents()
	return math.Min(ha, hb)*r/b.ScalarRadius() > s.bodyRadius
}

// Step performs one compression step: it shrinks the boundary by the
// configured rate and relaxes. Every output_stride steps the result is
// emitted as a frame.
func (s *Simulation) Step(ctx context.Context) (Frame, bool, error) {
	rate := s.cfg.Compression.Rate
	if !s.fits(s.st.Boundary().ScalarRadius() - rate) {
		return Frame{}, false, ErrBoundaryCollapsed
	}
	s.st.Compress(rate)
	t := s.compressions
	s.compressions++

	start := time.Now()
	res, err := s.RelaxClassic(ctx, s.cfg.Descent.MaxIterations)
	if err != nil {
		return Frame{}, false, err
	}
	speed := itersPerSec(res.Iterations, start)
	s.logStep(t, res, speed)

	if t%s.cfg.Compression.OutputStride != 0 {
		s.sampler.Reset()
		return Frame{}, false, nil
	}
	f, err := s.frame(t+1, res, speed)
	if err != nil {
		return f, false, err
	}
	return f, true, s.publish(f)
}

// Compress runs the configured number of compression steps.
func (s *Simulation) Compress(ctx context.Context) error {
	for t := 0; t < s.cfg.Compression.Steps; t++ {
		if _, _, err := s.Step(ctx); err != nil {
			return fmt.Errorf("compression %d: %w", s.compressions, err)
		}
	}
	return nil
}

// CompressTo shrinks the boundary to radius in rate-sized steps without
// output, then relaxes finely at that radius and emits a single frame.
func (s *Simulation) CompressTo(ctx context.Context, radius float64) (Frame, error) {
	if !s.fits(radius) {
		return Frame{}, ErrBoundaryCollapsed
	}
	start := s.st.Boundary().ScalarRadius()
	rate := s.cfg.Compression.Rate
	if rate > 0 {
		steps := int((start - radius) / rate)
		for t := 1; t < steps; t++ {
			s.st.SetScalarRadius(start - float64(t)*rate)
			s.compressions++
			begin := time.Now()
			res, err := s.RelaxClassic(ctx, s.cfg.Descent.MaxIterations)
			if err != nil {
				return Frame{}, err
			}
			s.logStep(t, res, itersPerSec(res.Iterations, begin))
			s.sampler.Reset()
		}
	}
	s.st.SetScalarRadius(radius)

	begin := time.Now()
	res, err := s.RelaxFine(ctx, s.cfg.Descent.FineIterations)
	if err != nil {
		return Frame{}, err
	}
	speed := itersPerSec(res.Iterations, begin)
	s.logger.Info("fine relaxation", "iterations", res.Iterations, "energy", res.Energy)

	f, err := s.frame(s.compressions, res, speed)
	if err != nil {
		return f, err
	}
	return f, s.publish(f)
}

// itersPerSec is iterations per second since start, zero when no time elapsed.
func itersPerSec(iterations int, start time.Time) float64 {
	sec := time.Since(start).Seconds()
	if sec <= 0 {
		return 0
	}
	return float64(iterations) / sec
}

func (s *Simulation) logStep(t int, res Result, speed float64) {
	s.logger.Info("compression",
		"step", t,
		"radius", s.st.Boundary().ScalarRadius(),
		"iterations", res.Iterations,
		"energy", res.Energy,
		"speed", fmt.Sprintf("%.0f it/s", speed))
	if misses := s.st.SolverMisses(); misses > 0 {
		s.logger.Warn("boundary solver did not converge", "queries", misses)
	}
}

func (s *Simulation) emit(index int, res Result, speed float64) error {
	f, err := s.frame(index, res, speed)
	if err != nil {
		return err
	}
	return s.publish(f)
}

// Snapshot returns the current configuration as a frame without emitting it.
func (s *Simulation) Snapshot() (Frame, error) {
	e, err := s.st.Energy()
	if err != nil {
		return Frame{}, err
	}
	f, err := s.frame(s.compressions, Result{Energy: e}, 0)
	if err != nil {
		return f, err
	}
	f.EnergyCurve = s.sampler.Samples()
	return f, nil
}

func (s *Simulation) frame(index int, res Result, speed float64) (Frame, error) {
	pairs, walls, err := s.st.Contacts()
	if err != nil {
		return Frame{}, err
	}
	maxGrad, err := s.st.GradientMaxAbs()
	if err != nil {
		return Frame{}, err
	}
	b := s.st.Boundary()
	a, bb := b.HalfExtents()
	return Frame{
		Index:        index,
		ScalarRadius: b.ScalarRadius(),
		A:            a,
		B:            bb,
		Iterations:   res.Iterations,
		Energy:       res.Energy,
		Q:            s.st.Q(),
		EnergyCurve:  s.sampler.Samples(),
		PairContacts: pairs.Len(),
		WallContacts: walls.Len(),
		MaxGradient:  maxGrad,
		Speed:        speed,
	}, nil
}

func (s *Simulation) publish(f Frame) error {
	s.finals = append(s.finals, f.Energy)
	s.sampler.Reset()
	for _, o := range s.observers {
		if err := o.OnFrame(f); err != nil {
			return err
		}
	}
	return nil
}
