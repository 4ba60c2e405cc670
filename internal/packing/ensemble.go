package packing

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/packsim/internal/config"
)

// Ensemble runs independent simulations of one configuration with
// consecutive seeds. Each member owns its state, so members run in parallel.
type Ensemble struct {
	cfg       *config.Config
	runs      int
	seedStart int64
	workers   int
	opts      []Option
}

// NewEnsemble prepares runs members seeded seedStart, seedStart+1, ...
// The options are applied to every member and must tolerate concurrent use.
func NewEnsemble(cfg *config.Config, runs int, seedStart int64, opts ...Option) *Ensemble {
	return &Ensemble{
		cfg:       cfg,
		runs:      runs,
		seedStart: seedStart,
		workers:   runtime.GOMAXPROCS(0),
		opts:      opts,
	}
}

// SetWorkers bounds how many members run at once.
func (e *Ensemble) SetWorkers(n int) {
	if n > 0 {
		e.workers = n
	}
}

// Run builds every member and calls job on it. The first failure cancels
// the context of the remaining members and is returned.
func (e *Ensemble) Run(ctx context.Context, job func(ctx context.Context, i int, s *Simulation) error) ([]*Simulation, error) {
	sims := make([]*Simulation, e.runs)
	for i := range sims {
		cfg := e.cfg.Clone()
		cfg.Seed = e.seedStart + int64(i)
		s, err := New(cfg, e.opts...)
		if err != nil {
			return nil, err
		}
		sims[i] = s
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, s := range sims {
		i, s := i, s
		g.Go(func() error { return job(ctx, i, s) })
	}
	if err := g.Wait(); err != nil {
		return sims, err
	}
	return sims, nil
}
