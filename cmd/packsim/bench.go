package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/packsim/internal/assembly"
	"github.com/san-kum/packsim/internal/config"
	"github.com/san-kum/packsim/internal/packing"
)

// benchConfig sizes a circular boundary so the bodies fill the given
// fraction of it.
func benchConfig(n, m int, fraction float64, family string) (*config.Config, error) {
	shape, err := assembly.NewChain(m, 1)
	if err != nil {
		return nil, err
	}
	cfg := config.DefaultConfig()
	cfg.Bodies = n
	cfg.SpheresPerBody = m
	cfg.Potential.Family = family
	r := math.Sqrt(float64(n)*shape.Area()/(fraction*math.Pi)) + shape.BodyRadius()
	cfg.Boundary.A, cfg.Boundary.B = r, r
	return cfg, cfg.Validate()
}

func benchBodiesCmd(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %d-sphere chains at packing fraction %.2f\n\n", benchSpheres, benchPhi)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODIES\tSPHERES\tRADIUS\tRUNS\tITERATIONS\tTIME\tSTEPS/SEC")

	for _, n := range benchBodies {
		cfg, err := benchConfig(n, benchSpheres, benchPhi, benchFamily)
		if err != nil {
			return err
		}

		var iterations atomic.Int64
		ensemble := packing.NewEnsemble(cfg, benchRuns, benchSeed, packing.WithLogger(quiet(logger)))
		start := time.Now()
		_, err = ensemble.Run(cmd.Context(), func(ctx context.Context, i int, s *packing.Simulation) error {
			res, err := s.Initialize(ctx)
			iterations.Add(int64(res.Iterations))
			return err
		})
		elapsed := time.Since(start)
		if err != nil {
			return fmt.Errorf("%d bodies: %w", n, err)
		}

		total := iterations.Load()
		fmt.Fprintf(w, "%d\t%d\t%.2f\t%d\t%d\t%v\t%.0f\n",
			n,
			n*benchSpheres,
			cfg.Boundary.B,
			benchRuns,
			total,
			elapsed.Round(time.Millisecond),
			float64(total)/elapsed.Seconds(),
		)
	}
	return w.Flush()
}
