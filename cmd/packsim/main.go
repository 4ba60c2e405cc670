package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/packsim/internal/automation"
	"github.com/san-kum/packsim/internal/config"
	"github.com/san-kum/packsim/internal/metrics"
	"github.com/san-kum/packsim/internal/packing"
	"github.com/san-kum/packsim/internal/potential"
	"github.com/san-kum/packsim/internal/storage"
	"github.com/san-kum/packsim/internal/viz"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	shape      string
	bodies     int
	spheres    int
	spacing    float64
	semiA      float64
	semiB      float64
	rate       float64
	steps      int
	stride     int
	family     string
	bits       int
	seed       int64
	initMode   string
	target     float64

	outFile  string
	frameIdx int
	svgWidth int
	curve    bool

	benchBodies  []int
	benchRuns    int
	benchPhi     float64
	benchSpheres int
	benchFamily  string
	benchSeed    int64
)

// residualThreshold is the max-abs gradient below which a frame counts as
// fully relaxed in the run summary.
const residualThreshold = 1e-3

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := &cobra.Command{
		Use:          "packsim",
		Short:        "rigid body packing by boundary compression",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			return viz.RunInteractive(cmd.Context(), func(cfg *config.Config) (*packing.Simulation, error) {
				return packing.New(cfg, packing.WithLogger(quiet(logger)))
			})
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".packsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a compression and store it",
		Args:  cobra.NoArgs,
		RunE:  runCompression,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().Float64Var(&target, "target", 0, "compress straight to this scalar radius and relax finely (0: stepwise run)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a compression in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy and radius of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and frames to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render a frame (or the final energy curve) to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default <run>.svg)")
	exportSVGCmd.Flags().IntVar(&frameIdx, "frame", -1, "frame id (default last)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width in pixels")
	exportSVGCmd.Flags().BoolVar(&curve, "curve", false, "plot the final energy curve instead of a frame")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure descent speed against body count",
		Args:  cobra.NoArgs,
		RunE:  benchBodiesCmd,
	}
	benchCmd.Flags().IntSliceVar(&benchBodies, "bodies", []int{50, 100, 200, 400}, "body counts")
	benchCmd.Flags().IntVar(&benchRuns, "runs", 4, "seeds per body count, run in parallel")
	benchCmd.Flags().Float64Var(&benchPhi, "fraction", 0.3, "packing fraction of the initial boundary")
	benchCmd.Flags().IntVar(&benchSpheres, "spheres", 5, "spheres per body")
	benchCmd.Flags().StringVar(&benchFamily, "potential", "exp", "potential family")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 1, "first seed")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the compressions listed in a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [shape]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shapes := []string{"circle", "ellipse"}
			if len(args) > 0 {
				shapes = args
			}
			for _, s := range shapes {
				presets := config.ListPresets(s)
				if len(presets) == 0 {
					fmt.Printf("no presets for shape: %s\n", s)
					continue
				}
				fmt.Printf("presets for %s:\n", s)
				for _, p := range presets {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, benchCmd, scenarioCmd, presetsCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration of --shape")
	f.StringVar(&shape, "shape", d.Boundary.Shape, "boundary shape (circle, ellipse)")
	f.IntVar(&bodies, "bodies", d.Bodies, "number of bodies")
	f.IntVar(&spheres, "spheres", d.SpheresPerBody, "spheres per body")
	f.Float64Var(&spacing, "spacing", d.SphereSpacing, "distance between neighbouring spheres of a body")
	f.Float64Var(&semiA, "a", d.Boundary.A, "ellipse x half-axis")
	f.Float64Var(&semiB, "b", d.Boundary.B, "boundary radius (ellipse y half-axis)")
	f.Float64Var(&rate, "rate", d.Compression.Rate, "radius decrement per compression step")
	f.IntVar(&steps, "steps", d.Compression.Steps, "compression steps")
	f.IntVar(&stride, "stride", d.Compression.OutputStride, "store every n-th compression")
	f.StringVar(&family, "potential", d.Potential.Family, "potential family ("+strings.Join(potential.Names(), ", ")+")")
	f.IntVar(&bits, "bits", d.Potential.ResolutionBits, "lookup table resolution in bits")
	f.Int64Var(&seed, "seed", d.Seed, "random seed")
	f.StringVar(&initMode, "init", d.Init, "initial placement (random, circumscribed)")
}

// loadConfig layers the preset, the config file and the changed flags, in
// that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(shape, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(shape))
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("shape") {
		cfg.Boundary.Shape = shape
	}
	if flags.Changed("bodies") {
		cfg.Bodies = bodies
	}
	if flags.Changed("spheres") {
		cfg.SpheresPerBody = spheres
	}
	if flags.Changed("spacing") {
		cfg.SphereSpacing = spacing
	}
	if flags.Changed("a") {
		cfg.Boundary.A = semiA
	}
	if flags.Changed("b") {
		cfg.Boundary.B = semiB
	}
	if flags.Changed("rate") {
		cfg.Compression.Rate = rate
	}
	if flags.Changed("steps") {
		cfg.Compression.Steps = steps
	}
	if flags.Changed("stride") {
		cfg.Compression.OutputStride = stride
	}
	if flags.Changed("potential") {
		cfg.Potential.Family = family
	}
	if flags.Changed("bits") {
		cfg.Potential.ResolutionBits = bits
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("init") {
		cfg.Init = initMode
	}
	return cfg, cfg.Validate()
}

func newLogger() (*log.Logger, error) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "packsim",
	}), nil
}

// quiet keeps warnings from a logger that would otherwise draw over a
// full-screen view.
func quiet(l *log.Logger) *log.Logger {
	q := l.With()
	if q.GetLevel() < log.WarnLevel {
		q.SetLevel(log.WarnLevel)
	}
	return q
}

func runCompression(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	return storeRun(cmd.Context(), st, cfg, target, logger)
}

// storeRun performs one compression and records it in st.
func storeRun(ctx context.Context, st *storage.Store, cfg *config.Config, target float64, logger *log.Logger) error {
	run, err := st.Create(cfg)
	if err != nil {
		return err
	}
	logger = logger.With("run", run.ID()[:8])

	sim, err := packing.New(cfg, packing.WithLogger(logger), packing.WithObserver(run))
	if err != nil {
		return err
	}
	residual := metrics.NewResidualForce(residualThreshold)
	set := metrics.Set{
		metrics.NewPackingFraction(sim.Shape().Area()),
		metrics.NewContactNumber(),
		residual,
	}
	sim.AddObserver(set)

	fmt.Printf("running %s compression (%d bodies of %d spheres)...\n", cfg.Boundary.Shape, cfg.Bodies, cfg.SpheresPerBody)
	runErr := compress(ctx, sim, target)
	if err := run.Finish(sim.FinalEnergies(), set.Values(), runErr); err != nil {
		logger.Error("failed to finish run", "err", err)
	}
	if runErr != nil {
		return runErr
	}

	fmt.Printf("run id: %s\n", run.ID())
	fmt.Printf("compressions: %d\n", sim.Compressions())
	fmt.Printf("final radius: %.4f\n", sim.State().Boundary().ScalarRadius())
	fmt.Println("\nmetrics:")
	for _, m := range set {
		fmt.Printf("  %s: %.6f\n", m.Name(), m.Value())
	}
	fmt.Printf("  relaxed_share: %.3f\n", residual.RelaxedShare())
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	return automation.RunScenario(cmd.Context(), sc, func(ctx context.Context, i int, step *automation.Step, cfg *config.Config) error {
		fmt.Printf("\n[%d/%d] %s\n", i+1, len(sc.Steps), step.Name)
		return storeRun(ctx, st, cfg, step.Target, logger.With("step", step.Name))
	})
}

func compress(ctx context.Context, sim *packing.Simulation, target float64) error {
	if _, err := sim.Initialize(ctx); err != nil {
		return err
	}
	if target > 0 {
		_, err := sim.CompressTo(ctx, target)
		return err
	}
	return sim.Compress(ctx)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	sim, err := packing.New(cfg, packing.WithLogger(quiet(logger)))
	if err != nil {
		return err
	}
	return viz.Run(cmd.Context(), sim)
}
