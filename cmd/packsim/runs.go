package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/packsim/internal/assembly"
	"github.com/san-kum/packsim/internal/export"
	"github.com/san-kum/packsim/internal/packing"
	"github.com/san-kum/packsim/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSTATUS\tFRAMES\tFINAL ENERGY")
	for _, run := range runs {
		final := "-"
		if n := len(run.FinalEnergyCurve); n > 0 {
			final = fmt.Sprintf("%.3e", run.FinalEnergyCurve[n-1])
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			run.ID[:8],
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Status,
			run.Frames,
			final,
		)
	}
	return w.Flush()
}

// resolveRun maps a run id prefix to the stored run.
func resolveRun(arg string) (*storage.Store, *storage.RunMetadata, error) {
	st := storage.New(dataDir)
	id, err := st.Resolve(arg)
	if err != nil {
		return nil, nil, err
	}
	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	return st, meta, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, meta, err := resolveRun(args[0])
	if err != nil {
		return err
	}
	rows, err := st.LoadCompressions(meta.ID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("status: %s\n", meta.Status)
	fmt.Printf("frames: %d\n\n", len(rows))

	radius := make([]float64, len(rows))
	energy := make([]float64, 0, len(rows))
	for i, r := range rows {
		radius[i] = r.ScalarRadius
		if r.Energy > 0 {
			energy = append(energy, math.Log10(r.Energy))
		}
	}

	plots := []struct {
		data    []float64
		caption string
	}{
		{energy, "log10 relaxed energy"},
		{radius, "scalar radius"},
	}
	for _, p := range plots {
		if len(p.data) < 2 {
			continue
		}
		graph := asciigraph.Plot(p.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(p.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if len(meta.Metrics) > 0 {
		fmt.Println("metrics:")
		for name, val := range meta.Metrics {
			fmt.Printf("  %s: %.6f\n", name, val)
		}
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, meta, err := resolveRun(args[0])
	if err != nil {
		return err
	}
	if outFile == "" {
		return st.ExportJSON(os.Stdout, meta.ID)
	}
	if err := st.ExportJSONFile(outFile, meta.ID); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", meta.ID, outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st, meta, err := resolveRun(args[0])
	if err != nil {
		return err
	}

	var svg string
	if curve {
		svg = export.CurveToSVG(meta.FinalEnergyCurve, svgWidth, svgWidth/2, "#00ff88", true)
	} else {
		frames, err := st.LoadFrames(meta.ID)
		if err != nil {
			return err
		}
		f, err := pickFrame(frames, frameIdx)
		if err != nil {
			return err
		}
		shape, err := assembly.NewChain(meta.Config.SpheresPerBody, meta.Config.SphereSpacing)
		if err != nil {
			return err
		}
		svg = export.FrameToSVG(f, shape, svgWidth)
	}
	if svg == "" {
		return fmt.Errorf("nothing to render for run %s", meta.ID)
	}

	path := outFile
	if path == "" {
		path = meta.ID[:8] + ".svg"
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

// pickFrame returns the frame with the given id, or the last one for id < 0.
func pickFrame(frames []packing.Frame, id int) (packing.Frame, error) {
	if len(frames) == 0 {
		return packing.Frame{}, fmt.Errorf("run has no frames")
	}
	if id < 0 {
		return frames[len(frames)-1], nil
	}
	for _, f := range frames {
		if f.Index == id {
			return f, nil
		}
	}
	return packing.Frame{}, fmt.Errorf("no frame with id %d", id)
}
