package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/mapsim/internal/analysis"
	"github.com/san-kum/mapsim/internal/maps"
	"github.com/san-kum/mapsim/internal/storage"
)

const maxPlots = 6

var (
	xAxis    int
	yAxis    int
	phaseSVG string
	phasePNG string
)

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "list stored runs",
		RunE:  listRuns,
	}
}

func newPlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot each variable of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
}

func newPhaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	cmd.Flags().IntVar(&xAxis, "x-axis", 0, "variable index for x-axis (default: q)")
	cmd.Flags().IntVar(&yAxis, "y-axis", 1, "variable index for y-axis (default: p)")
	cmd.Flags().StringVar(&phaseSVG, "svg", "", "write an SVG scatter plot")
	cmd.Flags().StringVar(&phasePNG, "png", "", "write a PNG phase plot")
	return cmd
}

func newExportCSVCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run orbits to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.store.ExportCSV(os.Stdout, args[0])
		},
	}
}

func newExportJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and orbits to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.store.ExportJSON(os.Stdout, args[0])
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := app.store.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMAP\tKIND\tTIME\tORBITS\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
			run.ID,
			run.Map,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Orbits,
			run.Steps,
		)
	}

	return w.Flush()
}

// loadOrbits fetches a run's metadata and orbits. Image runs store a frame
// instead of orbits and are rejected.
func loadOrbits(runID string) (*storage.RunMetadata, []*maps.Orbit, error) {
	meta, err := app.store.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	if meta.Kind == maps.KindImage {
		return nil, nil, fmt.Errorf("run %s is an image run, see %s", runID, app.store.FramePath(runID))
	}
	orbits, err := app.store.LoadOrbits(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(orbits) == 0 || orbits[0].Len() == 0 {
		return nil, nil, fmt.Errorf("run %s has no orbit data", runID)
	}
	return meta, orbits, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	meta, orbits, err := loadOrbits(runID)
	if err != nil {
		return err
	}
	first := orbits[0]

	fmt.Printf("run: %s\n", runID)
	fmt.Printf("map: %s\n", meta.Map)
	fmt.Printf("orbits: %d, points: %d\n\n", len(orbits), first.Len())

	numVars := min(first.Dim(), maxPlots)
	for k := 0; k < numVars; k++ {
		graph := asciigraph.Plot(first.Series[k],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s vs step", first.Names[k])),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]
	meta, orbits, err := loadOrbits(runID)
	if err != nil {
		return err
	}
	first := orbits[0]

	x, y := maps.PhaseAxes(first.Names)
	if cmd.Flags().Changed("x-axis") {
		x = xAxis
	}
	if cmd.Flags().Changed("y-axis") {
		y = yAxis
	}
	dim := first.Dim()
	if x < 0 || y < 0 || x >= dim || y >= dim {
		return fmt.Errorf("run has %d variables, axes %d and %d out of range", dim, x, y)
	}

	fmt.Printf("phase space plot: %s\n", runID)
	fmt.Printf("map: %s\n", meta.Map)
	fmt.Printf("x-axis: %s, y-axis: %s\n\n", first.Names[x], first.Names[y])

	portrait := analysis.NewPhasePortrait(orbits, x, y)
	fmt.Println(analysis.PhasePortraitToASCII(portrait, meta.Modulus, 70, 20))

	return writeOrbitFiles(orbits, meta.Modulus, meta.Map, x, y, phaseSVG, phasePNG)
}
