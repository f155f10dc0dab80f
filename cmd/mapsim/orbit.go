package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/mapsim/internal/analysis"
	"github.com/san-kum/mapsim/internal/config"
	"github.com/san-kum/mapsim/internal/experiment"
	"github.com/san-kum/mapsim/internal/export"
	"github.com/san-kum/mapsim/internal/maps"
	"github.com/san-kum/mapsim/internal/storage"
)

type orbitFlags struct {
	q0, p0           float64
	count            int
	spreadQ, spreadP float64
	steps            int
	set              []string
	preset           string
	save             bool
	plot             bool
	svg, png         string
	csv              bool
}

func newOrbitCmd() *cobra.Command {
	var f orbitFlags
	cmd := &cobra.Command{
		Use:   "orbit [map]",
		Short: "iterate a standard map from one or more initial points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrbit(cmd, args[0], f)
		},
	}
	cmd.Flags().Float64Var(&f.q0, "q0", config.DefaultQ, "initial q")
	cmd.Flags().Float64Var(&f.p0, "p0", config.DefaultP, "initial p")
	cmd.Flags().IntVar(&f.count, "count", 1, "number of initial points")
	cmd.Flags().Float64Var(&f.spreadQ, "spread-q", 0, "q range covered by the initial points")
	cmd.Flags().Float64Var(&f.spreadP, "spread-p", 0, "p range covered by the initial points")
	cmd.Flags().IntVar(&f.steps, "steps", config.DefaultSteps, "orbit length")
	cmd.Flags().StringArrayVar(&f.set, "set", nil, "constant value NAME=VALUE (repeatable)")
	cmd.Flags().StringVar(&f.preset, "preset", "", "use preset configuration")
	cmd.Flags().BoolVar(&f.save, "save", false, "store the run")
	cmd.Flags().BoolVar(&f.plot, "plot", false, "print an ASCII phase portrait")
	cmd.Flags().StringVar(&f.svg, "svg", "", "write an SVG scatter plot")
	cmd.Flags().StringVar(&f.png, "png", "", "write a PNG phase plot")
	cmd.Flags().BoolVar(&f.csv, "csv", false, "print the orbits as CSV")
	return cmd
}

// orbitConfig resolves the experiment from config, preset and flags, in
// increasing priority. Flags count only when set explicitly.
func orbitConfig(cmd *cobra.Command, name string, f orbitFlags) (experiment.Config, error) {
	cfg := *app.cfg
	if cfg.Map != name {
		cfg.Constants = nil
	}
	if f.preset != "" {
		p := config.GetPreset(name, f.preset)
		if p == nil {
			return experiment.Config{}, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets(name))
		}
		cfg.Apply(p)
	}
	cfg.Map = name

	flags := cmd.Flags()
	if flags.Changed("q0") {
		cfg.Initial.Q = f.q0
	}
	if flags.Changed("p0") {
		cfg.Initial.P = f.p0
	}
	if flags.Changed("count") {
		cfg.Initial.Count = f.count
	}
	if flags.Changed("spread-q") {
		cfg.Initial.SpreadQ = f.spreadQ
	}
	if flags.Changed("spread-p") {
		cfg.Initial.SpreadP = f.spreadP
	}
	if flags.Changed("steps") {
		cfg.Steps = f.steps
	}

	overrides, err := parseAssignments(f.set)
	if err != nil {
		return experiment.Config{}, err
	}
	ec := experiment.FromConfig(&cfg)
	ec.Constants = mergeConstants(cfg.Constants, overrides)
	return ec, nil
}

func runOrbit(cmd *cobra.Command, name string, f orbitFlags) error {
	ec, err := orbitConfig(cmd, name, f)
	if err != nil {
		return err
	}
	exp, err := experiment.New(app.reg, ec, app.log)
	if err != nil {
		return err
	}
	res, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	if f.csv {
		w := csv.NewWriter(os.Stdout)
		if err := storage.WriteCSV(w, res.Variables, res.Orbits); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	}

	fmt.Printf("map: %s (mod %.6g)\n", res.Map, res.Modulus)
	fmt.Printf("orbits: %d x %d steps in %v\n", len(res.Orbits), res.Orbits[0].Len(), res.Elapsed)
	printValues("constants", res.Constants)
	printValues("metrics", res.Metrics)

	if f.save {
		if err := app.store.Init(); err != nil {
			return err
		}
		id, err := app.store.Save(storage.RunMetadata{
			Map:        res.Map,
			Kind:       maps.KindStandard,
			Modulus:    res.Modulus,
			Constants:  res.Constants,
			Metrics:    res.Metrics,
			Definition: exp.Definition(),
		}, res.Orbits)
		if err != nil {
			return err
		}
		fmt.Printf("\nrun id: %s\n", id)
	}

	if f.plot {
		last := res.Orbits[len(res.Orbits)-1]
		fmt.Println()
		fmt.Println(asciigraph.Plot(last.Series[0], asciigraph.Height(8), asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s vs step", last.Names[0]))))
		if last.Dim() >= 2 {
			x, y := maps.PhaseAxes(res.Variables)
			portrait := analysis.NewPhasePortrait(res.Orbits, x, y)
			fmt.Println()
			fmt.Println(analysis.PhasePortraitToASCII(portrait, res.Modulus, 80, 30))
		}
	}

	x, y := maps.PhaseAxes(res.Variables)
	return writeOrbitFiles(res.Orbits, res.Modulus, res.Map, x, y, f.svg, f.png)
}

// writeOrbitFiles exports the orbits in the plane of variables x and y.
func writeOrbitFiles(orbits []*maps.Orbit, modulus float64, title string, x, y int, svgPath, pngPath string) error {
	if svgPath != "" {
		svg := export.PlaneToSVG(orbits, modulus, x, y, 800, 800, nil)
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	if pngPath != "" {
		p, err := export.PlanePlot(orbits, modulus, title, x, y)
		if err != nil {
			return err
		}
		if err := export.SavePNG(p, pngPath, 6); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngPath)
	}
	return nil
}

func printValues(title string, values map[string]float64) {
	if len(values) == 0 {
		return
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("\n%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %s: %.6f\n", k, values[k])
	}
}
