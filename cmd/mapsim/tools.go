package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/mapsim/internal/automation"
	"github.com/san-kum/mapsim/internal/config"
	"github.com/san-kum/mapsim/internal/diffusion"
	"github.com/san-kum/mapsim/internal/export"
	"github.com/san-kum/mapsim/internal/expr"
	"github.com/san-kum/mapsim/internal/grid"
	"github.com/san-kum/mapsim/internal/maps"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list known maps",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tMOD\tVARIABLES\tCONSTANTS\tSOURCE")
			for _, name := range app.reg.ListMaps() {
				def, err := app.reg.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%.6g\t%s\t%s\t%s\n",
					def.Name,
					def.Kind(),
					def.Modulus,
					strings.Join(def.Variables, ","),
					strings.Join(def.Constants, ","),
					app.reg.Source(name),
				)
			}
			return w.Flush()
		},
	}
}

func newShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show [map]",
		Short: "print a map definition and its compiled expressions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := app.reg.Get(args[0])
			if err != nil {
				return err
			}
			data, err := maps.Encode(def, maps.Format(format))
			if err != nil {
				return err
			}
			fmt.Println(strings.TrimRight(string(data), "\n"))

			syms, err := def.Symbols()
			if err != nil {
				return err
			}
			fmt.Println("\ncompiled:")
			for _, v := range def.Variables {
				e, err := expr.Compile(def.Functions[v], syms)
				if err != nil {
					return err
				}
				fmt.Printf("  %s' = %s\n", v, e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(maps.FormatYAML), "output format (json, yaml)")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "check a map definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := maps.ReadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: ok (%s map %s, %d variables, %d constants)\n",
				args[0], def.Kind(), def.Name, len(def.Variables), len(def.Constants))
			return nil
		},
	}
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [map]",
		Short: "list available presets for a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, name := range presets {
				p := config.GetPreset(args[0], name)
				fmt.Printf("  %-12s constants=%v steps=%d orbits=%d\n", name, p.Constants, p.Steps, p.Initial.Count)
			}
			return nil
		},
	}
}

func newLiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "live [map]",
		Short: "open the interactive explorer on one map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.reg.Get(args[0]); err != nil {
				return err
			}
			return runTUI(cmd.Context(), args[0])
		},
	}
}

func newPermuteCmd() *cobra.Command {
	var (
		image      string
		iterations int
		size       int
		out        string
		gifPath    string
		set        []string
	)
	cmd := &cobra.Command{
		Use:   "permute [map]",
		Short: "apply an image map to a square raster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseAssignments(set)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("image") && app.cfg.Map == args[0] {
				image = app.cfg.Image.Path
			}
			p, err := app.reg.NewPermutation(args[0], image, size, overrides)
			if err != nil {
				return err
			}

			frames := []*grid.Grid{p.Frame().Clone()}
			for i := 0; i < iterations; i++ {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				app.log.Info("computing frame", "map", p.Name(), "frame", i+1, "size", p.Size())
				if err := p.Step(); err != nil {
					return err
				}
				if gifPath != "" {
					frames = append(frames, p.Frame().Clone())
				}
			}

			if err := grid.Save(out, p.Frame()); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%dx%d after %d iterations)\n", out, p.Size(), p.Size(), p.Steps())
			if gifPath != "" {
				if err := export.GridsToGIF(gifPath, frames, export.DefaultDelay); err != nil {
					return err
				}
				fmt.Printf("wrote %s (%d frames)\n", gifPath, len(frames))
			}
			if p.Frame().Equal(p.Base()) && p.Steps() > 0 {
				fmt.Printf("frame matches the original after %d iterations\n", p.Steps())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&image, "image", "", "source image (default: the map's image or a checkerboard)")
	cmd.Flags().IntVar(&iterations, "iterations", config.DefaultIterations, "number of permutation steps")
	cmd.Flags().IntVar(&size, "size", 0, "resize the image to this side length")
	cmd.Flags().StringVar(&out, "out", "frame.png", "output PNG path")
	cmd.Flags().StringVar(&gifPath, "gif", "", "write every frame to an animated GIF")
	cmd.Flags().StringArrayVar(&set, "set", nil, "constant value NAME=VALUE (repeatable)")
	return cmd
}

func newWalkCmd() *cobra.Command {
	var (
		particles int
		steps     int
		seed      uint64
		png       string
	)
	cmd := &cobra.Command{
		Use:   "walk",
		Short: "random walk in a disc with an absorbing boundary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg.Diffusion
			if cfg.Particles == 0 {
				cfg = diffusion.DefaultConfig()
			}
			if cmd.Flags().Changed("particles") {
				cfg.Particles = particles
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			w, err := diffusion.New(cfg)
			if err != nil {
				return err
			}

			var mean, active []float64
			err = w.Run(cmd.Context(), steps, func(s diffusion.Stats) error {
				mean = append(mean, s.MeanDistance)
				active = append(active, float64(s.Active))
				return nil
			})
			if err != nil {
				return err
			}
			if len(mean) == 0 {
				return fmt.Errorf("walk produced no steps")
			}

			last := w.Stats()
			fmt.Printf("particles: %d, steps: %d, seed: %d\n\n", cfg.Particles, last.Step, cfg.Seed)
			fmt.Println(asciigraph.Plot(mean,
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption("mean distance from centre"),
			))
			fmt.Println()
			fmt.Println(asciigraph.Plot(active,
				asciigraph.Height(6),
				asciigraph.Width(80),
				asciigraph.Caption("surviving particles"),
			))
			fmt.Printf("\nactive: %d  absorbed: %d\n", last.Active, last.Absorbed)

			if png != "" {
				p, err := export.SeriesPlot(mean, "mean distance", "step", "distance")
				if err != nil {
					return err
				}
				if err := export.SavePNG(p, png, 6); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", png)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&particles, "particles", 1000, "number of particles")
	cmd.Flags().IntVar(&steps, "steps", 1000, "number of steps")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&png, "png", "", "write a PNG of the mean distance")
	return cmd
}

func newScenarioCmd() *cobra.Command {
	var (
		out    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "run a batch of steps from a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(app.cfg.DataDir, sc.Name)
			}
			if err := os.MkdirAll(out, 0755); err != nil {
				return err
			}
			if err := app.store.Init(); err != nil {
				return err
			}

			runner := automation.NewRunner(app.reg, app.store, app.log, out)
			results, runErr := runner.Run(cmd.Context(), sc)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
				return runErr
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tKIND\tMAP\tRUN\tFILES")
			for _, r := range results {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.Index, r.Kind, r.Map, r.RunID, strings.Join(r.Files, ","))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			for _, r := range results {
				printValues(fmt.Sprintf("step %d metrics", r.Index), r.Metrics)
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output directory (default: <data>/<scenario name>)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}
