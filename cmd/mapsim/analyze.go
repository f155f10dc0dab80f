package main

import (
	"fmt"
	"slices"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/mapsim/internal/analysis"
	"github.com/san-kum/mapsim/internal/config"
	"github.com/san-kum/mapsim/internal/experiment"
	"github.com/san-kum/mapsim/internal/export"
	"github.com/san-kum/mapsim/internal/maps"
)

const (
	lyapunovD0        = 1e-8
	chaoticThreshold  = 0.01
	defaultLyapSteps  = 2000
	defaultSpecSteps  = 1024
	defaultSweepCount = 200
)

// pointFlags are the starting point and constant overrides shared by the
// analysis commands.
type pointFlags struct {
	q0, p0 float64
	set    []string
}

func (f *pointFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.q0, "q0", config.DefaultQ, "initial q")
	cmd.Flags().Float64Var(&f.p0, "p0", config.DefaultP, "initial p")
	cmd.Flags().StringArrayVar(&f.set, "set", nil, "constant value NAME=VALUE (repeatable)")
}

// trajectory builds the named map with config constants (when the config
// targets this map) and --set overrides, positioned at (q0, p0).
func (f *pointFlags) trajectory(name string) (*maps.Trajectory, []float64, error) {
	overrides, err := parseAssignments(f.set)
	if err != nil {
		return nil, nil, err
	}
	var base map[string]float64
	if app.cfg.Map == name {
		base = app.cfg.Constants
	}
	tr, err := app.reg.NewTrajectory(name, mergeConstants(base, overrides))
	if err != nil {
		return nil, nil, err
	}
	initial := experiment.InitialPoints(tr.Variables(), config.InitialConfig{Q: f.q0, P: f.p0, Count: 1})
	x0 := make([]float64, len(initial))
	for k := range initial {
		x0[k] = initial[k][0]
	}
	if err := tr.SetInitial(x0...); err != nil {
		return nil, nil, err
	}
	return tr, x0, nil
}

func newLyapunovCmd() *cobra.Command {
	var (
		pf    pointFlags
		steps int
		grid  int
	)
	cmd := &cobra.Command{
		Use:   "lyapunov [map]",
		Short: "estimate the largest Lyapunov exponent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, x0, err := pf.trajectory(args[0])
			if err != nil {
				return err
			}
			if grid < 1 {
				l, err := analysis.LyapunovExponent(tr, x0, steps, lyapunovD0)
				if err != nil {
					return err
				}
				fmt.Printf("map: %s\n", tr.Name())
				fmt.Printf("initial: %v\n", x0)
				fmt.Printf("lyapunov exponent: %.6f per step\n", l)
				fmt.Printf("regime: %s\n", regime(l))
				return nil
			}
			return lyapunovGrid(tr, grid, steps)
		},
	}
	pf.bind(cmd)
	cmd.Flags().IntVar(&steps, "steps", defaultLyapSteps, "iterations per estimate")
	cmd.Flags().IntVar(&grid, "grid", 0, "estimate over an NxN grid of initial points")
	return cmd
}

func regime(l float64) string {
	if l > chaoticThreshold {
		return "chaotic"
	}
	return "regular"
}

// lyapunovGrid covers the first two variables with an n×n grid of cell
// centres over [0, modulus).
func lyapunovGrid(tr *maps.Trajectory, n, steps int) error {
	dim := len(tr.Variables())
	if dim < 2 {
		return fmt.Errorf("map %s has %d variable, grid needs 2", tr.Name(), dim)
	}
	m := tr.Modulus()
	if m <= 0 {
		m = 1
	}
	points := make([][]float64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			p := make([]float64, dim)
			p[0] = (float64(i) + 0.5) * m / float64(n)
			p[1] = (float64(j) + 0.5) * m / float64(n)
			points = append(points, p)
		}
	}

	exps, err := analysis.LyapunovSpectrum(tr, points, steps, lyapunovD0)
	if err != nil {
		return err
	}
	chaotic := 0
	for _, l := range exps {
		if l > chaoticThreshold {
			chaotic++
		}
	}
	sorted := slices.Clone(exps)
	slices.Sort(sorted)

	fmt.Printf("map: %s, %dx%d initial points\n\n", tr.Name(), n, n)
	fmt.Println(asciigraph.Plot(sorted,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("sorted lyapunov exponents"),
	))
	fmt.Println()
	fmt.Printf("mean: %.6f  std: %.6f\n", stat.Mean(exps, nil), stat.StdDev(exps, nil))
	fmt.Printf("min: %.6f  max: %.6f\n", floats.Min(exps), floats.Max(exps))
	fmt.Printf("chaotic fraction: %.3f\n", float64(chaotic)/float64(len(exps)))
	return nil
}

func newSweepCmd() *cobra.Command {
	var (
		pf        pointFlags
		constant  string
		from, to  float64
		samples   int
		variable  int
		transient int
		record    int
	)
	cmd := &cobra.Command{
		Use:   "sweep [map]",
		Short: "bifurcation-style sweep over one constant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, x0, err := pf.trajectory(args[0])
			if err != nil {
				return err
			}
			data, err := analysis.Sweep(cmd.Context(), tr, analysis.SweepConfig{
				Constant:  constant,
				From:      from,
				To:        to,
				Samples:   samples,
				Variable:  variable,
				Initial:   x0,
				Transient: transient,
				Record:    record,
			})
			if err != nil {
				return err
			}

			fmt.Printf("map: %s, %s from %.4g to %.4g, variable %s\n\n",
				tr.Name(), constant, from, to, tr.Variables()[variable])
			fmt.Println(analysis.SweepToASCII(data, 80, 24))

			counts := make([]float64, len(data))
			for i, p := range data {
				counts[i] = float64(len(p.Values))
			}
			fmt.Println()
			fmt.Println(asciigraph.Plot(counts,
				asciigraph.Height(6),
				asciigraph.Width(80),
				asciigraph.Caption("distinct values per sample"),
			))
			return nil
		},
	}
	pf.bind(cmd)
	cmd.Flags().StringVar(&constant, "const", "K", "constant to sweep")
	cmd.Flags().Float64Var(&from, "from", 0, "first constant value")
	cmd.Flags().Float64Var(&to, "to", 5, "last constant value")
	cmd.Flags().IntVar(&samples, "samples", defaultSweepCount, "number of constant values")
	cmd.Flags().IntVar(&variable, "var", 1, "variable index to record")
	cmd.Flags().IntVar(&transient, "transient", 500, "steps discarded before recording")
	cmd.Flags().IntVar(&record, "record", 100, "steps recorded per sample")
	return cmd
}

func newSpectrumCmd() *cobra.Command {
	var (
		pf       pointFlags
		steps    int
		variable int
		png      string
	)
	cmd := &cobra.Command{
		Use:   "spectrum [map]",
		Short: "power spectrum of one orbit coordinate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, _, err := pf.trajectory(args[0])
			if err != nil {
				return err
			}
			if variable < 0 || variable >= len(tr.Variables()) {
				return fmt.Errorf("map %s has no variable %d", tr.Name(), variable)
			}
			o, err := tr.Orbit(cmd.Context(), steps)
			if err != nil {
				return err
			}
			ps := analysis.PowerSpectrum(o.Series[variable])
			if len(ps) == 0 {
				return fmt.Errorf("need at least 2 steps for a spectrum")
			}

			name := o.Names[variable]
			fmt.Printf("power spectrum: %s, variable %s, %d steps\n\n", tr.Name(), name, steps)
			fmt.Println(asciigraph.Plot(ps,
				asciigraph.Height(15),
				asciigraph.Width(80),
				asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", name)),
			))
			fmt.Println()

			idx := analysis.DominantFrequency(ps)
			if idx > 0 {
				freq := float64(idx) / float64(steps)
				fmt.Printf("dominant frequency: %.4f cycles per step\n", freq)
				fmt.Printf("period: %.2f steps\n", 1/freq)
			}
			fmt.Printf("spectral peak: %.4g\n", floats.Max(ps))

			if png != "" {
				p, err := export.SeriesPlot(ps, fmt.Sprintf("%s power spectrum", tr.Name()), "frequency bin", "power")
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
	pf.bind(cmd)
	cmd.Flags().IntVar(&steps, "steps", defaultSpecSteps, "orbit length")
	cmd.Flags().IntVar(&variable, "var", 0, "variable index to analyse")
	cmd.Flags().StringVar(&png, "png", "", "write a PNG of the spectrum")
	return cmd
}
