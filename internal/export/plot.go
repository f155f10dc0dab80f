package export

import (
	"fmt"

	"github.com/san-kum/mapsim/internal/maps"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PhasePlot builds a scatter plot of the orbits in the q-p plane (or the
// first two variables when q and p are not declared), clipped to
// [0, modulus)².
func PhasePlot(orbits []*maps.Orbit, modulus float64, title string) (*plot.Plot, error) {
	x, y := 0, 1
	if len(orbits) > 0 {
		x, y = maps.PhaseAxes(orbits[0].Names)
	}
	return PlanePlot(orbits, modulus, title, x, y)
}

// PlanePlot is PhasePlot with variables x and y on the horizontal and
// vertical axes.
func PlanePlot(orbits []*maps.Orbit, modulus float64, title string, x, y int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Min, p.X.Max = 0, modulus
	p.Y.Min, p.Y.Max = 0, modulus

	for k, o := range orbits {
		if o.Dim() < 2 {
			return nil, fmt.Errorf("orbit %d has %d variables, need 2", k, o.Dim())
		}
		if x < 0 || y < 0 || x >= o.Dim() || y >= o.Dim() {
			return nil, fmt.Errorf("orbit %d has %d variables, axes %d and %d out of range", k, o.Dim(), x, y)
		}
		if k == 0 {
			p.X.Label.Text = o.Names[x]
			p.Y.Label.Text = o.Names[y]
		}

		pts := make(plotter.XYs, o.Len())
		xs, ys := o.Series[x], o.Series[y]
		for i := range pts {
			pts[i].X, pts[i].Y = xs[i], ys[i]
		}

		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("orbit %d: %w", k, err)
		}
		s.GlyphStyle.Color = plotutil.Color(k)
		s.GlyphStyle.Radius = vg.Points(0.6)
		p.Add(s)
	}
	return p, nil
}

// SeriesPlot builds a line plot of values against their index.
func SeriesPlot(values []float64, title, xLabel, yLabel string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X, pts[i].Y = float64(i), v
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	plotutil.AddLines(p, l)
	return p, nil
}

// SavePNG writes a square plot of side inches. The format follows the
// file extension.
func SavePNG(p *plot.Plot, path string, inches float64) error {
	side := vg.Length(inches) * vg.Inch
	if err := p.Save(side, side, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
