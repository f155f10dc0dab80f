package automation

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/mapsim/internal/analysis"
	"github.com/san-kum/mapsim/internal/diffusion"
	"github.com/san-kum/mapsim/internal/dynamo"
	"github.com/san-kum/mapsim/internal/experiment"
	"github.com/san-kum/mapsim/internal/export"
	"github.com/san-kum/mapsim/internal/grid"
	"github.com/san-kum/mapsim/internal/maps"
	"github.com/san-kum/mapsim/internal/storage"
)

const defaultWalkSteps = 1000

func (r *Runner) runOrbit(ctx context.Context, st Step) (*StepResult, error) {
	exp, err := experiment.New(r.reg, experiment.Config{
		Map:       st.Map,
		Steps:     st.Steps,
		Initial:   initialOrDefault(st.Initial),
		Constants: st.Constants,
	}, r.log)
	if err != nil {
		return nil, err
	}
	out, err := exp.Run(ctx)
	if err != nil {
		return nil, err
	}

	res := &StepResult{Map: out.Map, Metrics: out.Metrics, Orbits: out.Orbits}
	if st.Save {
		res.RunID, err = r.save(storage.RunMetadata{
			Map:        out.Map,
			Kind:       maps.KindStandard,
			Modulus:    out.Modulus,
			Constants:  out.Constants,
			Metrics:    out.Metrics,
			Definition: exp.Definition(),
		}, out.Orbits)
		if err != nil {
			return nil, err
		}
	}

	err = r.write(res, st.SVG, func(path string) error {
		return os.WriteFile(path, []byte(export.OrbitsToSVG(out.Orbits, out.Modulus, 800, 800, nil)), 0644)
	})
	if err != nil {
		return nil, err
	}
	err = r.write(res, st.PNG, func(path string) error {
		p, err := export.PhasePlot(out.Orbits, out.Modulus, out.Map)
		if err != nil {
			return err
		}
		return export.SavePNG(p, path, 6)
	})
	if err != nil {
		return nil, err
	}
	err = r.write(res, st.CSV, func(path string) error {
		return writeCSV(path, func(w *csv.Writer) error {
			return storage.WriteCSV(w, out.Variables, out.Orbits)
		})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Runner) runPermute(ctx context.Context, sc *Scenario, st Step) (*StepResult, error) {
	image := st.Image
	if image != "" && !filepath.IsAbs(image) {
		image = filepath.Join(sc.dir, image)
	}
	p, err := r.reg.NewPermutation(st.Map, image, st.Size, st.Constants)
	if err != nil {
		return nil, err
	}

	n := st.Iterations
	if n < 1 {
		n = 1
	}
	var frames []*grid.Grid
	if st.GIF != "" {
		frames = append(frames, p.Frame().Clone())
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", dynamo.ErrCanceled, err)
		}
		r.log.Info("computing frame", "map", st.Map, "iteration", i+1)
		if err := p.Step(); err != nil {
			return nil, err
		}
		if frames != nil {
			frames = append(frames, p.Frame().Clone())
		}
	}

	res := &StepResult{
		Map:     st.Map,
		Metrics: map[string]float64{"iterations": float64(p.Steps()), "size": float64(p.Size())},
	}
	if st.Save {
		def := p.Definition()
		res.RunID, err = r.save(storage.RunMetadata{
			Map:        st.Map,
			Kind:       maps.KindImage,
			Modulus:    float64(p.Size()),
			Variables:  def.Variables,
			Constants:  p.Constants(),
			Steps:      p.Steps(),
			Metrics:    res.Metrics,
			Definition: def,
		}, nil)
		if err != nil {
			return nil, err
		}
		if err := grid.Save(r.store.FramePath(res.RunID), p.Frame()); err != nil {
			return nil, err
		}
	}

	err = r.write(res, st.PNG, func(path string) error { return grid.Save(path, p.Frame()) })
	if err != nil {
		return nil, err
	}
	err = r.write(res, st.GIF, func(path string) error { return export.GridsToGIF(path, frames, export.DefaultDelay) })
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Runner) runWalk(ctx context.Context, st Step) (*StepResult, error) {
	cfg := walkConfig(st.Walk)
	w, err := diffusion.New(cfg)
	if err != nil {
		return nil, err
	}
	steps := st.Steps
	if steps < 1 {
		steps = defaultWalkSteps
	}

	var mean []float64
	last := w.Stats()
	err = w.Run(ctx, steps, func(s diffusion.Stats) error {
		mean = append(mean, s.MeanDistance)
		last = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("walk finished", "steps", last.Step, "active", last.Active, "absorbed", last.Absorbed)

	res := &StepResult{Metrics: map[string]float64{
		"steps":         float64(last.Step),
		"active":        float64(last.Active),
		"absorbed":      float64(last.Absorbed),
		"mean_distance": last.MeanDistance,
	}}
	err = r.write(res, st.PNG, func(path string) error {
		p, err := export.SeriesPlot(mean, "diffusion", "step", "mean distance")
		if err != nil {
			return err
		}
		return export.SavePNG(p, path, 6)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// walkConfig fills the zero fields of c from the defaults.
func walkConfig(c *diffusion.Config) diffusion.Config {
	def := diffusion.DefaultConfig()
	if c == nil {
		return def
	}
	out := *c
	if out.Particles == 0 {
		out.Particles = def.Particles
	}
	if out.InnerStep == 0 {
		out.InnerStep = def.InnerStep
	}
	if out.OuterStep == 0 {
		out.OuterStep = def.OuterStep
	}
	if out.Boundary == 0 {
		out.Boundary = def.Boundary
	}
	return out
}

func (r *Runner) runSweep(ctx context.Context, st Step) (*StepResult, error) {
	tr, err := r.reg.NewTrajectory(st.Map, st.Constants)
	if err != nil {
		return nil, err
	}
	points, err := analysis.Sweep(ctx, tr, analysis.SweepConfig{
		Constant:  st.Sweep.Constant,
		From:      st.Sweep.From,
		To:        st.Sweep.To,
		Samples:   st.Sweep.Samples,
		Initial:   firstPoint(tr.Variables(), st.Initial),
		Transient: st.Sweep.Transient,
		Record:    st.Sweep.Record,
	})
	if err != nil {
		return nil, err
	}

	distinct := 0
	for _, p := range points {
		distinct += len(p.Values)
	}
	res := &StepResult{
		Map:     st.Map,
		Sweep:   points,
		Metrics: map[string]float64{"samples": float64(len(points)), "mean_distinct": float64(distinct) / float64(len(points))},
	}
	err = r.write(res, st.CSV, func(path string) error {
		return writeCSV(path, func(w *csv.Writer) error {
			if err := w.Write([]string{st.Sweep.Constant, tr.Variables()[0]}); err != nil {
				return err
			}
			for _, p := range points {
				for _, v := range p.Values {
					row := []string{strconv.FormatFloat(p.Param, 'g', -1, 64), strconv.FormatFloat(v, 'g', -1, 64)}
					if err := w.Write(row); err != nil {
						return err
					}
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func writeCSV(path string, fn func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
