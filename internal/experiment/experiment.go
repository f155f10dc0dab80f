package experiment

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/mapsim/internal/config"
	"github.com/san-kum/mapsim/internal/maps"
	"github.com/san-kum/mapsim/internal/metrics"
)

type Config struct {
	Map       string
	Steps     int
	Initial   config.InitialConfig
	Constants map[string]float64
}

// FromConfig picks the experiment fields out of the application config.
func FromConfig(c *config.Config) Config {
	return Config{
		Map:       c.Map,
		Steps:     c.Steps,
		Initial:   c.Initial,
		Constants: c.Constants,
	}
}

type Result struct {
	Map       string
	Modulus   float64
	Variables []string
	Constants map[string]float64
	Orbits    []*maps.Orbit
	Metrics   map[string]float64
	Elapsed   time.Duration
}

type Experiment struct {
	cfg     Config
	def     *maps.Definition
	traj    *maps.Trajectory
	metrics []metrics.Metric
	log     *log.Logger
}

func New(reg *Registry, cfg Config, logger *log.Logger) (*Experiment, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	def, err := reg.Get(cfg.Map)
	if err != nil {
		return nil, err
	}
	if cfg.Steps <= 0 {
		cfg.Steps = def.StepCount()
	}
	traj, err := reg.NewTrajectory(cfg.Map, cfg.Constants)
	if err != nil {
		return nil, err
	}
	return &Experiment{
		cfg:     cfg,
		def:     def,
		traj:    traj,
		metrics: reg.DefaultMetrics(def),
		log:     logger,
	}, nil
}

func (e *Experiment) Trajectory() *maps.Trajectory { return e.traj }

func (e *Experiment) Definition() *maps.Definition { return e.def }

// Run iterates one orbit per initial point. Each metric is evaluated per
// orbit and averaged across orbits.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	initial := InitialPoints(e.def.Variables, e.cfg.Initial)
	e.log.Info("calculating orbits", "map", e.def.Name, "orbits", len(initial[0]), "steps", e.cfg.Steps)

	start := time.Now()
	orbits, err := e.traj.Batch(ctx, initial, e.cfg.Steps)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", e.def.Name, err)
	}

	res := &Result{
		Map:       e.def.Name,
		Modulus:   e.def.Modulus,
		Variables: e.traj.Variables(),
		Constants: e.traj.Constants(),
		Orbits:    orbits,
		Metrics:   Evaluate(e.metrics, orbits),
		Elapsed:   time.Since(start),
	}
	e.log.Debug("orbits done", "map", e.def.Name, "elapsed", res.Elapsed)
	return res, nil
}

// Evaluate runs every metric over each orbit separately and returns the
// per-metric mean.
func Evaluate(ms []metrics.Metric, orbits []*maps.Orbit) map[string]float64 {
	out := make(map[string]float64, len(ms))
	if len(orbits) == 0 {
		return out
	}
	for _, m := range ms {
		values := make([]float64, len(orbits))
		for i, o := range orbits {
			m.Reset()
			for j := 0; j < o.Len(); j++ {
				m.Observe(o.Point(j))
			}
			values[i] = m.Value()
		}
		out[m.Name()] = floats.Sum(values) / float64(len(values))
	}
	return out
}

// InitialPoints spreads ic.Count starting points along a line and returns
// them per variable, the layout Trajectory.Batch takes. A variable named
// "q" or "p" takes that coordinate; otherwise the first variable takes q,
// the second p and the rest start at 0.
func InitialPoints(variables []string, ic config.InitialConfig) [][]float64 {
	n := ic.Count
	if n < 1 {
		n = 1
	}
	qs := span(n, ic.Q, ic.Q+ic.SpreadQ)
	ps := span(n, ic.P, ic.P+ic.SpreadP)

	out := make([][]float64, len(variables))
	for k, v := range variables {
		switch {
		case v == "q":
			out[k] = qs
		case v == "p":
			out[k] = ps
		case k == 0 && !hasVariable(variables, "q"):
			out[k] = qs
		case k == 1 && !hasVariable(variables, "p"):
			out[k] = ps
		default:
			out[k] = make([]float64, n)
		}
	}
	return out
}

func span(n int, from, to float64) []float64 {
	if n == 1 {
		return []float64{from}
	}
	return floats.Span(make([]float64, n), from, to)
}

func hasVariable(variables []string, name string) bool {
	for _, v := range variables {
		if v == name {
			return true
		}
	}
	return false
}
