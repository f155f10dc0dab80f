// Package diffusion simulates particles random-walking out of the unit
// disc. The walk is slower inside an inner core and particles are absorbed
// once they reach the boundary.
package diffusion

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/san-kum/mapsim/internal/dynamo"
)

// Config holds the walk parameters.
type Config struct {
	Particles   int     `yaml:"particles"`
	InnerRadius float64 `yaml:"inner_radius"`
	InnerStep   float64 `yaml:"inner_step"`
	OuterStep   float64 `yaml:"outer_step"`
	Boundary    float64 `yaml:"boundary"`
	Seed        uint64  `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Particles:   1000,
		InnerRadius: 0.3,
		InnerStep:   1.0 / 25,
		OuterStep:   1.0 / 15,
		Boundary:    1.0,
		Seed:        1,
	}
}

func (c Config) validate() error {
	switch {
	case c.Particles < 1:
		return dynamo.Invalid("particles", "need at least one particle, got %d", c.Particles)
	case !(c.Boundary > 0):
		return dynamo.Invalid("boundary", "boundary radius must be positive, got %v", c.Boundary)
	case c.InnerRadius < 0 || c.InnerRadius > c.Boundary:
		return dynamo.Invalid("inner_radius", "inner radius must lie in [0, %v], got %v", c.Boundary, c.InnerRadius)
	case !(c.InnerStep > 0) || !(c.OuterStep > 0):
		return dynamo.Invalid("step", "step lengths must be positive")
	}
	return nil
}

// Stats summarises one step. MeanDistance averages over the particles still
// active after the step and is 0 once none are left.
type Stats struct {
	Step         int     `json:"step"`
	Active       int     `json:"active"`
	Absorbed     int     `json:"absorbed"`
	MeanDistance float64 `json:"mean_distance"`
}

// Walker owns the particle positions. Active particles occupy the first
// Active slots; absorbed ones are swapped past the end and never move again.
type Walker struct {
	cfg    Config
	rng    *rand.Rand
	x, y   []float64
	active int
	step   int
}

func New(cfg Config) (*Walker, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Walker{
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		x:      make([]float64, cfg.Particles),
		y:      make([]float64, cfg.Particles),
		active: cfg.Particles,
	}, nil
}

func (w *Walker) Config() Config { return w.cfg }

// Positions returns the active particles. The slices alias internal
// storage and are only valid until the next Step.
func (w *Walker) Positions() (x, y []float64) {
	return w.x[:w.active], w.y[:w.active]
}

// Stats reports the current state without stepping.
func (w *Walker) Stats() Stats {
	sum := 0.0
	for i := 0; i < w.active; i++ {
		sum += math.Hypot(w.x[i], w.y[i])
	}
	return w.stats(sum)
}

func (w *Walker) stats(sum float64) Stats {
	s := Stats{Step: w.step, Active: w.active, Absorbed: w.cfg.Particles - w.active}
	if w.active > 0 {
		s.MeanDistance = sum / float64(w.active)
	}
	return s
}

func (w *Walker) stepLength(x, y float64) float64 {
	if math.Hypot(x, y) <= w.cfg.InnerRadius {
		return w.cfg.InnerStep
	}
	return w.cfg.OuterStep
}

// Step moves every active particle once in a uniformly random direction.
func (w *Walker) Step() Stats {
	sum := 0.0
	for i := 0; i < w.active; {
		angle := w.rng.Float64() * 2 * math.Pi
		l := w.stepLength(w.x[i], w.y[i])
		w.x[i] += math.Cos(angle) * l
		w.y[i] += math.Sin(angle) * l

		d := math.Hypot(w.x[i], w.y[i])
		if d >= w.cfg.Boundary {
			last := w.active - 1
			w.x[i], w.x[last] = w.x[last], w.x[i]
			w.y[i], w.y[last] = w.y[last], w.y[i]
			w.active--
			continue
		}
		sum += d
		i++
	}
	w.step++
	return w.stats(sum)
}

// Run steps until ctx is done, limit steps have run (limit <= 0 means no
// limit), or every particle is absorbed. observe, when non-nil, sees each
// step; returning an error from it stops the run with that error.
func (w *Walker) Run(ctx context.Context, limit int, observe func(Stats) error) error {
	for n := 0; limit <= 0 || n < limit; n++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", dynamo.ErrCanceled, ctx.Err())
		default:
		}
		if w.active == 0 {
			return nil
		}

		s := w.Step()
		if observe != nil {
			if err := observe(s); err != nil {
				return err
			}
		}
	}
	return nil
}
