package automation

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/mapsim/internal/analysis"
	"github.com/san-kum/mapsim/internal/dynamo"
)

const (
	defaultPerturbation = 0.1
	defaultThreshold    = 0.01
	lyapunovSteps       = 2000
	lyapunovD0          = 1e-8
)

// Trial is one perturbed start of an ensemble.
type Trial struct {
	Initial  []float64 `json:"initial"`
	Lyapunov float64   `json:"lyapunov"`
	Chaotic  bool      `json:"chaotic"`
}

// runEnsemble scatters trials around the initial point and estimates the
// largest Lyapunov exponent of each. Trials above the threshold count as
// chaotic.
func (r *Runner) runEnsemble(ctx context.Context, st Step) (*StepResult, error) {
	tr, err := r.reg.NewTrajectory(st.Map, st.Constants)
	if err != nil {
		return nil, err
	}

	cfg := st.Ensemble
	if cfg.Perturbation == 0 {
		cfg.Perturbation = defaultPerturbation
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = defaultThreshold
	}
	steps := st.Steps
	if steps < 1 {
		steps = lyapunovSteps
	}

	base := firstPoint(tr.Variables(), st.Initial)
	m := tr.Modulus()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	trials := make([]Trial, 0, cfg.Trials)
	for i := 0; i < cfg.Trials; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", dynamo.ErrCanceled, err)
		}
		x0 := make([]float64, len(base))
		for k, v := range base {
			x0[k] = dynamo.Mod(v+(rng.Float64()-0.5)*2*cfg.Perturbation, m)
		}
		l, err := analysis.LyapunovExponent(tr, x0, steps, lyapunovD0)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", i+1, err)
		}
		trials = append(trials, Trial{Initial: x0, Lyapunov: l, Chaotic: l > cfg.Threshold})

		if (i+1)%10 == 0 {
			r.log.Debug("ensemble progress", "map", st.Map, "trials", i+1, "of", cfg.Trials)
		}
	}

	return &StepResult{
		Map:    st.Map,
		Trials: trials,
		Metrics: map[string]float64{
			"chaotic_fraction": ChaoticFraction(trials),
			"mean_lyapunov":    meanLyapunov(trials),
		},
	}, nil
}

// ChaoticFraction is the share of trials classified as chaotic.
func ChaoticFraction(trials []Trial) float64 {
	if len(trials) == 0 {
		return 0
	}
	n := 0
	for _, t := range trials {
		if t.Chaotic {
			n++
		}
	}
	return float64(n) / float64(len(trials))
}

func meanLyapunov(trials []Trial) float64 {
	if len(trials) == 0 {
		return 0
	}
	ls := make([]float64, len(trials))
	for i, t := range trials {
		ls[i] = t.Lyapunov
	}
	return floats.Sum(ls) / float64(len(ls))
}
