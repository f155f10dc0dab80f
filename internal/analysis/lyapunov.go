package analysis

import (
	"math"

	"github.com/san-kum/mapsim/internal/dynamo"
	"github.com/san-kum/mapsim/internal/maps"
)

// LyapunovExponent estimates the largest Lyapunov exponent per step.
//
// A companion point starts d0 away along the first variable. After every
// step the separation is measured on the torus, its log growth is summed,
// and the companion is pulled back to distance d0 along the same direction.
func LyapunovExponent(tr *maps.Trajectory, x0 []float64, steps int, d0 float64) (float64, error) {
	if steps < 1 {
		return 0, dynamo.Invalid("steps", "need at least one step, got %d", steps)
	}
	if !(d0 > 0) {
		return 0, dynamo.Invalid("perturbation", "must be positive, got %v", d0)
	}
	m := tr.Modulus()

	x := append([]float64(nil), x0...)
	xp := append([]float64(nil), x0...)
	if len(xp) == 0 {
		return 0, dynamo.Invalid("point", "empty initial point")
	}
	xp[0] += d0

	sumLog := 0.0
	delta := make([]float64, len(x))
	for i := 0; i < steps; i++ {
		var err error
		if x, err = tr.Apply(x); err != nil {
			return 0, err
		}
		if xp, err = tr.Apply(xp); err != nil {
			return 0, err
		}

		sep := 0.0
		for k := range x {
			delta[k] = dynamo.Delta(x[k], xp[k], m)
			sep += delta[k] * delta[k]
		}
		sep = math.Sqrt(sep)
		if sep == 0 {
			// Orbits merged; restart the companion.
			xp = append(xp[:0], x...)
			xp[0] += d0
			continue
		}

		sumLog += math.Log(sep / d0)

		scale := d0 / sep
		for k := range xp {
			xp[k] = x[k] + delta[k]*scale
		}
	}
	return sumLog / float64(steps), nil
}

// LyapunovSpectrum repeats LyapunovExponent over a grid of initial points
// and returns one exponent per point, useful for mapping chaotic regions.
func LyapunovSpectrum(tr *maps.Trajectory, points [][]float64, steps int, d0 float64) ([]float64, error) {
	out := make([]float64, len(points))
	for i, p := range points {
		l, err := LyapunovExponent(tr, p, steps, d0)
		if err != nil {
			return nil, err
		}
		out[i] = l
	}
	return out, nil
}
