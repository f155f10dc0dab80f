package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// PowerSpectrum returns |X_k| for k in [0, n/2) of the mean-removed
// series. Any length works; go-dsp falls back to Bluestein for
// non-powers of two.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n < 2 {
		return nil
	}
	mean := floats.Sum(data) / float64(n)
	centred := make([]float64, n)
	copy(centred, data)
	floats.AddConst(-mean, centred)

	spec := fft.FFTReal(centred)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// DominantFrequency is the index of the strongest non-zero bin, in cycles
// per len(data) steps, or -1 for an empty spectrum.
func DominantFrequency(ps []float64) int {
	if len(ps) < 2 {
		return -1
	}
	return floats.MaxIdx(ps[1:]) + 1
}
