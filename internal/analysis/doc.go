// Package analysis characterises orbits of iterated maps.
//
//   - [LyapunovExponent]: largest Lyapunov exponent from two nearby orbits
//   - [Sweep]: constant sweep recording the values an orbit settles on
//   - [PowerSpectrum]: FFT power spectrum of one coordinate
//   - [NewPhasePortrait]: 2D scatter of orbit points, renderable as ASCII
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda, err := analysis.LyapunovExponent(traj, x0, 5000, 1e-8)
//	if err == nil && lambda > 0 {
//	    // orbit is chaotic
//	}
package analysis
