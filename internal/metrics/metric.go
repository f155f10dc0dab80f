package metrics

import (
	"math"

	"github.com/san-kum/mapsim/internal/dynamo"
)

// Metric accumulates a scalar over the points of one or more orbits. It
// satisfies maps.Observer.
type Metric interface {
	Name() string
	Observe(point []float64)
	Value() float64
	Reset()
}

func torusDistance(a, b []float64, m float64) float64 {
	sum := 0.0
	for k := range a {
		d := dynamo.Delta(a[k], b[k], m)
		sum += d * d
	}
	return math.Sqrt(sum)
}
