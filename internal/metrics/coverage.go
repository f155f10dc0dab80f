package metrics

import "math"

// Coverage is the fraction of cells of a bins×bins phase-space grid that
// the orbit has visited, using the first two coordinates. Chaotic orbits
// spread toward 1, regular ones stay near a curve.
type Coverage struct {
	name    string
	modulus float64
	bins    int
	visited map[int]struct{}
}

func NewCoverage(modulus float64, bins int) *Coverage {
	if bins < 1 {
		bins = 1
	}
	return &Coverage{
		name:    "coverage",
		modulus: modulus,
		bins:    bins,
		visited: make(map[int]struct{}),
	}
}

func (c *Coverage) Name() string { return c.name }

func (c *Coverage) Observe(point []float64) {
	if len(point) < 2 || c.modulus <= 0 {
		return
	}
	c.visited[c.cell(point[0])*c.bins+c.cell(point[1])] = struct{}{}
}

func (c *Coverage) cell(v float64) int {
	i := int(math.Floor(v / c.modulus * float64(c.bins)))
	if i < 0 {
		return 0
	}
	if i >= c.bins {
		return c.bins - 1
	}
	return i
}

func (c *Coverage) Value() float64 {
	return float64(len(c.visited)) / float64(c.bins*c.bins)
}

func (c *Coverage) Reset() {
	c.visited = make(map[int]struct{})
}
