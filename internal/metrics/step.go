package metrics

// MeanStep is the average distance between consecutive points, measured on
// the torus. Orbits from different initial points are not separated, so
// Reset between orbits when that matters.
type MeanStep struct {
	name    string
	modulus float64
	prev    []float64
	sum     float64
	samples int
}

func NewMeanStep(modulus float64) *MeanStep {
	return &MeanStep{
		name:    "mean_step",
		modulus: modulus,
	}
}

func (m *MeanStep) Name() string { return m.name }

func (m *MeanStep) Observe(point []float64) {
	if m.prev != nil {
		m.sum += torusDistance(m.prev, point, m.modulus)
		m.samples++
	} else {
		m.prev = make([]float64, len(point))
	}
	copy(m.prev, point)
}

func (m *MeanStep) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanStep) Reset() {
	m.prev = nil
	m.sum = 0
	m.samples = 0
}

// Standard returns the metrics the CLI attaches to every orbit run.
func Standard(modulus float64) []Metric {
	return []Metric{
		NewCoverage(modulus, 64),
		NewRecurrence(modulus, modulus/100),
		NewMeanStep(modulus),
	}
}
