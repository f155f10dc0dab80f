package metrics

// Recurrence counts returns to the neighbourhood of the first observed
// point, as a fraction of the points seen after it. Distances wrap around
// the modulus.
type Recurrence struct {
	name    string
	modulus float64
	radius  float64
	origin  []float64
	returns int
	samples int
}

func NewRecurrence(modulus, radius float64) *Recurrence {
	return &Recurrence{
		name:    "recurrence",
		modulus: modulus,
		radius:  radius,
	}
}

func (r *Recurrence) Name() string { return r.name }

func (r *Recurrence) Observe(point []float64) {
	if r.origin == nil {
		r.origin = append([]float64(nil), point...)
		return
	}
	r.samples++
	if torusDistance(r.origin, point, r.modulus) <= r.radius {
		r.returns++
	}
}

func (r *Recurrence) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return float64(r.returns) / float64(r.samples)
}

func (r *Recurrence) Reset() {
	r.origin = nil
	r.returns = 0
	r.samples = 0
}
