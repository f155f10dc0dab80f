package maps

// Orbit is the sequence of points visited from one initial point. Series[k]
// holds the values of variable Names[k]; index 0 is the initial value.
type Orbit struct {
	Names  []string
	Series [][]float64
}

func newOrbit(names []string, n int) *Orbit {
	o := &Orbit{Names: names, Series: make([][]float64, len(names))}
	for k := range o.Series {
		o.Series[k] = make([]float64, n)
	}
	return o
}

// Len is the number of points, initial point included.
func (o *Orbit) Len() int {
	if len(o.Series) == 0 {
		return 0
	}
	return len(o.Series[0])
}

// Dim is the number of variables.
func (o *Orbit) Dim() int { return len(o.Names) }

// Point copies out the i-th point.
func (o *Orbit) Point(i int) []float64 {
	p := make([]float64, len(o.Series))
	for k, s := range o.Series {
		p[k] = s[i]
	}
	return p
}

// Last returns the final point of the orbit.
func (o *Orbit) Last() []float64 { return o.Point(o.Len() - 1) }

// Variable returns the series for name, or nil.
func (o *Orbit) Variable(name string) []float64 {
	for k, n := range o.Names {
		if n == name {
			return o.Series[k]
		}
	}
	return nil
}

// Q returns the series named "q", falling back to the first variable.
func (o *Orbit) Q() []float64 {
	if s := o.Variable("q"); s != nil {
		return s
	}
	return o.axis(0)
}

// P returns the series named "p", falling back to the second variable.
func (o *Orbit) P() []float64 {
	if s := o.Variable("p"); s != nil {
		return s
	}
	return o.axis(1)
}

// PhaseAxes picks the phase-plane axes for variables: the indices of q and
// p when both are declared, otherwise the first two.
func PhaseAxes(variables []string) (x, y int) {
	x, y = -1, -1
	for i, v := range variables {
		switch v {
		case "q":
			x = i
		case "p":
			y = i
		}
	}
	if x < 0 || y < 0 {
		return 0, 1
	}
	return x, y
}

func (o *Orbit) axis(k int) []float64 {
	if k < len(o.Series) {
		return o.Series[k]
	}
	return nil
}

// Tail drops the first skip points, sharing the underlying arrays.
func (o *Orbit) Tail(skip int) *Orbit {
	if skip <= 0 {
		return o
	}
	if skip > o.Len() {
		skip = o.Len()
	}
	t := &Orbit{Names: o.Names, Series: make([][]float64, len(o.Series))}
	for k, s := range o.Series {
		t.Series[k] = s[skip:]
	}
	return t
}
