package maps

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/mapsim/internal/dynamo"
)

// Observer receives every point of an orbit as it is produced, initial
// point included. Observers are called from a single goroutine.
type Observer interface {
	Observe(point []float64)
}

// cancelCheck is how many steps run between context polls.
const cancelCheck = 1024

// Trajectory iterates a standard map. It holds the current point and the
// constant values; the zero value is not usable, use NewTrajectory.
type Trajectory struct {
	prog      *program
	state     *dynamo.State
	modulus   float64
	observers []Observer
	scratch   []float64
	work      *dynamo.State
}

// NewTrajectory validates def and prepares an iterator seeded with the
// definition defaults.
func NewTrajectory(def *Definition) (*Trajectory, error) {
	def = def.Clone()
	if def.Kind() != KindStandard {
		return nil, dynamo.Invalid("type", "map %s is a %s map, not a standard map", def.Name, def.Kind())
	}
	prog, err := compile(def)
	if err != nil {
		return nil, err
	}
	return &Trajectory{
		prog:    prog,
		state:   prog.newState(),
		modulus: def.Modulus,
		scratch: make([]float64, len(def.Variables)),
	}, nil
}

func (t *Trajectory) Name() string { return t.prog.def.Name }

func (t *Trajectory) Kind() Kind { return KindStandard }

func (t *Trajectory) Definition() *Definition { return t.prog.def.Clone() }

func (t *Trajectory) Variables() []string { return append([]string(nil), t.prog.def.Variables...) }

func (t *Trajectory) Modulus() float64 { return t.modulus }

func (t *Trajectory) AddObserver(obs Observer) { t.observers = append(t.observers, obs) }

func (t *Trajectory) Constants() map[string]float64 { return t.prog.constants(t.state) }

// SetConstant assigns a named constant. Unknown names and non-finite values
// are rejected.
func (t *Trajectory) SetConstant(name string, v float64) error {
	return t.prog.setConstant(t.state, name, v)
}

// SetInitial sets the current point, one value per variable in declared
// order.
func (t *Trajectory) SetInitial(values ...float64) error {
	if len(values) != len(t.prog.def.Variables) {
		return dynamo.Invalid("initial", "map %s has %d variables, got %d values",
			t.prog.def.Name, len(t.prog.def.Variables), len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dynamo.Invalid(t.prog.def.Variables[i], "initial value must be finite, got %v", v)
		}
		t.state.SetSlot(i, v)
	}
	return nil
}

// Current returns the current point, or an error if any variable is unset.
func (t *Trajectory) Current() ([]float64, error) {
	out := make([]float64, len(t.prog.def.Variables))
	for i := range out {
		v, err := t.state.Slot(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (t *Trajectory) ready() error {
	if err := t.prog.checkConstants(t.state); err != nil {
		return err
	}
	if missing := t.state.Missing(t.prog.def.Variables); missing != "" {
		return dynamo.Invalid(missing, "map %s: variable has no initial value", t.prog.def.Name)
	}
	return nil
}

// Next advances the current point by one step and returns it. On error the
// current point is left as it was.
func (t *Trajectory) Next() ([]float64, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	st := t.state.Clone()
	if err := t.prog.step(st, t.modulus); err != nil {
		return nil, &dynamo.IterationError{Step: 1, Wrapped: err}
	}
	t.state.CopyFrom(st)
	p, _ := t.Current()
	t.notify(p)
	return p, nil
}

// Apply maps point one step forward with the current constants. The
// current point is not touched.
func (t *Trajectory) Apply(point []float64) ([]float64, error) {
	if len(point) != len(t.prog.def.Variables) {
		return nil, dynamo.Invalid("point", "map %s has %d variables, got %d values",
			t.prog.def.Name, len(t.prog.def.Variables), len(point))
	}
	if err := t.prog.checkConstants(t.state); err != nil {
		return nil, err
	}
	if t.work == nil {
		t.work = t.state.Clone()
	} else {
		t.work.CopyFrom(t.state)
	}
	for k, v := range point {
		t.work.SetSlot(k, v)
	}
	if err := t.prog.step(t.work, t.modulus); err != nil {
		return nil, err
	}
	out := make([]float64, len(point))
	for k := range out {
		out[k], _ = t.work.Slot(k)
	}
	return out, nil
}

// Orbit iterates n points from the current point, which becomes the
// orbit's first element. The current point ends on the last element.
func (t *Trajectory) Orbit(ctx context.Context, n int) (*Orbit, error) {
	if n < 1 {
		return nil, dynamo.Invalid("steps", "orbit length must be at least 1, got %d", n)
	}
	if err := t.ready(); err != nil {
		return nil, err
	}
	st := t.state.Clone()
	o := newOrbit(t.Variables(), n)
	if err := t.run(ctx, st, o, 0); err != nil {
		return nil, err
	}
	t.state.CopyFrom(st)
	t.replay(o)
	return o, nil
}

// Batch iterates one orbit per initial point. initial[k] lists the starting
// values of variable k, so every slice must have the same length. Orbits are
// computed in parallel and returned in input order; the current point is
// not touched.
func (t *Trajectory) Batch(ctx context.Context, initial [][]float64, n int) ([]*Orbit, error) {
	if n < 1 {
		return nil, dynamo.Invalid("steps", "orbit length must be at least 1, got %d", n)
	}
	nv := len(t.prog.def.Variables)
	if len(initial) != nv {
		return nil, dynamo.Invalid("initial", "map %s has %d variables, got %d initial series",
			t.prog.def.Name, nv, len(initial))
	}
	count := len(initial[0])
	for k, s := range initial {
		if len(s) != count {
			return nil, dynamo.Invalid(t.prog.def.Variables[k], "initial series has length %d, want %d", len(s), count)
		}
		for _, v := range s {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, dynamo.Invalid(t.prog.def.Variables[k], "initial value must be finite, got %v", v)
			}
		}
	}
	if err := t.prog.checkConstants(t.state); err != nil {
		return nil, err
	}

	orbits := make([]*Orbit, count)
	errs := make([]error, dynamo.NumChunks(count, 1))
	var mu sync.Mutex
	dynamo.ParallelFor(count, 1, func(worker, start, end int) {
		st := t.state.Clone()
		for i := start; i < end; i++ {
			for k := 0; k < nv; k++ {
				st.SetSlot(k, initial[k][i])
			}
			o := newOrbit(t.Variables(), n)
			if err := t.run(ctx, st, o, i); err != nil {
				mu.Lock()
				errs[worker] = err
				mu.Unlock()
				return
			}
			orbits[i] = o
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	for _, o := range orbits {
		t.replay(o)
	}
	return orbits, nil
}

// Pairs is Batch for two-variable maps. q0 goes to the variable named q and
// p0 to p, whatever their declared order; maps without those names take
// them positionally.
func (t *Trajectory) Pairs(ctx context.Context, q0, p0 []float64, n int) ([]*Orbit, error) {
	vars := t.prog.def.Variables
	if len(vars) != 2 {
		return nil, dynamo.Invalid("variables", "map %s has %d variables, not 2", t.prog.def.Name, len(vars))
	}
	qi, pi := PhaseAxes(vars)
	initial := make([][]float64, 2)
	initial[qi], initial[pi] = q0, p0
	return t.Batch(ctx, initial, n)
}

// run fills o starting from the variables in st, leaving st on the last
// point.
func (t *Trajectory) run(ctx context.Context, st *dynamo.State, o *Orbit, index int) error {
	n := o.Len()
	for k := range o.Series {
		o.Series[k][0], _ = st.Slot(k)
	}
	for i := 1; i < n; i++ {
		if i%cancelCheck == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %v", dynamo.ErrCanceled, err)
			}
		}
		if err := t.prog.step(st, t.modulus); err != nil {
			return &dynamo.IterationError{Orbit: index, Step: i, Wrapped: err}
		}
		for k := range o.Series {
			o.Series[k][i], _ = st.Slot(k)
		}
	}
	return nil
}

func (t *Trajectory) replay(o *Orbit) {
	if len(t.observers) == 0 {
		return
	}
	for i := 0; i < o.Len(); i++ {
		for k, s := range o.Series {
			t.scratch[k] = s[i]
		}
		t.notify(t.scratch)
	}
}

func (t *Trajectory) notify(p []float64) {
	for _, obs := range t.observers {
		obs.Observe(p)
	}
}
