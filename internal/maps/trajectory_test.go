package maps

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/mapsim/internal/dynamo"
)

func standardMap(t *testing.T, k float64) *Trajectory {
	t.Helper()
	def, _ := Builtin("StandardMap")
	tr, err := NewTrajectory(def)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.SetConstant("K", k); err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestStandardMapExample(t *testing.T) {
	tr := standardMap(t, 1)
	if err := tr.SetInitial(0.5, 0.5); err != nil {
		t.Fatal(err)
	}
	o, err := tr.Orbit(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"Q[0]", o.Q()[0], 0.5},
		{"P[0]", o.P()[0], 0.5},
		{"Q[1]", o.Q()[1], 1.0},
		{"P[1]", o.P()[1], 0.5 + math.Sin(1.0)},
		{"Q[2]", o.Q()[2], 1.0 + 0.5 + math.Sin(1.0)},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-12 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if math.Abs(o.P()[1]-1.3415) > 1e-4 {
		t.Errorf("P[1] = %v, want about 1.3415", o.P()[1])
	}
}

func TestStandardMapWithoutKickIsLinear(t *testing.T) {
	tr := standardMap(t, 0)
	q0, p0 := 0.3, 1.7
	if err := tr.SetInitial(q0, p0); err != nil {
		t.Fatal(err)
	}
	o, err := tr.Orbit(context.Background(), 200)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < o.Len(); i++ {
		want := dynamo.Mod(q0+float64(i)*p0, 2*math.Pi)
		if d := circular(o.Q()[i], want, 2*math.Pi); d > 1e-9 {
			t.Fatalf("Q[%d] = %v, want %v", i, o.Q()[i], want)
		}
		if o.P()[i] != p0 {
			t.Fatalf("P[%d] = %v, want %v", i, o.P()[i], p0)
		}
	}
}

func TestOrbitStaysInRange(t *testing.T) {
	tr := standardMap(t, 2.5)
	if err := tr.SetInitial(-3, 40); err != nil {
		t.Fatal(err)
	}
	o, err := tr.Orbit(context.Background(), 500)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < o.Len(); i++ {
		for k, s := range o.Series {
			if s[i] < 0 || s[i] >= 2*math.Pi {
				t.Fatalf("%s[%d] = %v outside [0, 2π)", o.Names[k], i, s[i])
			}
		}
	}
}

func TestCatMapInverse(t *testing.T) {
	fwd, _ := Builtin("ArnoldCatMap")
	inv := &Definition{
		Name:      "ArnoldCatInverse",
		Modulus:   1,
		Variables: []string{"q", "p"},
		Functions: map[string]string{"q": "q - p", "p": "p - q"},
	}

	start := []struct{ q, p float64 }{{0.1234, 0.3456}, {0.5, 0.25}, {0.9, 0.01}}
	for _, s := range start {
		f, err := NewTrajectory(fwd)
		if err != nil {
			t.Fatal(err)
		}
		// ArnoldCatMap declares p before q.
		if err := f.SetInitial(s.p, s.q); err != nil {
			t.Fatal(err)
		}
		o, err := f.Orbit(context.Background(), 6)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := o.Q()[1], dynamo.Mod(2*s.q+s.p, 1); circular(got, want, 1) > 1e-12 {
			t.Errorf("cat q' = %v, want %v", got, want)
		}

		b, err := NewTrajectory(inv)
		if err != nil {
			t.Fatal(err)
		}
		end := o.Last()
		if err := b.SetInitial(end[1], end[0]); err != nil {
			t.Fatal(err)
		}
		back, err := b.Orbit(context.Background(), 6)
		if err != nil {
			t.Fatal(err)
		}
		if d := circular(back.Q()[5], s.q, 1); d > 1e-9 {
			t.Errorf("q round trip from %v: off by %v", s, d)
		}
		if d := circular(back.P()[5], s.p, 1); d > 1e-9 {
			t.Errorf("p round trip from %v: off by %v", s, d)
		}
	}
}

func TestPairsAssignsByName(t *testing.T) {
	def, _ := Builtin("ArnoldCatMap")
	tr, err := NewTrajectory(def)
	if err != nil {
		t.Fatal(err)
	}
	q0 := []float64{0.1, 0.6}
	p0 := []float64{0.3, 0.25}
	orbits, err := tr.Pairs(context.Background(), q0, p0, 2)
	if err != nil {
		t.Fatal(err)
	}

	for i, o := range orbits {
		if o.Q()[0] != q0[i] || o.P()[0] != p0[i] {
			t.Errorf("orbit %d starts at (%v, %v), want (%v, %v)", i, o.Q()[0], o.P()[0], q0[i], p0[i])
		}
		if got, want := o.Q()[1], dynamo.Mod(2*q0[i]+p0[i], 1); circular(got, want, 1) > 1e-12 {
			t.Errorf("orbit %d: q' = %v, want %v", i, got, want)
		}
		if got, want := o.P()[1], dynamo.Mod(q0[i]+p0[i], 1); circular(got, want, 1) > 1e-12 {
			t.Errorf("orbit %d: p' = %v, want %v", i, got, want)
		}
	}
}

func TestPhaseAxes(t *testing.T) {
	tests := []struct {
		vars []string
		x, y int
	}{
		{[]string{"q", "p"}, 0, 1},
		{[]string{"p", "q"}, 1, 0},
		{[]string{"x", "p", "q"}, 2, 1},
		{[]string{"x", "y"}, 0, 1},
		{[]string{"y", "q"}, 0, 1},
	}
	for _, tt := range tests {
		x, y := PhaseAxes(tt.vars)
		if x != tt.x || y != tt.y {
			t.Errorf("PhaseAxes(%v) = (%d, %d), want (%d, %d)", tt.vars, x, y, tt.x, tt.y)
		}
	}
}

func TestNextMatchesOrbit(t *testing.T) {
	a := standardMap(t, 0.97)
	b := standardMap(t, 0.97)
	for _, tr := range []*Trajectory{a, b} {
		if err := tr.SetInitial(1, 2); err != nil {
			t.Fatal(err)
		}
	}
	o, err := a.Orbit(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < 10; i++ {
		p, err := b.Next()
		if err != nil {
			t.Fatal(err)
		}
		if p[0] != o.Q()[i] || p[1] != o.P()[i] {
			t.Fatalf("step %d: Next %v, Orbit (%v, %v)", i, p, o.Q()[i], o.P()[i])
		}
	}

	cur, _ := a.Current()
	if cur[0] != o.Q()[9] || cur[1] != o.P()[9] {
		t.Errorf("Orbit should leave the state on the last point, got %v", cur)
	}
}

func TestBatchMatchesSingleOrbits(t *testing.T) {
	old := dynamo.Workers
	dynamo.Workers = 4
	t.Cleanup(func() { dynamo.Workers = old })

	tr := standardMap(t, 1.1)
	q0 := []float64{0.1, 0.7, 1.3, 2.2, 3.0, 4.1, 5.5}
	p0 := []float64{0.2, 0.1, 2.8, 1.9, 0.4, 6.0, 3.3}
	orbits, err := tr.Pairs(context.Background(), q0, p0, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(orbits) != len(q0) {
		t.Fatalf("got %d orbits, want %d", len(orbits), len(q0))
	}

	for i := range q0 {
		single := standardMap(t, 1.1)
		if err := single.SetInitial(q0[i], p0[i]); err != nil {
			t.Fatal(err)
		}
		want, err := single.Orbit(context.Background(), 50)
		if err != nil {
			t.Fatal(err)
		}
		for j := 0; j < 50; j++ {
			if orbits[i].Q()[j] != want.Q()[j] || orbits[i].P()[j] != want.P()[j] {
				t.Fatalf("orbit %d diverges at step %d", i, j)
			}
		}
	}
}

func TestTrajectoryValidation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		run  func(*Trajectory) error
	}{
		{"mismatched batch", func(tr *Trajectory) error {
			_, err := tr.Pairs(ctx, []float64{1, 2}, []float64{1}, 10)
			return err
		}},
		{"zero steps", func(tr *Trajectory) error {
			_ = tr.SetInitial(0, 0)
			_, err := tr.Orbit(ctx, 0)
			return err
		}},
		{"no initial point", func(tr *Trajectory) error {
			_, err := tr.Orbit(ctx, 5)
			return err
		}},
		{"wrong initial arity", func(tr *Trajectory) error {
			return tr.SetInitial(1, 2, 3)
		}},
		{"non-finite initial", func(tr *Trajectory) error {
			return tr.SetInitial(math.NaN(), 0)
		}},
		{"unknown constant", func(tr *Trajectory) error {
			return tr.SetConstant("Z", 1)
		}},
		{"variable as constant", func(tr *Trajectory) error {
			return tr.SetConstant("q", 1)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := standardMap(t, 1)
			if err := tt.run(tr); !errors.Is(err, dynamo.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestMissingConstant(t *testing.T) {
	def, _ := Builtin("StandardMap")
	def.Defaults = nil
	tr, err := NewTrajectory(def)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.SetInitial(0.5, 0.5); err != nil {
		t.Fatal(err)
	}

	_, err = tr.Orbit(context.Background(), 3)
	var ve *dynamo.ValidationError
	if !errors.As(err, &ve) || ve.Field != "K" {
		t.Fatalf("expected validation error on K, got %v", err)
	}
	if _, err := tr.Next(); !errors.Is(err, dynamo.ErrValidation) {
		t.Errorf("Next: expected validation error, got %v", err)
	}
	if _, err := tr.Pairs(context.Background(), []float64{1}, []float64{1}, 3); !errors.Is(err, dynamo.ErrValidation) {
		t.Errorf("Pairs: expected validation error, got %v", err)
	}
}

func TestOrbitCanceled(t *testing.T) {
	tr := standardMap(t, 1)
	_ = tr.SetInitial(0.1, 0.1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.Orbit(ctx, 5*cancelCheck); !errors.Is(err, dynamo.ErrCanceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
	cur, _ := tr.Current()
	if cur[0] != 0.1 || cur[1] != 0.1 {
		t.Errorf("canceled orbit moved the state to %v", cur)
	}
}

type counter struct{ n int }

func (c *counter) Observe([]float64) { c.n++ }

func TestObserversSeeEveryPoint(t *testing.T) {
	tr := standardMap(t, 1)
	c := &counter{}
	tr.AddObserver(c)
	_ = tr.SetInitial(0.2, 0.2)
	if _, err := tr.Orbit(context.Background(), 25); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Next(); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Pairs(context.Background(), []float64{1, 2}, []float64{1, 2}, 10); err != nil {
		t.Fatal(err)
	}
	if c.n != 25+1+20 {
		t.Errorf("observer saw %d points, want %d", c.n, 46)
	}
}

func TestNewTrajectoryRejectsImageMap(t *testing.T) {
	def, _ := Builtin("CatImage")
	if _, err := NewTrajectory(def); !errors.Is(err, dynamo.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func circular(a, b, m float64) float64 {
	d := math.Abs(dynamo.Mod(a-b, m))
	return math.Min(d, m-d)
}

func TestApplyLeavesStateAlone(t *testing.T) {
	tr := standardMap(t, 1)
	_ = tr.SetInitial(3, 3)
	got, err := tr.Apply([]float64{0.5, 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 1.0 || math.Abs(got[1]-(0.5+math.Sin(1))) > 1e-12 {
		t.Errorf("Apply = %v", got)
	}
	cur, _ := tr.Current()
	if cur[0] != 3 || cur[1] != 3 {
		t.Errorf("Apply moved the current point to %v", cur)
	}
	if _, err := tr.Apply([]float64{1}); !errors.Is(err, dynamo.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
