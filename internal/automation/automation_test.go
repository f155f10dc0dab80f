package automation

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/san-kum/mapsim/internal/config"
	"github.com/san-kum/mapsim/internal/dynamo"
	"github.com/san-kum/mapsim/internal/experiment"
	"github.com/san-kum/mapsim/internal/storage"
)

func newRunner(t *testing.T) (*Runner, *storage.Store) {
	t.Helper()
	logger := log.New(io.Discard)
	store := storage.New(t.TempDir(), logger)
	return NewRunner(experiment.NewRegistry(logger), store, logger, t.TempDir()), store
}

func configInitial(q, p float64, count int) config.InitialConfig {
	return config.InitialConfig{Q: q, P: p, Count: count, SpreadQ: 0.3}
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t, `
name: tour
description: one of each
steps:
  - kind: orbit
    map: StandardMap
    steps: 50
    initial: {q: 0.5, p: 0.5, count: 3, spread_q: 1}
    constants: {K: 1.2}
    save: true
    svg: orbit.svg
  - kind: walk
    steps: 10
    walk: {particles: 20}
`)
	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "tour" || len(sc.Steps) != 2 {
		t.Fatalf("scenario = %+v", sc)
	}
	if st := sc.Steps[0]; st.Initial.Count != 3 || st.Constants["K"] != 1.2 || !st.Save {
		t.Errorf("orbit step = %+v", st)
	}
	if w := walkConfig(sc.Steps[1].Walk); w.Particles != 20 || w.Boundary != 1 {
		t.Errorf("walk config = %+v", w)
	}
}

func TestLoadScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no steps", "name: empty\n", "no steps"},
		{"unknown kind", "steps:\n  - kind: juggle\n    map: StandardMap\n", "unknown step kind"},
		{"missing map", "steps:\n  - kind: orbit\n", "needs a map"},
		{"sweep without constant", "steps:\n  - kind: sweep\n    map: StandardMap\n    sweep: {samples: 4}\n", "needs a constant"},
		{"ensemble without trials", "steps:\n  - kind: ensemble\n    map: StandardMap\n", "at least one trial"},
		{"unknown field", "steps:\n  - kind: orbit\n    map: StandardMap\n    colour: red\n", "colour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestRunOrbitStep(t *testing.T) {
	r, store := newRunner(t)
	sc := &Scenario{Name: "orbit", Steps: []Step{{
		Kind:    KindOrbit,
		Map:     "ArnoldCatMap",
		Steps:   100,
		Initial: configInitial(0.1, 0.2, 2),
		Save:    true,
		SVG:     "out/cat.svg",
		PNG:     "out/cat.png",
		CSV:     "out/cat.csv",
	}}}

	results, err := r.Run(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	res := results[0]
	if res.Index != 1 || res.Kind != KindOrbit || len(res.Orbits) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Files) != 3 {
		t.Errorf("files = %v", res.Files)
	}
	for _, f := range res.Files {
		if info, err := os.Stat(f); err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", f, err)
		}
	}

	meta, err := store.Load(res.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Orbits != 2 || meta.Steps != 100 {
		t.Errorf("stored run = %+v", meta)
	}
	if _, ok := res.Metrics["coverage"]; !ok {
		t.Errorf("metrics = %v", res.Metrics)
	}
}

func TestRunPermuteStep(t *testing.T) {
	r, store := newRunner(t)
	sc := &Scenario{Steps: []Step{{
		Kind:       KindPermute,
		Map:        "CatImage",
		Size:       16,
		Iterations: 3,
		Save:       true,
		PNG:        "frame.png",
		GIF:        "frames.gif",
	}}}

	results, err := r.Run(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	res := results[0]
	if res.Metrics["iterations"] != 3 || res.Metrics["size"] != 16 {
		t.Errorf("metrics = %v", res.Metrics)
	}
	if len(res.Files) != 2 {
		t.Errorf("files = %v", res.Files)
	}
	if _, err := os.Stat(store.FramePath(res.RunID)); err != nil {
		t.Errorf("run frame missing: %v", err)
	}
}

func TestRunWalkStep(t *testing.T) {
	r, _ := newRunner(t)
	sc := &Scenario{Steps: []Step{{Kind: KindWalk, Steps: 25, PNG: "walk.png"}}}

	results, err := r.Run(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	m := results[0].Metrics
	if m["steps"] != 25 || m["active"]+m["absorbed"] != 1000 {
		t.Errorf("metrics = %v", m)
	}
}

func TestRunSweepStep(t *testing.T) {
	r, _ := newRunner(t)
	sc := &Scenario{Steps: []Step{{
		Kind:  KindSweep,
		Map:   "StandardMap",
		Sweep: SweepStep{Constant: "K", From: 0, To: 2, Samples: 5, Transient: 10, Record: 20},
		CSV:   "sweep.csv",
	}}}

	results, err := r.Run(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	res := results[0]
	if len(res.Sweep) != 5 || res.Sweep[4].Param != 2 {
		t.Errorf("sweep = %v", res.Sweep)
	}
	data, err := os.ReadFile(res.Files[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "K,q\n") {
		t.Errorf("csv header = %q", strings.SplitN(string(data), "\n", 2)[0])
	}
}

func TestRunEnsembleStep(t *testing.T) {
	r, _ := newRunner(t)
	sc := &Scenario{Steps: []Step{{
		Kind:     KindEnsemble,
		Map:      "ArnoldCatMap",
		Steps:    200,
		Ensemble: EnsembleStep{Trials: 4, Seed: 7},
	}}}

	results, err := r.Run(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	res := results[0]
	if len(res.Trials) != 4 {
		t.Fatalf("trials = %d", len(res.Trials))
	}
	// The cat map is uniformly hyperbolic: every start is chaotic.
	if res.Metrics["chaotic_fraction"] != 1 {
		t.Errorf("chaotic fraction = %v", res.Metrics["chaotic_fraction"])
	}
	want := math.Log((3 + math.Sqrt(5)) / 2)
	if got := res.Metrics["mean_lyapunov"]; math.Abs(got-want) > 0.05 {
		t.Errorf("mean lyapunov = %v, want about %v", got, want)
	}
	for _, tr := range res.Trials {
		for _, v := range tr.Initial {
			if v < 0 || v >= 1 {
				t.Errorf("perturbed start %v left the torus", tr.Initial)
			}
		}
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	r, _ := newRunner(t)
	sc := &Scenario{Steps: []Step{
		{Kind: KindWalk, Steps: 2},
		{Kind: KindOrbit, Map: "NoSuchMap"},
		{Kind: KindWalk, Steps: 2},
	}}

	results, err := r.Run(context.Background(), sc)
	if !errors.Is(err, experiment.ErrUnknownMap) {
		t.Errorf("error = %v, want ErrUnknownMap", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %d, want the one step before the failure", len(results))
	}
}

func TestRunCanceled(t *testing.T) {
	r, _ := newRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := &Scenario{Steps: []Step{{Kind: KindPermute, Map: "CatImage", Size: 8, Iterations: 2}}}
	if _, err := r.Run(ctx, sc); !errors.Is(err, dynamo.ErrCanceled) {
		t.Errorf("error = %v, want ErrCanceled", err)
	}
}

func TestSaveWithoutStore(t *testing.T) {
	logger := log.New(io.Discard)
	r := NewRunner(experiment.NewRegistry(logger), nil, logger, t.TempDir())
	sc := &Scenario{Steps: []Step{{Kind: KindOrbit, Map: "StandardMap", Steps: 5, Save: true}}}
	if _, err := r.Run(context.Background(), sc); err == nil {
		t.Error("expected an error when saving without a store")
	}
}

func TestChaoticFraction(t *testing.T) {
	tests := []struct {
		trials []Trial
		want   float64
	}{
		{nil, 0},
		{[]Trial{{Chaotic: true}, {Chaotic: false}}, 0.5},
		{[]Trial{{Chaotic: true}}, 1},
	}
	for _, tt := range tests {
		if got := ChaoticFraction(tt.trials); got != tt.want {
			t.Errorf("ChaoticFraction(%v) = %v, want %v", tt.trials, got, tt.want)
		}
	}
}
