// Package automation runs scripted scenarios: a YAML list of orbit,
// permutation, diffusion, sweep and ensemble steps whose results are
// stored as runs or exported to files.
package automation

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/mapsim/internal/analysis"
	"github.com/san-kum/mapsim/internal/config"
	"github.com/san-kum/mapsim/internal/diffusion"
	"github.com/san-kum/mapsim/internal/dynamo"
	"github.com/san-kum/mapsim/internal/experiment"
	"github.com/san-kum/mapsim/internal/maps"
	"github.com/san-kum/mapsim/internal/storage"
)

// Step kinds.
const (
	KindOrbit    = "orbit"
	KindPermute  = "permute"
	KindWalk     = "walk"
	KindSweep    = "sweep"
	KindEnsemble = "ensemble"
)

// Scenario defines a scripted sequence of steps.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`

	dir string
}

// Step is a single step in a scenario. Which fields apply depends on Kind.
// Output paths (svg, png, gif, csv) are relative to the output directory
// given to the Runner; an image path is relative to the scenario file.
type Step struct {
	Kind       string               `yaml:"kind"`
	Map        string               `yaml:"map"`
	Steps      int                  `yaml:"steps"`
	Initial    config.InitialConfig `yaml:"initial"`
	Constants  map[string]float64   `yaml:"constants"`
	Image      string               `yaml:"image"`
	Size       int                  `yaml:"size"`
	Iterations int                  `yaml:"iterations"`
	Walk       *diffusion.Config    `yaml:"walk"`
	Sweep      SweepStep            `yaml:"sweep"`
	Ensemble   EnsembleStep         `yaml:"ensemble"`

	Save bool   `yaml:"save"`
	SVG  string `yaml:"svg"`
	PNG  string `yaml:"png"`
	GIF  string `yaml:"gif"`
	CSV  string `yaml:"csv"`
}

type SweepStep struct {
	Constant  string  `yaml:"constant"`
	From      float64 `yaml:"from"`
	To        float64 `yaml:"to"`
	Samples   int     `yaml:"samples"`
	Transient int     `yaml:"transient"`
	Record    int     `yaml:"record"`
}

// EnsembleStep perturbs the initial point at random and classifies each
// trial by its Lyapunov exponent.
type EnsembleStep struct {
	Trials       int     `yaml:"trials"`
	Perturbation float64 `yaml:"perturbation"`
	Seed         uint64  `yaml:"seed"`
	Threshold    float64 `yaml:"threshold"`
}

// LoadScenario reads and validates a scenario file. Unknown keys are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return dynamo.Invalid("steps", "scenario has no steps")
	}
	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	switch st.Kind {
	case KindOrbit, KindPermute, KindEnsemble:
	case KindWalk:
		return nil
	case KindSweep:
		if st.Sweep.Constant == "" {
			return dynamo.Invalid("sweep.constant", "sweep needs a constant")
		}
		if st.Sweep.Samples < 2 {
			return dynamo.Invalid("sweep.samples", "need at least 2 samples, got %d", st.Sweep.Samples)
		}
	default:
		return dynamo.Invalid("kind", "unknown step kind %q", st.Kind)
	}
	if st.Map == "" {
		return dynamo.Invalid("map", "%s step needs a map", st.Kind)
	}
	if st.Steps < 0 {
		return dynamo.Invalid("steps", "must not be negative, got %d", st.Steps)
	}
	if st.Kind == KindEnsemble && st.Ensemble.Trials < 1 {
		return dynamo.Invalid("ensemble.trials", "need at least one trial")
	}
	return nil
}

// StepResult is what one step produced.
type StepResult struct {
	Index   int                   `json:"index"`
	Kind    string                `json:"kind"`
	Map     string                `json:"map,omitempty"`
	RunID   string                `json:"run_id,omitempty"`
	Metrics map[string]float64    `json:"metrics,omitempty"`
	Files   []string              `json:"files,omitempty"`
	Sweep   []analysis.SweepPoint `json:"sweep,omitempty"`
	Trials  []Trial               `json:"trials,omitempty"`
	Orbits  []*maps.Orbit         `json:"-"`
}

// Runner executes scenarios against a map registry. Store may be nil when
// no step asks to save.
type Runner struct {
	reg    *experiment.Registry
	store  *storage.Store
	log    *log.Logger
	outDir string
}

func NewRunner(reg *experiment.Registry, store *storage.Store, logger *log.Logger, outDir string) *Runner {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	if outDir == "" {
		outDir = "."
	}
	return &Runner{reg: reg, store: store, log: logger, outDir: outDir}
}

// Run executes all steps in order and stops at the first failure,
// returning the results gathered so far.
func (r *Runner) Run(ctx context.Context, sc *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(sc.Steps))

	for i, st := range sc.Steps {
		r.log.Info("running step", "scenario", sc.Name, "step", fmt.Sprintf("%d/%d", i+1, len(sc.Steps)), "kind", st.Kind, "map", st.Map)

		var (
			res *StepResult
			err error
		)
		switch st.Kind {
		case KindOrbit:
			res, err = r.runOrbit(ctx, st)
		case KindPermute:
			res, err = r.runPermute(ctx, sc, st)
		case KindWalk:
			res, err = r.runWalk(ctx, st)
		case KindSweep:
			res, err = r.runSweep(ctx, st)
		case KindEnsemble:
			res, err = r.runEnsemble(ctx, st)
		default:
			err = dynamo.Invalid("kind", "unknown step kind %q", st.Kind)
		}
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, st.Kind, err)
		}

		res.Index, res.Kind = i+1, st.Kind
		results = append(results, *res)
	}

	return results, nil
}

// path resolves an output name against the runner's output directory.
func (r *Runner) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.outDir, name)
}

// write creates the parent directory, runs fn on the resolved path and
// records the file on res.
func (r *Runner) write(res *StepResult, name string, fn func(path string) error) error {
	if name == "" {
		return nil
	}
	path := r.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := fn(path); err != nil {
		return err
	}
	res.Files = append(res.Files, path)
	r.log.Info("wrote", "path", path)
	return nil
}

func (r *Runner) save(meta storage.RunMetadata, orbits []*maps.Orbit) (string, error) {
	if r.store == nil {
		return "", fmt.Errorf("save requested but no run store configured")
	}
	return r.store.Save(meta, orbits)
}

func initialOrDefault(ic config.InitialConfig) config.InitialConfig {
	if ic == (config.InitialConfig{}) {
		return config.DefaultConfig().Initial
	}
	return ic
}

// firstPoint is the first initial point of ic laid out for variables.
func firstPoint(variables []string, ic config.InitialConfig) []float64 {
	cols := experiment.InitialPoints(variables, initialOrDefault(ic))
	x0 := make([]float64, len(cols))
	for k, c := range cols {
		x0[k] = c[0]
	}
	return x0
}
