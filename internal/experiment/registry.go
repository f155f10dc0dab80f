package experiment

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/san-kum/mapsim/internal/grid"
	"github.com/san-kum/mapsim/internal/maps"
	"github.com/san-kum/mapsim/internal/metrics"
)

// ErrUnknownMap is returned for names the registry does not hold.
var ErrUnknownMap = errors.New("experiment: unknown map")

const builtinSource = "builtin"

// Registry is the catalogue of map definitions: the built-ins plus
// whatever LoadDir picked up.
type Registry struct {
	defs    map[string]*maps.Definition
	sources map[string]string
	log     *log.Logger
}

func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &Registry{
		defs:    make(map[string]*maps.Definition),
		sources: make(map[string]string),
		log:     logger,
	}
	for _, name := range maps.Builtins() {
		def, _ := maps.Builtin(name)
		r.defs[name] = def
		r.sources[name] = builtinSource
	}
	return r
}

// Register validates def and adds it, replacing any map of the same name.
func (r *Registry) Register(def *maps.Definition, source string) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if prev, ok := r.sources[def.Name]; ok {
		r.log.Warn("map redefined", "map", def.Name, "was", prev, "now", source)
	}
	r.defs[def.Name] = def.Clone()
	r.sources[def.Name] = source
	return nil
}

// LoadDir registers every *.json, *.yaml and *.yml definition in dir.
// Files that fail to parse or validate, and image maps whose image cannot
// be used, are logged and skipped. A missing directory loads nothing.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		r.log.Debug("maps directory not found", "dir", dir)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read maps dir: %w", err)
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if _, ok := maps.FormatOf(path); !ok {
			continue
		}
		def, err := r.loadFile(path)
		if err != nil {
			r.log.Error("skipping map file", "file", path, "err", err)
			continue
		}
		if err := r.Register(def, path); err != nil {
			r.log.Error("skipping map file", "file", path, "err", err)
			continue
		}
		r.log.Info("loaded map", "map", def.Name, "type", def.Kind(), "file", path)
		loaded++
	}
	return loaded, nil
}

func (r *Registry) loadFile(path string) (*maps.Definition, error) {
	def, err := maps.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r.log.Info("parsing functions", "map", def.Name)
	for _, v := range def.Variables {
		r.log.Info("function", "map", def.Name, "variable", v, "expr", def.Functions[v])
	}
	if def.Kind() == maps.KindImage && def.Image != "" {
		if _, err := grid.Load(def.Image); err != nil {
			return nil, fmt.Errorf("image %s: %w", def.Image, err)
		}
	}
	return def, nil
}

// Get returns a copy of the named definition.
func (r *Registry) Get(name string) (*maps.Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMap, name)
	}
	return def.Clone(), nil
}

// Source reports where a map came from: "builtin" or a file path.
func (r *Registry) Source(name string) string { return r.sources[name] }

func (r *Registry) ListMaps() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewTrajectory builds an orbit iterator for a standard map. Constants
// without a default start at 0; overrides are applied on top.
func (r *Registry) NewTrajectory(name string, constants map[string]float64) (*maps.Trajectory, error) {
	def, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	tr, err := maps.NewTrajectory(def)
	if err != nil {
		return nil, err
	}
	if err := applyConstants(tr, def, constants); err != nil {
		return nil, err
	}
	return tr, nil
}

// NewPermutation builds an image map. imagePath overrides the definition's
// image; with neither, a checkerboard is used. size > 0 resizes the base.
func (r *Registry) NewPermutation(name, imagePath string, size int, constants map[string]float64) (*maps.Permutation, error) {
	def, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if imagePath == "" {
		imagePath = def.Image
	}

	var base *grid.Grid
	if imagePath != "" {
		base, err = grid.Load(imagePath)
	} else {
		if size <= 0 {
			size = 64
		}
		base, err = grid.Checkerboard(size, max(size/8, 1))
	}
	if err != nil {
		return nil, err
	}

	p, err := maps.NewPermutation(def, base)
	if err != nil {
		return nil, err
	}
	if size > 0 && size != base.Size() {
		r.log.Info("resizing image", "map", name, "from", base.Size(), "to", size)
		if err := p.Resize(size); err != nil {
			return nil, err
		}
	}
	if err := applyConstants(p, def, constants); err != nil {
		return nil, err
	}
	return p, nil
}

func applyConstants(m maps.Map, def *maps.Definition, overrides map[string]float64) error {
	for _, c := range def.Constants {
		if _, ok := def.Defaults[c]; !ok {
			if err := m.SetConstant(c, 0); err != nil {
				return err
			}
		}
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := m.SetConstant(k, overrides[k]); err != nil {
			return fmt.Errorf("map %s: %w", def.Name, err)
		}
	}
	return nil
}

// DefaultMetrics returns fresh metrics scaled to the map's modulus.
func (r *Registry) DefaultMetrics(def *maps.Definition) []metrics.Metric {
	return metrics.Standard(def.Modulus)
}
