package maps

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/mapsim/internal/dynamo"
	"github.com/san-kum/mapsim/internal/expr"
)

// Kind selects how a definition is iterated.
type Kind string

const (
	// KindStandard maps iterate a point in phase space into an orbit.
	KindStandard Kind = "standard"
	// KindImage maps permute the cells of a square raster.
	KindImage Kind = "image"
)

// DefaultSteps is the orbit length used when a definition gives none.
const DefaultSteps = 1000

// Definition is the named, validated description of one map. Treat it as
// immutable once handed to NewTrajectory or NewPermutation; both keep their
// own copy.
type Definition struct {
	Type        Kind               `json:"type" yaml:"type"`
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description" yaml:"description"`
	Modulus     float64            `json:"mod" yaml:"mod"`
	Variables   []string           `json:"variables" yaml:"variables"`
	Constants   []string           `json:"constants" yaml:"constants"`
	Functions   map[string]string  `json:"functions" yaml:"functions"`
	Defaults    map[string]float64 `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Steps       int                `json:"steps,omitempty" yaml:"steps,omitempty"`
	Image       string             `json:"image,omitempty" yaml:"image,omitempty"`
}

// Kind returns the map kind, treating an empty type as standard.
func (d *Definition) Kind() Kind {
	if d.Type == "" {
		return KindStandard
	}
	return d.Type
}

// StepCount returns Steps or DefaultSteps when unset.
func (d *Definition) StepCount() int {
	if d.Steps <= 0 {
		return DefaultSteps
	}
	return d.Steps
}

// Clone returns a deep copy.
func (d *Definition) Clone() *Definition {
	c := *d
	c.Variables = append([]string(nil), d.Variables...)
	c.Constants = append([]string(nil), d.Constants...)
	c.Functions = make(map[string]string, len(d.Functions))
	for k, v := range d.Functions {
		c.Functions[k] = v
	}
	if d.Defaults != nil {
		c.Defaults = make(map[string]float64, len(d.Defaults))
		for k, v := range d.Defaults {
			c.Defaults[k] = v
		}
	}
	return &c
}

// Validate checks every structural invariant and compiles each update
// expression. It returns a *dynamo.ValidationError for structural problems
// and wraps *expr.InvalidExpressionError for bad expressions.
func (d *Definition) Validate() error {
	_, err := compile(d)
	return err
}

// Symbols builds the slot table: variables first, then constants.
func (d *Definition) Symbols() (*dynamo.Symbols, error) {
	names := make([]string, 0, len(d.Variables)+len(d.Constants))
	names = append(names, d.Variables...)
	names = append(names, d.Constants...)
	syms, err := dynamo.NewSymbols(names...)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", d.Name, err)
	}
	return syms, nil
}

func (d *Definition) checkStructure() error {
	if d.Name == "" {
		return dynamo.Invalid("name", "map name is required")
	}
	switch d.Kind() {
	case KindStandard:
		if !(d.Modulus > 0) || math.IsInf(d.Modulus, 0) {
			return dynamo.Invalid("mod", "map %s: modulus must be a positive number, got %v", d.Name, d.Modulus)
		}
	case KindImage:
		if len(d.Variables) != 2 {
			return dynamo.Invalid("variables", "image map %s needs exactly two index variables, got %d", d.Name, len(d.Variables))
		}
	default:
		return dynamo.Invalid("type", "map %s: unknown type %q", d.Name, d.Type)
	}
	if len(d.Variables) == 0 {
		return dynamo.Invalid("variables", "map %s declares no variables", d.Name)
	}
	if d.Steps < 0 {
		return dynamo.Invalid("steps", "map %s: steps must not be negative", d.Name)
	}

	declared := make(map[string]string, len(d.Variables)+len(d.Constants))
	for _, group := range []struct {
		kind  string
		names []string
	}{{"variable", d.Variables}, {"constant", d.Constants}} {
		for _, n := range group.names {
			if !expr.IsIdentifier(n) {
				return dynamo.Invalid(group.kind+"s", "map %s: %q is not a valid name", d.Name, n)
			}
			if expr.IsFunction(n) {
				return dynamo.Invalid(group.kind+"s", "map %s: %q is reserved for a function", d.Name, n)
			}
			if prev, dup := declared[n]; dup {
				return dynamo.Invalid(group.kind+"s", "map %s: %q declared twice (already a %s)", d.Name, n, prev)
			}
			declared[n] = group.kind
		}
	}

	for _, v := range d.Variables {
		if _, ok := d.Functions[v]; !ok {
			return dynamo.Invalid("functions", "map %s: no update function for variable %q", d.Name, v)
		}
	}
	for name := range d.Functions {
		if declared[name] != "variable" {
			return dynamo.Invalid("functions", "map %s: function given for %q, which is not a variable", d.Name, name)
		}
	}
	for _, name := range sortedKeys(d.Defaults) {
		if _, ok := declared[name]; !ok {
			return dynamo.Invalid("defaults", "map %s: default for undeclared name %q", d.Name, name)
		}
		if v := d.Defaults[name]; math.IsNaN(v) || math.IsInf(v, 0) {
			return dynamo.Invalid("defaults", "map %s: default for %q is not finite", d.Name, name)
		}
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
