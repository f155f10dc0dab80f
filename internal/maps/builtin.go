package maps

import (
	"math"
	"sort"
)

const twoPi = 2 * math.Pi

var builtins = map[string]*Definition{
	"StandardMap": {
		Type:        KindStandard,
		Name:        "StandardMap",
		Description: "Chirikov standard map: q' = q + p, p' = p + K sin(q'), mod 2π",
		Modulus:     twoPi,
		Variables:   []string{"q", "p"},
		Constants:   []string{"K"},
		Functions:   map[string]string{"q": "q + p", "p": "p + K*sin(q)"},
		Defaults:    map[string]float64{"K": 1},
	},
	"AdjustedStandardMap": {
		Type:        KindStandard,
		Name:        "AdjustedStandardMap",
		Description: "Standard map with two kicks: q' = q - K sin(p), p' = p + L sin(q'), mod 2π",
		Modulus:     twoPi,
		Variables:   []string{"q", "p"},
		Constants:   []string{"K", "L"},
		Functions:   map[string]string{"q": "q - K*sin(p)", "p": "p + L*sin(q)"},
		Defaults:    map[string]float64{"K": 1, "L": 1},
	},
	"ArnoldCatMap": {
		Type:        KindStandard,
		Name:        "ArnoldCatMap",
		Description: "Arnold cat map on the unit torus: q' = 2q + p, p' = q + p, mod 1",
		Modulus:     1,
		// p goes first so q can reuse it: p' = q + p, q' = q + p' = 2q + p.
		Variables: []string{"p", "q"},
		Functions: map[string]string{"p": "q + p", "q": "q + p"},
	},
	"HarperMap": {
		Type:        KindStandard,
		Name:        "HarperMap",
		Description: "Harper map: q' = q - K sin(p), p' = p + L sin(q'), mod 2π",
		Modulus:     twoPi,
		Variables:   []string{"q", "p"},
		Constants:   []string{"K", "L"},
		Functions:   map[string]string{"q": "q - K*sin(p)", "p": "p + L*sin(q)"},
		Defaults:    map[string]float64{"K": 0.5, "L": 0.5},
	},
	"CatImage": {
		Type:        KindImage,
		Name:        "CatImage",
		Description: "Arnold cat map as a pixel permutation: x' = 2x + y, y' = x + y, mod S",
		Variables:   []string{"x", "y"},
		Functions:   map[string]string{"x": "2*x + y", "y": "x + y"},
	},
}

// Builtin returns a copy of the named built-in definition.
func Builtin(name string) (*Definition, bool) {
	d, ok := builtins[name]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// Builtins lists the built-in map names, sorted.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
