package maps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/mapsim/internal/dynamo"
	"github.com/san-kum/mapsim/internal/expr"
)

func validDefinition() *Definition {
	return &Definition{
		Name:      "kicked",
		Modulus:   1,
		Variables: []string{"q", "p"},
		Constants: []string{"K"},
		Functions: map[string]string{"q": "q + p", "p": "p + K*sin(q)"},
	}
}

func TestBuiltinsValidate(t *testing.T) {
	names := Builtins()
	if len(names) != 5 {
		t.Fatalf("expected 5 built-in maps, got %v", names)
	}
	for _, n := range names {
		def, ok := Builtin(n)
		if !ok {
			t.Fatalf("Builtin(%q) missing", n)
		}
		if err := def.Validate(); err != nil {
			t.Errorf("%s: %v", n, err)
		}
		if def.StepCount() != DefaultSteps {
			t.Errorf("%s: steps = %d", n, def.StepCount())
		}
	}
	if _, ok := Builtin("Nope"); ok {
		t.Error("unknown builtin found")
	}
}

func TestBuiltinIsCopied(t *testing.T) {
	a, _ := Builtin("StandardMap")
	a.Functions["q"] = "p"
	a.Defaults["K"] = 9
	b, _ := Builtin("StandardMap")
	if b.Functions["q"] != "q + p" || b.Defaults["K"] != 1 {
		t.Error("mutating a builtin copy leaked into the catalogue")
	}
}

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Definition)
		expr   bool
	}{
		{"no name", func(d *Definition) { d.Name = "" }, false},
		{"zero modulus", func(d *Definition) { d.Modulus = 0 }, false},
		{"negative modulus", func(d *Definition) { d.Modulus = -1 }, false},
		{"unknown type", func(d *Definition) { d.Type = "fractal" }, false},
		{"no variables", func(d *Definition) { d.Variables = nil }, false},
		{"duplicate variable", func(d *Definition) { d.Variables = []string{"q", "q"} }, false},
		{"constant shadows variable", func(d *Definition) { d.Constants = []string{"q"} }, false},
		{"reserved name", func(d *Definition) { d.Constants = []string{"sin"} }, false},
		{"bad name", func(d *Definition) { d.Constants = []string{"2k"} }, false},
		{"missing function", func(d *Definition) { delete(d.Functions, "p") }, false},
		{"function for constant", func(d *Definition) { d.Functions["K"] = "1" }, false},
		{"default for unknown", func(d *Definition) { d.Defaults = map[string]float64{"Z": 1} }, false},
		{"negative steps", func(d *Definition) { d.Steps = -1 }, false},
		{"image map with three variables", func(d *Definition) {
			d.Type = KindImage
			d.Variables = append(d.Variables, "r")
			d.Functions["r"] = "r"
		}, false},
		{"substring name", func(d *Definition) { d.Functions["q"] = "sq + p" }, true},
		{"statement", func(d *Definition) { d.Functions["q"] = "import os" }, true},
		{"assignment", func(d *Definition) { d.Functions["p"] = "q = 1" }, true},
		{"dunder", func(d *Definition) { d.Functions["p"] = "__import__(q)" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDefinition()
			tt.mutate(d)
			err := d.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.expr && !errors.Is(err, expr.ErrInvalidExpression) {
				t.Errorf("expected invalid expression, got %v", err)
			}
			if !tt.expr && !errors.Is(err, dynamo.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	if err := validDefinition().Validate(); err != nil {
		t.Errorf("valid definition rejected: %v", err)
	}
}

func TestParse(t *testing.T) {
	jsonDef := `{"type": "standard", "name": "StandardMap", "description": "kicked rotor",
	 "mod": 6.283185307179586, "variables": ["q","p"], "constants": ["K"],
	 "functions": {"q": "q + p", "p": "p + K*sin(q)"}, "defaults": {"K": 1.0}}`
	yamlDef := `
type: standard
name: StandardMap
modulus: 6.283185307179586
variables: [q, p]
constants: [K]
functions:
  q: q + p
  p: p + K*sin(q)
steps: 250
`
	for _, tc := range []struct {
		format Format
		data   string
	}{{FormatJSON, jsonDef}, {FormatYAML, yamlDef}} {
		def, err := Parse([]byte(tc.data), tc.format)
		if err != nil {
			t.Fatalf("%s: %v", tc.format, err)
		}
		if def.Name != "StandardMap" || def.Modulus != 6.283185307179586 || len(def.Variables) != 2 {
			t.Errorf("%s: decoded %+v", tc.format, def)
		}
	}

	if _, err := Parse([]byte(`{"name": "x", "mod": 1, "bogus": 1}`), FormatJSON); err == nil {
		t.Error("unknown field accepted")
	}
	if _, err := Parse([]byte(`{"name": "x", "mod": 1, "modulus": 2, "variables": ["q"], "functions": {"q": "q"}}`), FormatJSON); !errors.Is(err, dynamo.ErrValidation) {
		t.Errorf("conflicting modulus: got %v", err)
	}
	if _, err := Parse([]byte(`{"name": "x", "mod": 1, "variables": ["q"], "functions": {"q": "q;"}}`), FormatJSON); !errors.Is(err, expr.ErrInvalidExpression) {
		t.Errorf("bad function: got %v", err)
	}
}

func TestReadFileResolvesImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.yaml")
	data := "type: image\nname: Cat\nvariables: [x, y]\nfunctions: {x: 2*x + y, y: x + y}\nimage: cat.png\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	def, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if def.Kind() != KindImage || def.Image != filepath.Join(dir, "cat.png") {
		t.Errorf("got %+v", def)
	}

	round, err := Encode(def, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	again, err := Parse(round, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if again.Functions["x"] != "2*x + y" {
		t.Errorf("re-encoded functions = %v", again.Functions)
	}

	if _, err := ReadFile(filepath.Join(dir, "cat.txt")); !errors.Is(err, dynamo.ErrValidation) {
		t.Errorf("unsupported extension: got %v", err)
	}
}
