package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/mapsim/internal/dynamo"
	"github.com/san-kum/mapsim/internal/maps"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Map != "StandardMap" {
		t.Errorf("expected map StandardMap, got %s", cfg.Map)
	}
	if cfg.Steps != maps.DefaultSteps {
		t.Errorf("expected %d steps, got %d", maps.DefaultSteps, cfg.Steps)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapsim.yaml")
	cfg := DefaultConfig()
	cfg.Steps = 250
	cfg.Constants = map[string]float64{"K": 1.5}
	cfg.Diffusion.Particles = 42

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Steps != 250 || got.Constants["K"] != 1.5 || got.Diffusion.Particles != 42 {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("map: HarperMap\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Map != "HarperMap" || cfg.Steps != DefaultSteps || cfg.Diffusion.InnerRadius != 0.3 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("steps: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, dynamo.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("StandardMap", "islands")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Constants["K"] != 0.97 {
		t.Errorf("expected K 0.97, got %f", cfg.Constants["K"])
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("StandardMap", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "islands") != nil {
		t.Error("expected nil for nonexistent map")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("StandardMap")
	if len(presets) != 3 || presets[0] != "chaos" {
		t.Errorf("expected sorted presets, got %v", presets)
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent map")
	}
}

func TestPresetsMatchBuiltins(t *testing.T) {
	for name, presets := range Presets {
		def, ok := maps.Builtin(name)
		if !ok {
			t.Errorf("presets for unknown map %s", name)
			continue
		}
		for pname, p := range presets {
			if p.Map != name {
				t.Errorf("%s/%s names map %s", name, pname, p.Map)
			}
			for c := range p.Constants {
				found := false
				for _, dc := range def.Constants {
					found = found || dc == c
				}
				if !found {
					t.Errorf("%s/%s sets unknown constant %s", name, pname, c)
				}
			}
		}
	}
}

func TestApply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Apply(GetPreset("HarperMap", "strong"))
	if cfg.Map != "HarperMap" || cfg.Steps != 2000 || cfg.Constants["L"] != 2 || cfg.Initial.Count != 4 {
		t.Errorf("apply gave %+v", cfg)
	}
	cfg.Constants["L"] = 7
	if GetPreset("HarperMap", "strong").Constants["L"] != 2 {
		t.Error("apply shared the preset constants map")
	}
}
