package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseAssignments(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    map[string]float64
		wantErr bool
	}{
		{"empty", nil, map[string]float64{}, false},
		{"single", []string{"K=1.2"}, map[string]float64{"K": 1.2}, false},
		{"spaces", []string{" L = -0.5 "}, map[string]float64{"L": -0.5}, false},
		{"repeat", []string{"K=1", "K=2"}, map[string]float64{"K": 2}, false},
		{"missing value", []string{"K"}, nil, true},
		{"missing name", []string{"=1"}, nil, true},
		{"not a number", []string{"K=abc"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAssignments(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestMergeConstants(t *testing.T) {
	base := map[string]float64{"K": 1, "L": 2}
	got := mergeConstants(base, map[string]float64{"K": 3})

	if got["K"] != 3 || got["L"] != 2 {
		t.Errorf("merged = %v", got)
	}
	if base["K"] != 1 {
		t.Error("base was modified")
	}
	if len(mergeConstants(nil, nil)) != 0 {
		t.Error("expected empty map")
	}
}

func TestRegime(t *testing.T) {
	if regime(0.5) != "chaotic" {
		t.Error("positive exponent should be chaotic")
	}
	if regime(0) != "regular" || regime(-0.2) != "regular" {
		t.Error("non-positive exponent should be regular")
	}
}

func TestRunExitCode(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "shift.yaml")
	def := "name: Shift\nmod: 1\nvariables: [q, p]\nfunctions:\n  q: q + p\n  p: p\n"
	if err := os.WriteFile(good, []byte(def), 0644); err != nil {
		t.Fatal(err)
	}
	base := []string{"--data", filepath.Join(dir, "runs"), "--maps", filepath.Join(dir, "maps"), "--log-level", "error"}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"valid file", []string{"validate", good}, 0},
		{"missing file", []string{"validate", filepath.Join(dir, "missing.json")}, 1},
		{"unknown command", []string{"nope"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(append([]string(nil), base...), tt.args...)
			if got := run(args); got != tt.want {
				t.Errorf("run(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}
