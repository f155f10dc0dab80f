package metrics

import (
	"math"
	"testing"
)

func TestCoverage(t *testing.T) {
	m := NewCoverage(1, 4)
	points := [][]float64{{0.1, 0.1}, {0.12, 0.13}, {0.9, 0.9}, {0.5, 0.0}}
	for _, p := range points {
		m.Observe(p)
	}
	if got, want := m.Value(), 3.0/16; got != want {
		t.Errorf("coverage = %v, want %v", got, want)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero coverage after reset")
	}

	m.Observe([]float64{1, 1})
	if m.Value() != 1.0/16 {
		t.Error("point on the upper edge should fall in the last cell")
	}
}

func TestRecurrenceWrapsAround(t *testing.T) {
	m := NewRecurrence(1, 0.05)
	m.Observe([]float64{0.99, 0.5})
	m.Observe([]float64{0.01, 0.5})
	m.Observe([]float64{0.5, 0.5})
	if got := m.Value(); got != 0.5 {
		t.Errorf("recurrence = %v, want 0.5", got)
	}
}

func TestMeanStep(t *testing.T) {
	tests := []struct {
		name   string
		points [][]float64
		want   float64
	}{
		{"single point", [][]float64{{0, 0}}, 0},
		{"straight", [][]float64{{0, 0}, {0.1, 0}, {0.2, 0}}, 0.1},
		{"across the seam", [][]float64{{0.95, 0}, {0.05, 0}}, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMeanStep(1)
			for _, p := range tt.points {
				m.Observe(p)
			}
			if math.Abs(m.Value()-tt.want) > 1e-12 {
				t.Errorf("mean step = %v, want %v", m.Value(), tt.want)
			}
		})
	}
}

func TestStandardNames(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Standard(2 * math.Pi) {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %q", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 3 {
		t.Errorf("got %d metrics", len(seen))
	}
}
