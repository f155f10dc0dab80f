package analysis

import (
	"context"
	"math"
	"strings"

	"github.com/san-kum/mapsim/internal/dynamo"
	"github.com/san-kum/mapsim/internal/maps"
)

// SweepPoint is the set of distinct values one variable visits for a
// given constant value.
type SweepPoint struct {
	Param  float64
	Values []float64
}

type SweepConfig struct {
	Constant  string
	From, To  float64
	Samples   int
	Variable  int
	Initial   []float64
	Transient int
	Record    int
}

// Sweep steps a constant from From to To. For each value it discards
// Transient steps from Initial and records the distinct values (to three
// decimals) of Variable over the next Record steps. The constant is
// restored afterwards; the current point is left on the last orbit.
func Sweep(ctx context.Context, tr *maps.Trajectory, cfg SweepConfig) ([]SweepPoint, error) {
	orig, ok := tr.Constants()[cfg.Constant]
	if !ok {
		return nil, dynamo.Invalid(cfg.Constant, "map %s has no constant %q set", tr.Name(), cfg.Constant)
	}
	if cfg.Variable < 0 || cfg.Variable >= len(tr.Variables()) {
		return nil, dynamo.Invalid("variable", "index %d out of range", cfg.Variable)
	}
	if cfg.Record < 1 {
		return nil, dynamo.Invalid("record", "need at least one recorded step")
	}
	if cfg.Transient < 0 {
		cfg.Transient = 0
	}
	samples := cfg.Samples
	if samples < 2 {
		samples = 2
	}
	defer func() { _ = tr.SetConstant(cfg.Constant, orig) }()

	step := (cfg.To - cfg.From) / float64(samples-1)
	results := make([]SweepPoint, 0, samples)
	for i := 0; i < samples; i++ {
		param := cfg.From + float64(i)*step
		if err := tr.SetConstant(cfg.Constant, param); err != nil {
			return nil, err
		}
		if err := tr.SetInitial(cfg.Initial...); err != nil {
			return nil, err
		}
		o, err := tr.Orbit(ctx, cfg.Transient+cfg.Record)
		if err != nil {
			return nil, err
		}

		series := o.Series[cfg.Variable][cfg.Transient:]
		values := make([]float64, 0, 64)
		seen := make(map[int64]bool)
		for _, v := range series {
			key := int64(math.Round(v * 1000))
			if !seen[key] {
				seen[key] = true
				values = append(values, v)
			}
		}
		results = append(results, SweepPoint{Param: param, Values: values})
	}
	return results, nil
}

// SweepToASCII draws sweep data with the constant on the horizontal axis.
func SweepToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	var minVal, maxVal float64
	foundFirst := false
	for _, p := range data {
		for _, v := range p.Values {
			if !foundFirst {
				minVal, maxVal = v, v
				foundFirst = true
				continue
			}
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if !foundFirst {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := newCanvas(width, height)
	for i, p := range data {
		col := i * width / len(data)
		if col >= width {
			col = width - 1
		}
		for _, v := range p.Values {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}
	return render(canvas)
}

func newCanvas(width, height int) [][]rune {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	return canvas
}

func render(canvas [][]rune) string {
	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
