// Package export renders orbits and permutation frames to files: SVG
// scatter plots, PNG phase plots, and animated GIFs.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/mapsim/internal/maps"
)

// DefaultColors cycles across orbits in SVG output.
var DefaultColors = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#8888ff"}

// braille dot bits, row-major over the 2x4 cell
var pixelMap = [4][2]int{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// BrailleToSVG converts rows of braille runes (as drawn by the terminal
// canvas) to an SVG of dots.
func BrailleToSVG(rows [][]rune, scale float64, fill string) string {
	if len(rows) == 0 {
		return ""
	}
	if fill == "" {
		fill = DefaultColors[0]
	}

	width := float64(len(rows[0])) * scale * 2
	height := float64(len(rows)) * scale * 4

	var sb strings.Builder
	writeHeader(&sb, width, height)
	fmt.Fprintf(&sb, "<g fill=%q>\n", fill)

	dotRadius := scale * 0.4
	for row, cells := range rows {
		for col, r := range cells {
			if r < 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// OrbitsToSVG draws each orbit as a scatter of points over the square
// [0, modulus)², one colour per orbit, with q horizontal and p vertical.
// Maps without q and p use their first two variables.
func OrbitsToSVG(orbits []*maps.Orbit, modulus float64, width, height int, colors []string) string {
	if len(orbits) == 0 {
		return ""
	}
	x, y := maps.PhaseAxes(orbits[0].Names)
	return PlaneToSVG(orbits, modulus, x, y, width, height, colors)
}

// PlaneToSVG is OrbitsToSVG with variables x and y on the axes. Orbits
// lacking either variable are skipped.
func PlaneToSVG(orbits []*maps.Orbit, modulus float64, x, y, width, height int, colors []string) string {
	if len(orbits) == 0 || modulus <= 0 {
		return ""
	}
	if len(colors) == 0 {
		colors = DefaultColors
	}

	var sb strings.Builder
	writeHeader(&sb, float64(width), float64(height))

	for k, o := range orbits {
		if x < 0 || y < 0 || x >= o.Dim() || y >= o.Dim() {
			continue
		}
		fmt.Fprintf(&sb, "<g fill=%q>\n", colors[k%len(colors)])
		xs, ys := o.Series[x], o.Series[y]
		for i := range xs {
			cx := xs[i] / modulus * float64(width)
			cy := float64(height) - ys[i]/modulus*float64(height)
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"1\"/>\n", cx, cy)
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func writeHeader(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}
