package analysis

import "github.com/san-kum/mapsim/internal/maps"

// Point is one phase-space sample.
type Point struct{ X, Y float64 }

// PhasePortrait2D holds data for a 2D phase space plot.
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

// NewPhasePortrait collects (xIdx, yIdx) pairs from every orbit.
func NewPhasePortrait(orbits []*maps.Orbit, xIdx, yIdx int) *PhasePortrait2D {
	portrait := &PhasePortrait2D{XIndex: xIdx, YIndex: yIdx}
	for _, o := range orbits {
		if xIdx >= o.Dim() || yIdx >= o.Dim() {
			return nil
		}
		xs, ys := o.Series[xIdx], o.Series[yIdx]
		for i := range xs {
			portrait.Points = append(portrait.Points, Point{X: xs[i], Y: ys[i]})
		}
	}
	return portrait
}

// Bounds returns the data extent.
func (p *PhasePortrait2D) Bounds() (minX, maxX, minY, maxY float64) {
	if len(p.Points) == 0 {
		return 0, 1, 0, 1
	}
	minX, maxX = p.Points[0].X, p.Points[0].X
	minY, maxY = p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}
	return minX, maxX, minY, maxY
}

// PhasePortraitToASCII plots the portrait over [0, modulus)². A
// non-positive modulus falls back to the data bounds.
func PhasePortraitToASCII(portrait *PhasePortrait2D, modulus float64, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX, minY, maxY := 0.0, modulus, 0.0, modulus
	if modulus <= 0 {
		minX, maxX, minY, maxY = portrait.Bounds()
	}
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	canvas := newCanvas(width, height)
	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}
	return render(canvas)
}
