package viz

import (
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Bounds is the data rectangle shown on a canvas.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// Square returns the bounds [0, m)².
func Square(m float64) Bounds { return Bounds{0, m, 0, m} }

// Canvas is a braille dot matrix with one pen colour per cell. The last
// pen to touch a cell colours the whole cell.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Pens          [][]int
	pen           int
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Pens:   make([][]int, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Pens[i] = make([]int, w)
	}
	c.Clear()
	return c
}

// SetPen selects the palette index used by subsequent Set calls.
func (c *Canvas) SetPen(i int) { c.pen = i }

// Set lights the dot at (x, y) in sub-pixel coordinates. The canvas is
// Width*2 dots wide and Height*4 dots tall.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	c.Pens[row][col] = c.pen
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Pens[i][j] = 0
		}
	}
}

// Dots counts lit dots.
func (c *Canvas) Dots() int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			for bits := int(r - blank); bits != 0; bits &= bits - 1 {
				n++
			}
		}
	}
	return n
}

// Project maps a data point into sub-pixel coordinates, y pointing up.
func (c *Canvas) Project(x, y float64, b Bounds) (int, int) {
	w, h := float64(c.Width*2), float64(c.Height*4)
	px := int((x - b.MinX) / (b.MaxX - b.MinX) * w)
	py := int(h) - 1 - int((y-b.MinY)/(b.MaxY-b.MinY)*h)
	return px, py
}

// Unproject maps a sub-pixel back to the centre of its data cell.
func (c *Canvas) Unproject(px, py int, b Bounds) (float64, float64) {
	w, h := float64(c.Width*2), float64(c.Height*4)
	x := b.MinX + (float64(px)+0.5)/w*(b.MaxX-b.MinX)
	y := b.MinY + (h-float64(py)-0.5)/h*(b.MaxY-b.MinY)
	return x, y
}

// Plot lights the dot under a data point.
func (c *Canvas) Plot(x, y float64, b Bounds) {
	c.Set(c.Project(x, y, b))
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render colours each cell with its pen from palette, batching runs of the
// same pen into one styled span.
func (c *Canvas) Render(palette []lipgloss.Color) string {
	if len(palette) == 0 {
		return c.String()
	}
	var b strings.Builder
	for i, row := range c.Grid {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.Pens[i][j] == c.Pens[i][start] {
				continue
			}
			style := lipgloss.NewStyle().Foreground(palette[c.Pens[i][start]%len(palette)])
			b.WriteString(style.Render(string(row[start:j])))
			start = j
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Paletted rasterises the canvas into a two-colour image, cellW×cellH
// pixels per character, for GIF capture.
func (c *Canvas) Paletted(cellW, cellH int, fg color.Color) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, c.Width*cellW, c.Height*cellH), color.Palette{color.Black, fg})
	dotW, dotH := cellW/2, cellH/4
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			pattern := int(c.Grid[row][col] - blank)
			if pattern == 0 {
				continue
			}
			baseX, baseY := col*cellW, row*cellH
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(baseX+dx*dotW+px, baseY+dy*dotH+py, 1)
						}
					}
				}
			}
		}
	}
	return img
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
