// Package grid holds the square rasters that image maps permute.
package grid

import (
	"image"
	"image/color"

	"github.com/san-kum/mapsim/internal/dynamo"
)

// Grid is a square raster stored in row-major order. Cell (i, j) is row i,
// column j, matching the x/y index convention of image map expressions.
type Grid struct {
	size  int
	cells []color.RGBA
}

// New allocates a zeroed size×size grid.
func New(size int) (*Grid, error) {
	if size <= 0 {
		return nil, dynamo.Invalid("grid", "size must be positive, got %d", size)
	}
	return &Grid{size: size, cells: make([]color.RGBA, size*size)}, nil
}

// FromImage copies img into a grid. Only square images are accepted.
func FromImage(img image.Image) (*Grid, error) {
	b := img.Bounds()
	if b.Dx() != b.Dy() {
		return nil, dynamo.Invalid("grid", "image is not square (%dx%d)", b.Dx(), b.Dy())
	}
	g, err := New(b.Dx())
	if err != nil {
		return nil, err
	}
	for i := 0; i < g.size; i++ {
		for j := 0; j < g.size; j++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+j, b.Min.Y+i)).(color.RGBA)
			g.cells[i*g.size+j] = c
		}
	}
	return g, nil
}

// FromValues builds a grid from rows of gray levels. Handy for tests and
// small synthetic boards.
func FromValues(rows [][]uint8) (*Grid, error) {
	g, err := New(len(rows))
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != g.size {
			return nil, dynamo.Invalid("grid", "row %d has %d cells, want %d", i, len(row), g.size)
		}
		for j, v := range row {
			g.cells[i*g.size+j] = color.RGBA{R: v, G: v, B: v, A: 0xff}
		}
	}
	return g, nil
}

func (g *Grid) Size() int { return g.size }

func (g *Grid) At(i, j int) color.RGBA { return g.cells[i*g.size+j] }

func (g *Grid) Set(i, j int, c color.RGBA) { g.cells[i*g.size+j] = c }

// Cells exposes the backing slice so callers can read/write values directly.
func (g *Grid) Cells() []color.RGBA { return g.cells }

// Wrap applies toroidal wrapping to an index.
func (g *Grid) Wrap(i int) int {
	return (i%g.size + g.size) % g.size
}

func (g *Grid) Clone() *Grid {
	c := &Grid{size: g.size, cells: make([]color.RGBA, len(g.cells))}
	copy(c.cells, g.cells)
	return c
}

// Equal reports whether both grids have the same size and identical cells.
func (g *Grid) Equal(o *Grid) bool {
	if g.size != o.size {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Image renders the grid as an RGBA image.
func (g *Grid) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.size, g.size))
	for i := 0; i < g.size; i++ {
		for j := 0; j < g.size; j++ {
			img.SetRGBA(j, i, g.cells[i*g.size+j])
		}
	}
	return img
}

// Luma returns the perceived brightness of a cell in [0, 1].
func (g *Grid) Luma(i, j int) float64 {
	c := g.At(i, j)
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255
}
