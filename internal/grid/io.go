package grid

import (
	"fmt"
	"image/color"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
)

// Load reads a square raster from disk (PNG, JPEG or BMP).
func Load(path string) (*Grid, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", path, err)
	}
	g, err := FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", path, err)
	}
	return g, nil
}

// Save writes the grid as a PNG.
func Save(path string, g *Grid) error {
	if err := imgio.Save(path, g.Image(), imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("save image %s: %w", path, err)
	}
	return nil
}

// Resize resamples g to size×size with linear filtering.
func Resize(g *Grid, size int) (*Grid, error) {
	if size == g.size {
		return g.Clone(), nil
	}
	if _, err := New(size); err != nil {
		return nil, err
	}
	return FromImage(transform.Resize(g.Image(), size, size, transform.Linear))
}

// Checkerboard builds a test pattern with a diagonal gradient, so that
// scrambling and unscrambling are easy to see.
func Checkerboard(size, square int) (*Grid, error) {
	g, err := New(size)
	if err != nil {
		return nil, err
	}
	if square < 1 {
		square = 1
	}
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			v := uint8(255 * (i + j) / (2 * size))
			c := color.RGBA{A: 0xff}
			if (i/square+j/square)%2 == 0 {
				c.R, c.G, c.B = 255-v, v, 128
			} else {
				c.R, c.G, c.B = v/2, v/2, 255-v
			}
			g.cells[i*size+j] = c
		}
	}
	return g, nil
}
