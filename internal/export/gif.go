package export

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"os"

	"github.com/san-kum/mapsim/internal/grid"
)

// DefaultDelay is the per-frame delay in hundredths of a second.
const DefaultDelay = 10

// Paletted quantises a grid frame to the Plan 9 palette.
func Paletted(g *grid.Grid) *image.Paletted {
	src := g.Image()
	dst := image.NewPaletted(src.Bounds(), palette.Plan9)
	draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
	return dst
}

// EncodeGIF writes frames as a looping animation.
func EncodeGIF(w io.Writer, frames []*image.Paletted, delay int) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to encode")
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	anim := gif.GIF{LoopCount: 0}
	for _, f := range frames {
		anim.Image = append(anim.Image, f)
		anim.Delay = append(anim.Delay, delay)
	}
	return gif.EncodeAll(w, &anim)
}

// WriteGIF encodes frames into a file at path.
func WriteGIF(path string, frames []*image.Paletted, delay int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeGIF(f, frames, delay); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// GridsToGIF quantises each grid and writes them as one animation.
func GridsToGIF(path string, frames []*grid.Grid, delay int) error {
	images := make([]*image.Paletted, len(frames))
	for i, g := range frames {
		images[i] = Paletted(g)
	}
	return WriteGIF(path, images, delay)
}
