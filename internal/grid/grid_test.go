package grid

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/san-kum/mapsim/internal/dynamo"
)

func TestFromImageRejectsNonSquare(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	if _, err := FromImage(img); !errors.Is(err, dynamo.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFromImageOrientation(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	img.SetRGBA(2, 0, color.RGBA{R: 9, A: 255}) // x=2 (column), y=0 (row)

	g, err := FromImage(img)
	if err != nil {
		t.Fatal(err)
	}
	if g.At(0, 2).R != 9 {
		t.Errorf("expected row 0 column 2 to carry the pixel, got %v", g.At(0, 2))
	}
	if !g.Image().Bounds().Eq(img.Bounds()) {
		t.Error("round trip changed bounds")
	}
	if g.Image().RGBAAt(2, 0).R != 9 {
		t.Error("round trip moved the pixel")
	}
}

func TestFromValues(t *testing.T) {
	if _, err := FromValues([][]uint8{{1, 2}, {3}}); err == nil {
		t.Error("expected error for ragged rows")
	}
	if _, err := FromValues(nil); err == nil {
		t.Error("expected error for empty grid")
	}

	g, err := FromValues([][]uint8{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatal(err)
	}
	if g.Size() != 2 || g.At(1, 0).R != 3 {
		t.Errorf("unexpected grid contents")
	}
}

func TestCloneEqual(t *testing.T) {
	g, _ := FromValues([][]uint8{{1, 2}, {3, 4}})
	c := g.Clone()
	if !g.Equal(c) {
		t.Fatal("clone should be equal")
	}
	c.Set(0, 0, color.RGBA{R: 200})
	if g.Equal(c) {
		t.Error("mutating the clone changed equality")
	}
	if g.At(0, 0).R != 1 {
		t.Error("clone shares storage")
	}
}

func TestWrap(t *testing.T) {
	g, _ := New(5)
	for in, want := range map[int]int{0: 0, 5: 0, 7: 2, -1: 4, -6: 4} {
		if got := g.Wrap(in); got != want {
			t.Errorf("Wrap(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestSaveLoadResize(t *testing.T) {
	g, err := Checkerboard(16, 4)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "board.png")
	if err := Save(path, g); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.Equal(g) {
		t.Error("PNG round trip changed pixels")
	}

	small, err := Resize(g, 8)
	if err != nil {
		t.Fatal(err)
	}
	if small.Size() != 8 {
		t.Errorf("expected size 8, got %d", small.Size())
	}

	if _, err := Resize(g, 0); err == nil {
		t.Error("expected error for zero size")
	}
}
