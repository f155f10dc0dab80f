package maps

import (
	"errors"
	"image"
	"testing"

	"github.com/san-kum/mapsim/internal/dynamo"
	"github.com/san-kum/mapsim/internal/grid"
)

func imageMap(name string, fx, fy string) *Definition {
	return &Definition{
		Type:      KindImage,
		Name:      name,
		Variables: []string{"x", "y"},
		Functions: map[string]string{"x": fx, "y": fy},
	}
}

func board(t *testing.T, size int) *grid.Grid {
	t.Helper()
	g, err := grid.Checkerboard(size, 3)
	if err != nil {
		t.Fatal(err)
	}
	// Tag every cell with its coordinates so no two cells are equal.
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			c := g.At(i, j)
			c.R, c.G = uint8(i), uint8(j)
			g.Set(i, j, c)
		}
	}
	return g
}

func TestIdentityPermutation(t *testing.T) {
	for _, size := range []int{1, 5, 16, 33} {
		g := board(t, size)
		p, err := NewPermutation(imageMap("identity", "x", "y"), g)
		if err != nil {
			t.Fatal(err)
		}
		if err := p.Run(3); err != nil {
			t.Fatal(err)
		}
		if !p.Frame().Equal(g) {
			t.Errorf("size %d: identity changed the grid", size)
		}
	}
}

func TestCatPermutationRoundTrip(t *testing.T) {
	old := dynamo.Workers
	dynamo.Workers = 3
	t.Cleanup(func() { dynamo.Workers = old })

	fwdDef, _ := Builtin("CatImage")
	inv := imageMap("CatInverse", "x - y", "2*y - x")

	for _, size := range []int{7, 16, 40} {
		g := board(t, size)
		fwd, err := NewPermutation(fwdDef, g)
		if err != nil {
			t.Fatal(err)
		}
		if err := fwd.Step(); err != nil {
			t.Fatal(err)
		}
		// new[i][j] = old[2i+j][i+j]
		if got, want := fwd.Frame().At(1, 2), g.At(4%size, 3%size); got != want {
			t.Errorf("size %d: cell (1,2) = %v, want %v", size, got, want)
		}
		if fwd.Frame().Equal(g) {
			t.Errorf("size %d: cat map left the grid unchanged", size)
		}

		back, err := NewPermutation(inv, fwd.Frame())
		if err != nil {
			t.Fatal(err)
		}
		if err := back.Step(); err != nil {
			t.Fatal(err)
		}
		if !back.Frame().Equal(g) {
			t.Errorf("size %d: forward then inverse did not restore the grid", size)
		}
	}
}

func TestPermutationReset(t *testing.T) {
	def, _ := Builtin("CatImage")
	g := board(t, 12)
	p, err := NewPermutation(def, g)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(4); err != nil {
		t.Fatal(err)
	}
	if p.Steps() != 4 {
		t.Errorf("steps = %d, want 4", p.Steps())
	}
	p.Reset()
	if !p.Frame().Equal(g) || p.Steps() != 0 {
		t.Error("reset did not restore the base grid")
	}

	if err := p.Resize(6); err != nil {
		t.Fatal(err)
	}
	if p.Size() != 6 || p.Base().Size() != 6 {
		t.Errorf("resize gave size %d", p.Size())
	}
	if err := p.Resize(g.Size()); err != nil {
		t.Fatal(err)
	}
	if !p.Frame().Equal(g) {
		t.Error("resizing back to the original size should restore the original grid")
	}
	if err := p.Resize(0); !errors.Is(err, dynamo.ErrValidation) {
		t.Errorf("resize to 0: expected validation error, got %v", err)
	}
}

func TestPermutationErrors(t *testing.T) {
	g := board(t, 4)

	t.Run("non-square", func(t *testing.T) {
		def, _ := Builtin("CatImage")
		img := image.NewRGBA(image.Rect(0, 0, 4, 5))
		if _, err := NewPermutationFromImage(def, img); !errors.Is(err, dynamo.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("non-finite index", func(t *testing.T) {
		p, err := NewPermutation(imageMap("blowup", "x + 1e308*10", "y"), g)
		if err != nil {
			t.Fatal(err)
		}
		if err := p.Step(); !errors.Is(err, dynamo.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
		if !p.Frame().Equal(g) {
			t.Error("failed step changed the frame")
		}
	})

	t.Run("missing constant", func(t *testing.T) {
		def := imageMap("shear", "x + K*y", "y")
		def.Constants = []string{"K"}
		p, err := NewPermutation(def, g)
		if err != nil {
			t.Fatal(err)
		}
		if err := p.Step(); !errors.Is(err, dynamo.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
		if err := p.SetConstant("K", 1); err != nil {
			t.Fatal(err)
		}
		if err := p.Step(); err != nil {
			t.Error(err)
		}
	})

	t.Run("standard definition", func(t *testing.T) {
		def, _ := Builtin("StandardMap")
		if _, err := NewPermutation(def, g); !errors.Is(err, dynamo.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("nil grid", func(t *testing.T) {
		def, _ := Builtin("CatImage")
		if _, err := NewPermutation(def, nil); !errors.Is(err, dynamo.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}
