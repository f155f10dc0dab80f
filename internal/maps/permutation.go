package maps

import (
	"image"
	"math"

	"github.com/san-kum/mapsim/internal/dynamo"
	"github.com/san-kum/mapsim/internal/grid"
)

// rowChunk is the minimum number of rows a ParallelFor worker takes.
const rowChunk = 8

// Permutation iterates an image map over a square grid. Each step moves the
// content of cell (f(i,j), g(i,j)) mod S into cell (i, j), evaluating both
// index functions on the same (i, j).
type Permutation struct {
	prog  *program
	state *dynamo.State
	orig  *grid.Grid
	base  *grid.Grid
	frame *grid.Grid
	back  *grid.Grid
	steps int
}

// NewPermutation validates def and binds it to a copy of base.
func NewPermutation(def *Definition, base *grid.Grid) (*Permutation, error) {
	def = def.Clone()
	if def.Kind() != KindImage {
		return nil, dynamo.Invalid("type", "map %s is a %s map, not an image map", def.Name, def.Kind())
	}
	if base == nil {
		return nil, dynamo.Invalid("image", "map %s: no grid given", def.Name)
	}
	prog, err := compile(def)
	if err != nil {
		return nil, err
	}
	orig := base.Clone()
	p := &Permutation{prog: prog, state: prog.newState(), orig: orig, base: orig}
	p.Reset()
	return p, nil
}

// NewPermutationFromImage is NewPermutation for a decoded image, which
// must be square.
func NewPermutationFromImage(def *Definition, img image.Image) (*Permutation, error) {
	g, err := grid.FromImage(img)
	if err != nil {
		return nil, err
	}
	return NewPermutation(def, g)
}

func (p *Permutation) Name() string { return p.prog.def.Name }

func (p *Permutation) Kind() Kind { return KindImage }

func (p *Permutation) Definition() *Definition { return p.prog.def.Clone() }

func (p *Permutation) Constants() map[string]float64 { return p.prog.constants(p.state) }

// Size is the side length S; indices are taken mod S.
func (p *Permutation) Size() int { return p.frame.Size() }

// Steps is how many times Step has succeeded since the last Reset or Resize.
func (p *Permutation) Steps() int { return p.steps }

// Frame returns the current grid. It is overwritten by the next Step.
func (p *Permutation) Frame() *grid.Grid { return p.frame }

// Base returns the grid the permutation started from.
func (p *Permutation) Base() *grid.Grid { return p.base }

func (p *Permutation) SetConstant(name string, v float64) error {
	return p.prog.setConstant(p.state, name, v)
}

// Reset restores the starting grid.
func (p *Permutation) Reset() {
	p.frame = p.base.Clone()
	p.back = p.base.Clone()
	p.steps = 0
}

// Resize resamples the original grid to size x size and resets to it. The
// original is never modified, so repeated resizes do not accumulate loss.
func (p *Permutation) Resize(size int) error {
	g, err := grid.Resize(p.orig, size)
	if err != nil {
		return err
	}
	p.base = g
	p.Reset()
	return nil
}

// Step applies the map once. The frame is left unchanged on error.
func (p *Permutation) Step() error {
	if err := p.prog.checkConstants(p.state); err != nil {
		return err
	}
	size := p.frame.Size()
	src, dst := p.frame, p.back
	modulus := float64(size)

	errs := make([]error, dynamo.NumChunks(size, rowChunk))
	dynamo.ParallelFor(size, rowChunk, func(worker, start, end int) {
		st := p.state.Clone()
		for i := start; i < end; i++ {
			for j := 0; j < size; j++ {
				si, sj, err := p.source(st, i, j, modulus)
				if err != nil {
					errs[worker] = &dynamo.IterationError{Step: p.steps + 1, Wrapped: err}
					return
				}
				dst.Set(i, j, src.At(si, sj))
			}
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	p.frame, p.back = dst, src
	p.steps++
	return nil
}

// Run applies Step n times.
func (p *Permutation) Run(n int) error {
	for i := 0; i < n; i++ {
		if err := p.Step(); err != nil {
			return err
		}
	}
	return nil
}

// source returns the cell whose content lands in (i, j).
func (p *Permutation) source(st *dynamo.State, i, j int, modulus float64) (int, int, error) {
	st.SetSlot(0, float64(i))
	st.SetSlot(1, float64(j))
	var idx [2]int
	for k, e := range p.prog.exprs {
		v, err := e.Eval(st)
		if err != nil {
			return 0, 0, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, dynamo.Invalid(p.prog.def.Variables[k], "index expression produced %v", v)
		}
		idx[k] = int(math.Floor(dynamo.Mod(v, modulus))) % int(modulus)
	}
	return idx[0], idx[1], nil
}
