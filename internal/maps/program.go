package maps

import (
	"fmt"
	"math"

	"github.com/san-kum/mapsim/internal/dynamo"
	"github.com/san-kum/mapsim/internal/expr"
)

// program is a validated definition with one compiled expression per
// variable, in declaration order.
type program struct {
	def   *Definition
	syms  *dynamo.Symbols
	exprs []*expr.Expr
}

func compile(def *Definition) (*program, error) {
	if err := def.checkStructure(); err != nil {
		return nil, err
	}
	syms, err := def.Symbols()
	if err != nil {
		return nil, err
	}
	p := &program{def: def, syms: syms, exprs: make([]*expr.Expr, len(def.Variables))}
	for i, v := range def.Variables {
		e, err := expr.Compile(def.Functions[v], syms)
		if err != nil {
			return nil, fmt.Errorf("map %s: function for %s: %w", def.Name, v, err)
		}
		p.exprs[i] = e
	}
	return p, nil
}

// newState returns a State carrying the definition defaults.
func (p *program) newState() *dynamo.State {
	st := dynamo.NewState(p.syms)
	for name, v := range p.def.Defaults {
		_ = st.Set(name, v)
	}
	return st
}

// step updates the variables one after another, so each expression sees
// the values already produced earlier in the same step.
func (p *program) step(st *dynamo.State, modulus float64) error {
	for slot, e := range p.exprs {
		v, err := e.Eval(st)
		if err != nil {
			return err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dynamo.Invalid(p.def.Variables[slot], "update produced %v", v)
		}
		st.SetSlot(slot, dynamo.Mod(v, modulus))
	}
	return nil
}

// checkConstants reports the first constant without a value.
func (p *program) checkConstants(st *dynamo.State) error {
	if missing := st.Missing(p.def.Constants); missing != "" {
		return dynamo.Invalid(missing, "map %s: constant has no value", p.def.Name)
	}
	return nil
}

func (p *program) setConstant(st *dynamo.State, name string, v float64) error {
	slot, ok := p.syms.Lookup(name)
	if !ok || slot < len(p.def.Variables) {
		return dynamo.Invalid(name, "map %s has no constant %q", p.def.Name, name)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return dynamo.Invalid(name, "constant must be finite, got %v", v)
	}
	st.SetSlot(slot, v)
	return nil
}

func (p *program) constants(st *dynamo.State) map[string]float64 {
	out := make(map[string]float64, len(p.def.Constants))
	for _, c := range p.def.Constants {
		if v, err := st.Get(c); err == nil {
			out[c] = v
		}
	}
	return out
}
