package expr

import (
	"math"
	"strconv"

	"github.com/san-kum/mapsim/internal/dynamo"
)

// node is one AST element. Identifiers are resolved to state slots at
// compile time, so eval never looks names up.
type node interface {
	eval(st *dynamo.State) (float64, error)
	String() string
	collect(names map[string]struct{})
}

type number struct {
	val  float64
	text string
}

func (n number) eval(*dynamo.State) (float64, error) { return n.val, nil }
func (n number) String() string                     { return n.text }
func (n number) collect(map[string]struct{})        {}

type ref struct {
	slot int
	name string
}

func (r ref) eval(st *dynamo.State) (float64, error) { return st.Slot(r.slot) }
func (r ref) String() string                         { return r.name }
func (r ref) collect(names map[string]struct{})      { names[r.name] = struct{}{} }

type unary struct {
	op byte
	x  node
}

func (u unary) eval(st *dynamo.State) (float64, error) {
	v, err := u.x.eval(st)
	if err != nil {
		return 0, err
	}
	if u.op == '-' {
		return -v, nil
	}
	return v, nil
}

func (u unary) String() string                    { return "(" + string(u.op) + u.x.String() + ")" }
func (u unary) collect(names map[string]struct{}) { u.x.collect(names) }

type binary struct {
	op   byte
	l, r node
}

func (b binary) eval(st *dynamo.State) (float64, error) {
	l, err := b.l.eval(st)
	if err != nil {
		return 0, err
	}
	r, err := b.r.eval(st)
	if err != nil {
		return 0, err
	}
	switch b.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, dynamo.Invalid(b.String(), "division by zero")
		}
		return l / r, nil
	case '%':
		if r == 0 {
			return 0, dynamo.Invalid(b.String(), "modulo by zero")
		}
		return dynamo.Mod(l, r), nil
	}
	return math.NaN(), nil
}

func (b binary) String() string {
	return "(" + b.l.String() + " " + string(b.op) + " " + b.r.String() + ")"
}

func (b binary) collect(names map[string]struct{}) {
	b.l.collect(names)
	b.r.collect(names)
}

type call struct {
	name string
	fn   func(float64) float64
	arg  node
}

func (c call) eval(st *dynamo.State) (float64, error) {
	v, err := c.arg.eval(st)
	if err != nil {
		return 0, err
	}
	return c.fn(v), nil
}

func (c call) String() string                    { return c.name + "(" + c.arg.String() + ")" }
func (c call) collect(names map[string]struct{}) { c.arg.collect(names) }

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
