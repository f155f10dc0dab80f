// Package expr compiles map update rules written as plain arithmetic text.
//
// An expression may use numbers, the declared variable and constant names,
// the operators + - * / % (floored modulo), parentheses and calls to the
// trusted functions sin and cos. Nothing else is accepted: there are no
// statements, assignments, attribute lookups or other calls.
//
// Names are resolved on token boundaries against a [dynamo.Symbols] table,
// so with only q declared, "sq" is rejected rather than half-rewritten.
package expr

import (
	"math"
	"sort"

	"github.com/san-kum/mapsim/internal/dynamo"
)

var functions = map[string]func(float64) float64{
	"sin": math.Sin,
	"cos": math.Cos,
}

// Functions lists the callable function names.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for n := range functions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// IsFunction reports whether name is reserved for a function.
func IsFunction(name string) bool {
	_, ok := functions[name]
	return ok
}

// Expr is a compiled expression bound to one symbol table. It is
// immutable and may be evaluated concurrently against distinct States.
type Expr struct {
	src  string
	root node
	syms *dynamo.Symbols
}

// Compile parses src against syms. Any input that is not a pure expression
// over syms yields an *InvalidExpressionError.
func Compile(src string, syms *dynamo.Symbols) (*Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks, syms: syms}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Expr{src: src, root: root, syms: syms}, nil
}

// Eval evaluates the expression against st, which must use the symbol
// table the expression was compiled with.
func (e *Expr) Eval(st *dynamo.State) (float64, error) {
	if st.Symbols() != e.syms {
		return 0, dynamo.Invalid("state", "symbol table does not match expression %q", e.src)
	}
	return e.root.eval(st)
}

func (e *Expr) Source() string { return e.src }

// String prints the parsed form with explicit parentheses.
func (e *Expr) String() string { return e.root.String() }

// Names returns the referenced variable and constant names, sorted.
func (e *Expr) Names() []string {
	set := make(map[string]struct{})
	e.root.collect(set)
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
