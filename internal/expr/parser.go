package expr

import (
	"fmt"

	"github.com/san-kum/mapsim/internal/dynamo"
)

// maxDepth bounds recursion so hostile input like "((((...))))" cannot
// exhaust the stack.
const maxDepth = 200

type parser struct {
	src   string
	toks  []token
	pos   int
	depth int
	syms  *dynamo.Symbols
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) fail(t token, format string, args ...any) error {
	return &InvalidExpressionError{Source: p.src, Offset: t.pos, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) parse() (node, error) {
	if p.peek().kind == tokEOF {
		return nil, p.fail(p.peek(), "empty expression")
	}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.fail(t, "unexpected %s", t)
	}
	return n, nil
}

// expr := term (('+'|'-') term)*
func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binary{op: t.text[0], l: left, r: right}
	}
}

// term := unary (('*'|'/'|'%') unary)*
func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/" && t.text != "%") {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binary{op: t.text[0], l: left, r: right}
	}
}

// unary := ('+'|'-') unary | primary
func (p *parser) unary() (node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, p.fail(p.peek(), "expression nested too deeply")
	}

	t := p.peek()
	if t.kind == tokOp && (t.text == "+" || t.text == "-") {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return unary{op: t.text[0], x: x}, nil
	}
	return p.primary()
}

// primary := number | ident | ident '(' expr ')' | '(' expr ')'
func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return number{val: t.num, text: formatNumber(t.num)}, nil
	case tokLParen:
		n, err := p.expr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, p.fail(c, "expected \")\", found %s", c)
		}
		return n, nil
	case tokIdent:
		return p.identifier(t)
	case tokEOF:
		return nil, p.fail(t, "unexpected end of input")
	default:
		return nil, p.fail(t, "unexpected %s", t)
	}
}

func (p *parser) identifier(t token) (node, error) {
	if p.peek().kind == tokLParen {
		fn, ok := functions[t.text]
		if !ok {
			if _, declared := p.syms.Lookup(t.text); declared {
				return nil, p.fail(t, "%q is not a function", t.text)
			}
			return nil, p.fail(t, "unknown function %q", t.text)
		}
		p.next()
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, p.fail(c, "expected \")\" closing %s(, found %s", t.text, c)
		}
		return call{name: t.text, fn: fn, arg: arg}, nil
	}

	if slot, ok := p.syms.Lookup(t.text); ok {
		return ref{slot: slot, name: t.text}, nil
	}
	if _, ok := functions[t.text]; ok {
		return nil, p.fail(t, "function %q must be called", t.text)
	}
	return nil, p.fail(t, "unknown identifier %q", t.text)
}
