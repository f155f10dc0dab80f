package expr

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokNumber:
		return "number " + t.text
	case tokIdent:
		return "identifier " + strconv.Quote(t.text)
	default:
		return strconv.Quote(t.text)
	}
}

// lex splits src into tokens. Any character outside the expression
// alphabet is rejected here, so statements never reach the parser.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			return nil, &InvalidExpressionError{Source: src, Offset: i, Reason: "invalid UTF-8"}
		case unicode.IsSpace(r):
			i += size
		case isDigit(r) || (r == '.' && i+1 < len(src) && isDigit(rune(src[i+1]))):
			tok, next, err := lexNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case isIdentStart(r):
			start := i
			for i < len(src) {
				r, size = utf8.DecodeRuneInString(src[i:])
				if !isIdentPart(r) {
					break
				}
				i += size
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '%':
			if r == '*' && i+1 < len(src) && src[i+1] == '*' {
				return nil, &InvalidExpressionError{Source: src, Offset: i, Reason: "unsupported operator \"**\""}
			}
			toks = append(toks, token{kind: tokOp, text: string(r), pos: i})
			i += size
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i += size
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i += size
		default:
			return nil, &InvalidExpressionError{Source: src, Offset: i, Reason: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func lexNumber(src string, start int) (token, int, error) {
	i := start
	for i < len(src) && isDigit(rune(src[i])) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(rune(src[i])) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(rune(src[j])) {
			for j < len(src) && isDigit(rune(src[j])) {
				j++
			}
			i = j
		}
	}
	text := src[start:i]
	if i < len(src) {
		if r, _ := utf8.DecodeRuneInString(src[i:]); isIdentPart(r) || r == '.' {
			return token{}, 0, &InvalidExpressionError{Source: src, Offset: start, Reason: "malformed number"}
		}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, 0, &InvalidExpressionError{Source: src, Offset: start, Reason: "malformed number " + strconv.Quote(text)}
	}
	return token{kind: tokNumber, text: text, num: v, pos: start}, i, nil
}

func isDigit(r rune) bool      { return r >= '0' && r <= '9' }
func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isIdentPart(r rune) bool  { return isIdentStart(r) || unicode.IsDigit(r) }

// IsIdentifier reports whether s lexes as a single identifier token.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if !isIdentPart(r) {
			return false
		}
	}
	return true
}
