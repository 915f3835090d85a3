// Package query parses and evaluates the small boolean language used to pick
// samples and features out of a study by their metadata:
//
//	phenotype: Immature BDMC
//	not (phenotype: Immature BDMC)
//	pooled
//	gene_category: LPS Response and not housekeeping
//
// "name: value" matches rows whose column name equals value. A bare name is a
// boolean metadata column or, failing that, a named list of ids; a list may be
// named by its URL, as in gs://bucket/genes.txt. "and", "or", "not" and
// parentheses combine them with the usual precedence.
package query

import (
	"fmt"
	"strings"
	"unicode"
)

// SyntaxError reports a malformed expression. Offset is the byte offset of the
// offending token.
type SyntaxError struct {
	Expr   string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d in %q: %s", e.Offset, e.Expr, e.Msg)
}

type tokenKind byte

const (
	tokEOF tokenKind = iota
	tokWord
	tokColon
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lex(expr string) []token {
	var out []token
	for i := 0; i < len(expr); {
		c := rune(expr[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == ':':
			out = append(out, token{tokColon, ":", i})
			i++
		case c == '(':
			out = append(out, token{tokLParen, "(", i})
			i++
		case c == ')':
			out = append(out, token{tokRParen, ")", i})
			i++
		default:
			start := i
			for i < len(expr) && !strings.ContainsRune(" \t\n\r:()", rune(expr[i])) {
				i++
			}
			// scheme://... is one word, colons and all.
			if strings.HasPrefix(expr[i:], "://") {
				for i < len(expr) && !strings.ContainsRune(" \t\n\r()", rune(expr[i])) {
					i++
				}
			}
			out = append(out, token{tokWord, expr[start:i], start})
		}
	}
	return append(out, token{tokEOF, "", len(expr)})
}

func isKeyword(t token, kw string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, kw)
}

type parser struct {
	expr string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...interface{}) error {
	return &SyntaxError{Expr: p.expr, Offset: t.pos, Msg: fmt.Sprintf(format, args...)}
}

// Parse turns an expression into a tree. An empty or all-space expression
// parses to All.
func Parse(expr string) (Node, error) {
	p := &parser{expr: expr, toks: lex(expr)}
	if p.peek().kind == tokEOF {
		return All{}, nil
	}

	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return n, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for isKeyword(p.peek(), "or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for isKeyword(p.peek(), "and") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = And{left, right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if isKeyword(p.peek(), "not") {
		p.next()
		n, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{n}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.next()
	switch {
	case t.kind == tokLParen:
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected ')'")
		}
		return n, nil
	case t.kind == tokWord && !isKeyword(t, "and") && !isKeyword(t, "or"):
		return p.parsePredicate(t)
	case t.kind == tokEOF:
		return nil, p.errorf(t, "unexpected end of expression")
	}
	return nil, p.errorf(t, "unexpected %q", t.text)
}

// parsePredicate reads "name" or "name: value words". The value runs until a
// closing parenthesis, an and/or keyword, or the end.
func (p *parser) parsePredicate(name token) (Node, error) {
	if p.peek().kind != tokColon {
		return Name{Name: name.text}, nil
	}
	colon := p.next()

	var words []string
	for {
		t := p.peek()
		if t.kind != tokWord || isKeyword(t, "and") || isKeyword(t, "or") {
			break
		}
		words = append(words, p.next().text)
	}
	if len(words) == 0 {
		return nil, p.errorf(colon, "expected a value after %q:", name.text)
	}

	return Equals{Column: name.text, Value: strings.Join(words, " ")}, nil
}
