package format

import (
	"fmt"
	"strings"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
)

const maxArgs = 32

// parser reads one {{ }} block. Precedence, lowest first: + -, * /,
// unary sign, then literals, identifiers, calls and parentheses.
type parser struct {
	lex    lexer
	tok    token
	offset int
	idents map[string]struct{}
}

func (p *parser) errorf(pos int, format string, args ...interface{}) error {
	return &ParseError{Pos: p.offset + pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Pos += p.offset
		}
		return err
	}
	p.tok = tok
	return nil
}

// parseBlock parses an expression followed by "}}" and returns the number
// of bytes consumed from src.
func (p *parser) parseBlock() (Node, int, error) {
	if err := p.advance(); err != nil {
		return nil, 0, err
	}
	if p.tok.kind == tokClose {
		return nil, 0, p.errorf(p.tok.pos, "unexpected \"}}\", expected expression")
	}
	node, err := p.expr()
	if err != nil {
		return nil, 0, err
	}
	if p.tok.kind != tokClose {
		return nil, 0, p.errorf(p.tok.pos, `expecting "}}"`)
	}
	return node, p.lex.pos, nil
}

func (p *parser) expr() (Node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokPlus || p.tok.kind == tokMinus {
		op := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binary{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) term() (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokStar || p.tok.kind == tokSlash {
		op := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &binary{op: op, left: left, right: right}
	}
	return left, nil
}

// unary folds a run of signs into a single operation.
func (p *parser) unary() (Node, error) {
	if p.tok.kind != tokPlus && p.tok.kind != tokMinus {
		return p.primary()
	}
	negative := false
	for p.tok.kind == tokPlus || p.tok.kind == tokMinus {
		if p.tok.kind == tokMinus {
			negative = !negative
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	operand, err := p.primary()
	if err != nil {
		return nil, err
	}
	if negative {
		return &unary{op: '-', operand: operand}, nil
	}
	return &unary{op: '+', operand: operand}, nil
}

func (p *parser) primary() (Node, error) {
	tok := p.tok
	switch tok.kind {
	case tokNumber:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &literal{value: mpris.FloatValue(tok.num)}, nil

	case tokString:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &literal{value: mpris.StringValue(tok.text)}, nil

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		node, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf(p.tok.pos, `expected ")"`)
		}
		return node, p.advance()

	case tokIdent:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokLParen {
			return p.call(tok)
		}
		p.idents[tok.text] = struct{}{}
		return &identifier{name: tok.text}, nil

	case tokEOF:
		return nil, p.errorf(tok.pos, "unexpected end of expression")
	}
	return nil, p.errorf(tok.pos, "unexpected %s, expected expression", tokenNames[tok.kind])
}

func (p *parser) call(name token) (Node, error) {
	fn, ok := functions[name.text]
	if !ok {
		return nil, &UnknownFunctionError{Name: name.text}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var args []Node
	for p.tok.kind != tokRParen {
		if len(args) == maxArgs {
			return nil, p.errorf(p.tok.pos, "maximum args of %d exceeded", maxArgs)
		}
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf(p.tok.pos, `expected ")"`)
		}
	}
	if len(args) != fn.arity {
		return nil, &ArityError{Func: name.text, Want: fn.arity, Got: len(args)}
	}
	return &call{fn: fn, args: args}, p.advance()
}

// parse splits a template into literal text and expression blocks.
func parse(src string) ([]Node, map[string]struct{}, error) {
	var nodes []Node
	idents := make(map[string]struct{})
	pos := 0
	for pos < len(src) {
		open := strings.Index(src[pos:], "{{")
		if open < 0 {
			nodes = append(nodes, &literal{value: mpris.StringValue(src[pos:])})
			break
		}
		if open > 0 {
			nodes = append(nodes, &literal{value: mpris.StringValue(src[pos : pos+open])})
		}
		start := pos + open + 2
		p := &parser{lex: lexer{src: src[start:]}, offset: start, idents: idents}
		node, consumed, err := p.parseBlock()
		if err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, node)
		pos = start + consumed
	}
	return nodes, idents, nil
}
