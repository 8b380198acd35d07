package format

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokLParen
	tokRParen
	tokComma
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokClose // }}
)

var tokenNames = map[tokenKind]string{
	tokEOF:    "end of format",
	tokNumber: "number",
	tokString: "string",
	tokIdent:  "identifier",
	tokLParen: `"("`,
	tokRParen: `")"`,
	tokComma:  `","`,
	tokPlus:   `"+"`,
	tokMinus:  `"-"`,
	tokStar:   `"*"`,
	tokSlash:  `"/"`,
	tokClose:  `"}}"`,
}

var punctuation = map[byte]tokenKind{
	'(': tokLParen, ')': tokRParen, ',': tokComma,
	'+': tokPlus, '-': tokMinus, '*': tokStar, '/': tokSlash,
}

type token struct {
	kind tokenKind
	pos  int
	text string
	num  float64
}

// lexer scans the inside of a {{ }} block.
type lexer struct {
	src string
	pos int
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == ':'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := l.src[l.pos]
	if kind, ok := punctuation[c]; ok {
		l.pos++
		return token{kind: kind, pos: start, text: string(c)}, nil
	}

	switch {
	case c == '}' && strings.HasPrefix(l.src[l.pos:], "}}"):
		l.pos += 2
		return token{kind: tokClose, pos: start, text: "}}"}, nil

	case c == '"':
		end := strings.IndexByte(l.src[l.pos+1:], '"')
		if end < 0 {
			return token{}, &ParseError{Pos: start, Msg: "unterminated string"}
		}
		text := l.src[l.pos+1 : l.pos+1+end]
		l.pos += end + 2
		return token{kind: tokString, pos: start, text: text}, nil

	case isDigit(c) || c == '.':
		for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
			l.pos++
		}
		text := l.src[start:l.pos]
		num, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token{}, &ParseError{Pos: start, Msg: "invalid number: \"" + text + "\""}
		}
		return token{kind: tokNumber, pos: start, text: text, num: num}, nil

	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, pos: start, text: l.src[start:l.pos]}, nil
	}

	return token{}, &ParseError{Pos: start, Msg: "unexpected \"" + string(c) + "\", expected expression"}
}
