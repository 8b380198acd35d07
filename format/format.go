// Package format implements the {{ }} template language used by --format.
//
// A template is literal text with embedded expressions. Expressions support
// string and number literals, variables looked up in a Context, the
// operators + - * / with the usual precedence, unary signs, parentheses and
// a fixed set of functions: lc, uc, duration, markup_escape, default, emoji
// and trunc.
package format

import (
	"strings"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
)

// Template is a parsed format string.
type Template struct {
	src    string
	nodes  []Node
	idents map[string]struct{}
}

// Parse compiles a template. Unknown functions and wrong argument counts are
// reported here rather than at expansion time.
func Parse(src string) (*Template, error) {
	nodes, idents, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Template{src: src, nodes: nodes, idents: idents}, nil
}

// String returns the source of the template.
func (t *Template) String() string { return t.src }

// ContainsKey reports whether the template reads the given variable.
func (t *Template) ContainsKey(key string) bool {
	_, ok := t.idents[key]
	return ok
}

// Expand renders the template. Absent values render as nothing. Any
// evaluation error fails the whole render.
func (t *Template) Expand(ctx Context) (string, error) {
	var b strings.Builder
	for _, node := range t.nodes {
		v, err := node.Eval(ctx)
		if err != nil {
			return "", err
		}
		b.WriteString(v.String())
	}
	return b.String(), nil
}

// Render expands the template against a player.
func (t *Template) Render(p *mpris.Player) (string, error) {
	return t.Expand(NewContext(p))
}
