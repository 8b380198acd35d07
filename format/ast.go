package format

import (
	"fmt"
	"math"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
)

// Value is what expressions evaluate to. The zero Value is absent.
type Value = mpris.Value

// Node is an evaluable piece of a template.
type Node interface {
	Eval(ctx Context) (Value, error)
}

type literal struct {
	value Value
}

func (n *literal) Eval(Context) (Value, error) { return n.value, nil }

type identifier struct {
	name string
}

// Eval looks the name up. Missing names are absent, not an error.
func (n *identifier) Eval(ctx Context) (Value, error) {
	return ctx[n.name], nil
}

type call struct {
	fn   *function
	args []Node
}

func (n *call) Eval(ctx Context) (Value, error) {
	args := make([]Value, len(n.args))
	for i, arg := range n.args {
		v, err := arg.Eval(ctx)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	return n.fn.impl(args)
}

type unary struct {
	op      byte
	operand Node
}

func (n *unary) Eval(ctx Context) (Value, error) {
	v, err := n.operand.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	switch v.Kind {
	case mpris.KindInt:
		if n.op == '+' {
			return v, nil
		}
		if v.Int == math.MinInt64 {
			return Value{}, &EvalError{Msg: "Numeric overflow detected"}
		}
		return mpris.IntValue(-v.Int), nil
	case mpris.KindFloat:
		if n.op == '+' {
			return v, nil
		}
		return mpris.FloatValue(-v.Float), nil
	}
	return Value{}, &EvalError{Msg: fmt.Sprintf("Got unsupported operand type for unary %c: '%s'", n.op, kindName(v))}
}

type binary struct {
	op          byte
	left, right Node
}

func (n *binary) Eval(ctx Context) (Value, error) {
	l, err := n.left.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	r, err := n.right.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return arith(n.op, l, r)
}

func kindName(v Value) string {
	switch v.Kind {
	case mpris.KindString:
		return "string"
	case mpris.KindStrings:
		return "list"
	case mpris.KindInt:
		return "int"
	case mpris.KindFloat:
		return "float"
	case mpris.KindBool:
		return "bool"
	}
	return "absent"
}

func isNumber(v Value) bool {
	return v.Kind == mpris.KindInt || v.Kind == mpris.KindFloat
}

func toFloat(v Value) float64 {
	if v.Kind == mpris.KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// arith applies a binary operator. Two ints stay an int, anything else
// numeric is computed in float64.
func arith(op byte, l, r Value) (Value, error) {
	if l.IsZero() || r.IsZero() {
		return Value{}, &EvalError{Msg: fmt.Sprintf("Got unsupported operand type for %c: absent", op)}
	}
	if !isNumber(l) || !isNumber(r) {
		return Value{}, &EvalError{Msg: fmt.Sprintf("Got unsupported operand types for %c: '%s' and '%s'", op, kindName(l), kindName(r))}
	}

	if l.Kind == mpris.KindInt && r.Kind == mpris.KindInt {
		return intArith(op, l.Int, r.Int)
	}

	a, b := toFloat(l), toFloat(r)
	switch op {
	case '+':
		return mpris.FloatValue(a + b), nil
	case '-':
		return mpris.FloatValue(a - b), nil
	case '*':
		return mpris.FloatValue(a * b), nil
	case '/':
		if b == 0 {
			return Value{}, &EvalError{Msg: "Divide by zero error"}
		}
		return mpris.FloatValue(a / b), nil
	}
	return Value{}, &EvalError{Msg: fmt.Sprintf("unknown operator %c", op)}
}

func intArith(op byte, a, b int64) (Value, error) {
	overflow := &EvalError{Msg: "Numeric overflow detected"}
	switch op {
	case '+':
		r := a + b
		if (b > 0 && r < a) || (b < 0 && r > a) {
			return Value{}, overflow
		}
		return mpris.IntValue(r), nil
	case '-':
		r := a - b
		if (b > 0 && r > a) || (b < 0 && r < a) {
			return Value{}, overflow
		}
		return mpris.IntValue(r), nil
	case '*':
		if a == 0 || b == 0 {
			return mpris.IntValue(0), nil
		}
		r := a * b
		if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return Value{}, overflow
		}
		return mpris.IntValue(r), nil
	case '/':
		if b == 0 {
			return Value{}, &EvalError{Msg: "Divide by zero error"}
		}
		if a == math.MinInt64 && b == -1 {
			return Value{}, overflow
		}
		return mpris.IntValue(a / b), nil
	}
	return Value{}, &EvalError{Msg: fmt.Sprintf("unknown operator %c", op)}
}
