package format

import "fmt"

// ParseError reports a malformed template.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (position %d)", e.Msg, e.Pos)
}

// UnknownFunctionError reports a call to a function that does not exist.
type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return "unknown template function: " + e.Name
}

// ArityError reports a call with the wrong number of arguments.
type ArityError struct {
	Func string
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	plural := "argument"
	if e.Want != 1 {
		plural = "arguments"
	}
	return fmt.Sprintf("function %s takes exactly %d %s (got %d)", e.Func, e.Want, plural, e.Got)
}

// InvalidEmojiArgumentError reports a value emoji has no glyph for.
type InvalidEmojiArgumentError struct {
	Value string
}

func (e *InvalidEmojiArgumentError) Error() string {
	return fmt.Sprintf("emoji: no glyph for %q (expected a playback status or a volume)", e.Value)
}

// EvalError reports a runtime failure such as a type mismatch or a
// division by zero.
type EvalError struct {
	Msg string
}

func (e *EvalError) Error() string {
	return e.Msg
}
