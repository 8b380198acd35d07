package format

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
)

type function struct {
	arity int
	impl  func(args []Value) (Value, error)
}

var functions = map[string]*function{
	"lc":            {arity: 1, impl: caseFunc(cases.Lower(language.Und))},
	"uc":            {arity: 1, impl: caseFunc(cases.Upper(language.Und))},
	"duration":      {arity: 1, impl: duration},
	"markup_escape": {arity: 1, impl: markupEscape},
	"default":       {arity: 2, impl: defaultValue},
	"emoji":         {arity: 1, impl: emoji},
	"trunc":         {arity: 2, impl: trunc},
}

func caseFunc(c cases.Caser) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		if args[0].IsZero() {
			return Value{}, nil
		}
		return mpris.StringValue(c.String(args[0].String())), nil
	}
}

// duration formats microseconds as [h:]mm:ss.
func duration(args []Value) (Value, error) {
	v := args[0]
	if v.IsZero() {
		return Value{}, nil
	}
	var usec int64
	switch v.Kind {
	case mpris.KindInt:
		usec = v.Int
	case mpris.KindFloat:
		usec = int64(v.Float)
	default:
		return Value{}, &EvalError{Msg: "function duration can only be called on track position values"}
	}

	sign := ""
	if usec < 0 {
		sign = "-"
		usec = -usec
	}
	seconds := usec / 1000000
	hours := seconds / 3600
	minutes := seconds / 60 % 60
	seconds %= 60
	if hours != 0 {
		return mpris.StringValue(fmt.Sprintf("%s%d:%02d:%02d", sign, hours, minutes, seconds)), nil
	}
	return mpris.StringValue(fmt.Sprintf("%s%d:%02d", sign, minutes, seconds)), nil
}

var markupReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
)

func markupEscape(args []Value) (Value, error) {
	if args[0].IsZero() {
		return Value{}, nil
	}
	return mpris.StringValue(markupReplacer.Replace(args[0].String())), nil
}

// defaultValue returns the fallback when the first argument is absent or
// empty.
func defaultValue(args []Value) (Value, error) {
	v := args[0]
	switch {
	case v.IsZero(),
		v.Kind == mpris.KindString && v.Str == "",
		v.Kind == mpris.KindStrings && len(v.Strings) == 0:
		return args[1], nil
	}
	return v, nil
}

var statusEmoji = map[string]string{
	string(mpris.StatusPlaying): "▶️",
	string(mpris.StatusPaused):  "⏸️",
	string(mpris.StatusStopped): "⏹️",
}

const (
	emojiMute   = "🔇"
	emojiMedium = "🔉"
	emojiHigh   = "🔊"
)

// emoji maps a playback status or a volume to a glyph. Volumes are
// bucketed: 0 is mute, up to 0.5 is medium, above is high.
func emoji(args []Value) (Value, error) {
	v := args[0]
	switch v.Kind {
	case mpris.KindNone:
		return Value{}, nil
	case mpris.KindString:
		if e, ok := statusEmoji[v.Str]; ok {
			return mpris.StringValue(e), nil
		}
	case mpris.KindInt, mpris.KindFloat:
		vol := toFloat(v)
		switch {
		case vol == 0:
			return mpris.StringValue(emojiMute), nil
		case vol > 0 && vol <= 0.5:
			return mpris.StringValue(emojiMedium), nil
		case vol > 0.5:
			return mpris.StringValue(emojiHigh), nil
		}
	}
	return Value{}, &InvalidEmojiArgumentError{Value: v.String()}
}

// trunc keeps the first n characters and marks the cut with an ellipsis.
func trunc(args []Value) (Value, error) {
	v, n := args[0], args[1]
	if !isNumber(n) {
		return Value{}, &EvalError{Msg: "function trunc expects a number as its second argument"}
	}
	if v.IsZero() {
		return Value{}, nil
	}
	s := v.String()
	limit := int(toFloat(n))
	if limit < 0 {
		limit = 0
	}
	if utf8.RuneCountInString(s) <= limit {
		return mpris.StringValue(s), nil
	}
	runes := []rune(s)
	return mpris.StringValue(string(runes[:limit]) + "…"), nil
}
