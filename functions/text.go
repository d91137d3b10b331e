package functions

import (
	"strings"
	"unicode/utf8"

	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

func registerText(b *xl.Builder) {
	text := []xl.Param{xl.Required("text", xl.TypeText)}

	b.MustRegister("CONCATENATE", []xl.Param{xl.Variadic("text", xl.TypeText).AtLeastOne()}, concatenate)
	b.MustRegister("LEN", text, func(_ *xl.Context, args xl.Args) (xl.Arg, error) {
		return xl.Number(utf8.RuneCountInString(args.Text(0))), nil
	})
	b.MustRegister("UPPER", text, func(_ *xl.Context, args xl.Args) (xl.Arg, error) {
		return xl.Text(strings.ToUpper(args.Text(0))), nil
	})
	b.MustRegister("LOWER", text, func(_ *xl.Context, args xl.Args) (xl.Arg, error) {
		return xl.Text(strings.ToLower(args.Text(0))), nil
	})
	b.MustRegister("TRIM", text, func(_ *xl.Context, args xl.Args) (xl.Arg, error) {
		return xl.Text(trimSpaces(args.Text(0))), nil
	})
}

// concatenate joins its arguments, range cells in row-major order. the first
// error met, direct or inside a range, is the result.
func concatenate(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	var result strings.Builder
	for v := range xl.Flatten(args.Rest()...) {
		switch t := v.(type) {
		case xl.Error:
			return t, nil
		case xl.Blank:
		default:
			result.WriteString(t.String())
		}
	}
	return xl.Text(result.String()), nil
}

// trimSpaces drops leading and trailing spaces and collapses runs of spaces
// between words into one. other whitespace is kept.
func trimSpaces(s string) string {
	words := strings.Split(s, " ")
	kept := words[:0]
	for _, w := range words {
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
