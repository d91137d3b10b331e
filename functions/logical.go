package functions

import (
	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

func registerLogical(b *xl.Builder) {
	logicals := []xl.Param{xl.Variadic("logical", xl.TypeBoolean).AtLeastOne()}

	b.MustRegister("IF", []xl.Param{
		xl.Required("logical_test", xl.TypeBoolean),
		xl.Required("value_if_true", xl.TypeAny),
		xl.Optional("value_if_false", xl.TypeAny, xl.Boolean(false)),
	}, func(_ *xl.Context, args xl.Args) (xl.Arg, error) {
		if args.Bool(0) {
			return args.Arg(1), nil
		}
		return args.Arg(2), nil
	})
	b.MustRegister("AND", logicals, func(_ *xl.Context, args xl.Args) (xl.Arg, error) {
		return foldLogical(args.Rest(), true, func(acc, v bool) bool { return acc && v })
	})
	b.MustRegister("OR", logicals, func(_ *xl.Context, args xl.Args) (xl.Arg, error) {
		return foldLogical(args.Rest(), false, func(acc, v bool) bool { return acc || v })
	})
	b.MustRegister("NOT", []xl.Param{xl.Required("logical", xl.TypeBoolean)},
		func(_ *xl.Context, args xl.Args) (xl.Arg, error) {
			return xl.Boolean(!args.Bool(0)), nil
		})
}

// foldLogical combines the booleans and numbers of a variadic tail. text and
// blanks inside ranges are ignored, errors anywhere propagate, and a tail
// with no logical value at all is #VALUE!.
func foldLogical(rest []xl.Arg, initial bool, op func(acc, v bool) bool) (xl.Arg, error) {
	acc := initial
	seen := false
	for v := range xl.Flatten(rest...) {
		switch t := v.(type) {
		case xl.Error:
			return t, nil
		case xl.Boolean:
			acc = op(acc, bool(t))
			seen = true
		case xl.Number:
			acc = op(acc, t != 0)
			seen = true
		}
	}
	if !seen {
		return xl.ValueError("no logical values"), nil
	}
	return xl.Boolean(acc), nil
}
