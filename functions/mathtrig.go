package functions

import (
	"math"

	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

func registerMath(b *xl.Builder) {
	number := []xl.Param{xl.Required("number", xl.TypeNumber)}

	b.MustRegister("ABS", number, func(_ *xl.Context, args xl.Args) (xl.Arg, error) {
		return xl.Number(math.Abs(args.Number(0))), nil
	})
	b.MustRegister("SQRT", number, sqrt)
	b.MustRegister("ROUND", []xl.Param{
		xl.Required("number", xl.TypeNumber),
		xl.Optional("num_digits", xl.TypeInteger, xl.Number(0)),
	}, round)
	b.MustRegister("FLOOR", []xl.Param{
		xl.Required("number", xl.TypeNumber),
		xl.Optional("significance", xl.TypeNumber, xl.Number(1)),
	}, floor)
	b.MustRegister("CEILING", []xl.Param{
		xl.Required("number", xl.TypeNumber),
		xl.Optional("significance", xl.TypeNumber, xl.Number(1)),
	}, ceiling)
	b.MustRegister("POWER", []xl.Param{
		xl.Required("number", xl.TypeNumber),
		xl.Required("power", xl.TypeNumber),
	}, power)
	b.MustRegister("MOD", []xl.Param{
		xl.Required("number", xl.TypeNumber),
		xl.Required("divisor", xl.TypeNumber),
	}, mod)
	b.MustRegister("PI", nil, func(*xl.Context, xl.Args) (xl.Arg, error) {
		return xl.Number(math.Pi), nil
	})
}

func sqrt(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	n := args.Number(0)
	if n < 0 {
		return xl.NumError("SQRT requires a non-negative argument"), nil
	}
	return xl.Number(math.Sqrt(n)), nil
}

const (
	maxRoundDigits = 308
	minRoundDigits = -308
)

// round rounds half away from zero. negative digits round left of the
// decimal point. digits past what a float64 can scale leave the number as
// is, or round it to zero when negative.
func round(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	n, digits := args.Number(0), args.Number(1)
	switch {
	case digits > maxRoundDigits:
		return xl.Number(n), nil
	case digits < minRoundDigits:
		return xl.Number(0), nil
	}
	multiplier := math.Pow(10, digits)
	scaled := n * multiplier
	// past 2^52 a float64 has no fraction left to round
	if math.Abs(scaled) >= 1<<52 {
		return xl.Number(n), nil
	}
	return xl.Number(math.Round(scaled) / multiplier), nil
}

func floor(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	n, significance := args.Number(0), args.Number(1)
	if significance == 0 {
		if n == 0 {
			return xl.Number(0), nil
		}
		return xl.Div0Error("FLOOR significance is zero"), nil
	}
	if n > 0 && significance < 0 {
		return xl.NumError("FLOOR of a positive number needs a positive significance"), nil
	}
	return xl.Number(math.Floor(n/significance) * significance), nil
}

func ceiling(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	n, significance := args.Number(0), args.Number(1)
	if significance == 0 {
		return xl.Number(0), nil
	}
	if n > 0 && significance < 0 {
		return xl.NumError("CEILING of a positive number needs a positive significance"), nil
	}
	return xl.Number(math.Ceil(n/significance) * significance), nil
}

func power(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	base, exp := args.Number(0), args.Number(1)
	if base == 0 && exp < 0 {
		return xl.Div0Error("zero raised to a negative power"), nil
	}
	if base == 0 && exp == 0 {
		return xl.NumError("0^0 is undefined"), nil
	}
	return xl.Number(math.Pow(base, exp)), nil
}

// mod takes the sign of the divisor
func mod(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	n, d := args.Number(0), args.Number(1)
	if d == 0 {
		return xl.Div0Error("Division by zero"), nil
	}
	return xl.Number(n - d*math.Floor(n/d)), nil
}
