package functions

import (
	"math"

	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

// volatile functions read the clock or the random generator from the context
func registerDateTime(b *xl.Builder) {
	b.MustRegister("NOW", nil, func(ctx *xl.Context, _ xl.Args) (xl.Arg, error) {
		return xl.Number(xl.TimeToSerial(ctx.Clock.Now())), nil
	})
	b.MustRegister("TODAY", nil, func(ctx *xl.Context, _ xl.Args) (xl.Arg, error) {
		return xl.Number(math.Floor(xl.TimeToSerial(ctx.Clock.Now()))), nil
	})
	b.MustRegister("RAND", nil, func(ctx *xl.Context, _ xl.Args) (xl.Arg, error) {
		return xl.Number(ctx.Rand.Float64()), nil
	})
}
