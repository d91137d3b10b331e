package functions

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

func registerStatistical(b *xl.Builder) {
	values := []xl.Param{xl.Variadic("number", xl.TypeNumber).AtLeastOne()}
	anyValues := []xl.Param{xl.Variadic("value", xl.TypeAny).AtLeastOne()}

	b.MustRegister("SUM", values, sum)
	b.MustRegister("AVERAGE", values, average)
	b.MustRegister("AVERAGEA", anyValues, averageA)
	b.MustRegister("COUNT", anyValues, count)
	b.MustRegister("COUNTA", anyValues, countA)
	b.MustRegister("COUNTBLANK", []xl.Param{xl.Required("range", xl.TypeRange)}, countBlank)
	b.MustRegister("MAX", values, maxOf)
	b.MustRegister("MIN", values, minOf)
	b.MustRegister("MEDIAN", values, median)
	b.MustRegister("MODE", values, mode)
	b.MustRegister("STDEV", values, sampleStat(stats.StandardDeviationSample))
	b.MustRegister("STDEVP", values, populationStat(stats.StandardDeviationPopulation))
	b.MustRegister("VAR", values, sampleStat(stats.SampleVariance))
	b.MustRegister("VARP", values, populationStat(stats.PopulationVariance))
	b.MustRegister("GEOMEAN", values, positiveMean(stats.GeometricMean))
	b.MustRegister("HARMEAN", values, positiveMean(stats.HarmonicMean))

	b.MustRegister("NORM.S.DIST", []xl.Param{
		xl.Required("z", xl.TypeNumber),
		xl.Required("cumulative", xl.TypeBoolean),
	}, normSDist)
	b.MustRegister("NORM.DIST", []xl.Param{
		xl.Required("x", xl.TypeNumber),
		xl.Required("mean", xl.TypeNumber),
		xl.Required("standard_dev", xl.TypeNumber),
		xl.Required("cumulative", xl.TypeBoolean),
	}, normDist)
	b.MustRegister("NORM.INV", []xl.Param{
		xl.Required("probability", xl.TypeNumber),
		xl.Required("mean", xl.TypeNumber),
		xl.Required("standard_dev", xl.TypeNumber),
	}, normInv)
}

func sum(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	values, failed := collectNumbers(args.Rest())
	if failed != nil {
		return failed, nil
	}
	return xl.Number(floats.Sum(values)), nil
}

func average(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	values, failed := collectNumbers(args.Rest())
	if failed != nil {
		return failed, nil
	}
	if len(values) == 0 {
		return xl.Div0Error("AVERAGE has no numeric values"), nil
	}
	return xl.Number(floats.Sum(values) / float64(len(values))), nil
}

// averageA includes every non-empty value in the count, but only numbers and
// booleans contribute to the sum. errors propagate from ranges too.
func averageA(ctx *xl.Context, args xl.Args) (xl.Arg, error) {
	total := 0.0
	n := 0
	for _, a := range args.Rest() {
		if r, ok := a.(*xl.Range); ok {
			for v := range r.IterateValues() {
				switch t := v.(type) {
				case xl.Error:
					return t, nil
				case xl.Number:
					total += float64(t)
					n++
				case xl.Boolean:
					if t {
						total++
					}
					n++
				case xl.Text:
					n++
				}
			}
			continue
		}

		switch t := a.(type) {
		case xl.Error:
			return t, nil
		case xl.Number:
			total += float64(t)
		case xl.Boolean:
			if t {
				total++
			}
		case xl.Text:
			f, ok := ctx.Locale.ParseNumber(string(t))
			if !ok {
				return xl.ValueError("cannot convert %q to a number", string(t)), nil
			}
			total += f
		}
		n++
	}
	if n == 0 {
		return xl.Div0Error("AVERAGEA has no values"), nil
	}
	return xl.Number(total / float64(n)), nil
}

// count counts numbers only. text, booleans, blanks and error cells inside
// ranges are ignored; an error passed directly propagates.
func count(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	if e, found := xl.ScalarError(args.Rest()); found {
		return e, nil
	}
	n := 0
	for range xl.Filter(xl.Flatten(args.Rest()...), xl.IsNumber) {
		n++
	}
	return xl.Number(n), nil
}

// countA counts every non-blank value, error cells included. empty text does
// not count.
func countA(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	if e, found := xl.ScalarError(args.Rest()); found {
		return e, nil
	}
	n := 0
	for range xl.Filter(xl.Flatten(args.Rest()...), xl.IsNonBlank) {
		n++
	}
	return xl.Number(n), nil
}

func countBlank(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	n := 0
	for v := range args.Range(0).IterateValues() {
		if !xl.IsNonBlank(v) {
			n++
		}
	}
	return xl.Number(n), nil
}

func maxOf(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	values, failed := collectNumbers(args.Rest())
	if failed != nil {
		return failed, nil
	}
	if len(values) == 0 {
		return xl.Number(0), nil
	}
	return xl.Number(floats.Max(values)), nil
}

func minOf(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	values, failed := collectNumbers(args.Rest())
	if failed != nil {
		return failed, nil
	}
	if len(values) == 0 {
		return xl.Number(0), nil
	}
	return xl.Number(floats.Min(values)), nil
}

func median(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	values, failed := collectNumbers(args.Rest())
	if failed != nil {
		return failed, nil
	}
	if len(values) == 0 {
		return xl.NumError("MEDIAN has no numeric values"), nil
	}
	m, err := stats.Median(values)
	if err != nil {
		return xl.NumError("%s", err.Error()), nil
	}
	return xl.Number(m), nil
}

// mode returns the most frequent number. ties go to the value seen first.
func mode(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	values, failed := collectNumbers(args.Rest())
	if failed != nil {
		return failed, nil
	}
	if len(values) == 0 {
		return xl.NAError("MODE has no numeric values"), nil
	}

	frequency := make(map[float64]int, len(values))
	for _, v := range values {
		frequency[v]++
	}
	best, bestFreq := 0.0, 1
	for _, v := range values {
		if f := frequency[v]; f > bestFreq {
			best, bestFreq = v, f
		}
	}
	if bestFreq == 1 {
		return xl.NAError("MODE: no value appears more than once"), nil
	}
	return xl.Number(best), nil
}

// sampleStat wraps a sample statistic, which needs at least two numbers
func sampleStat(fn func(stats.Float64Data) (float64, error)) xl.Impl {
	return func(ctx *xl.Context, args xl.Args) (xl.Arg, error) {
		values, failed := collectNumbers(args.Rest())
		if failed != nil {
			return failed, nil
		}
		if len(values) < 2 {
			return xl.Div0Error("%s needs at least two numeric values", ctx.Name), nil
		}
		return statResult(fn(values))
	}
}

// populationStat wraps a population statistic, which needs one number
func populationStat(fn func(stats.Float64Data) (float64, error)) xl.Impl {
	return func(ctx *xl.Context, args xl.Args) (xl.Arg, error) {
		values, failed := collectNumbers(args.Rest())
		if failed != nil {
			return failed, nil
		}
		if len(values) == 0 {
			return xl.Div0Error("%s has no numeric values", ctx.Name), nil
		}
		return statResult(fn(values))
	}
}

// positiveMean wraps GEOMEAN and HARMEAN, defined for positive numbers only
func positiveMean(fn func(stats.Float64Data) (float64, error)) xl.Impl {
	return func(ctx *xl.Context, args xl.Args) (xl.Arg, error) {
		values, failed := collectNumbers(args.Rest())
		if failed != nil {
			return failed, nil
		}
		if len(values) == 0 {
			return xl.NumError("%s has no numeric values", ctx.Name), nil
		}
		for _, v := range values {
			if v <= 0 {
				return xl.NumError("%s requires positive values, got %v", ctx.Name, v), nil
			}
		}
		return statResult(fn(values))
	}
}

func statResult(v float64, err error) (xl.Arg, error) {
	if err != nil {
		return xl.NumError("%s", err.Error()), nil
	}
	return xl.Number(v), nil
}

func normSDist(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	z := args.Number(0)
	if args.Bool(1) {
		return xl.Number(distuv.UnitNormal.CDF(z)), nil
	}
	return xl.Number(distuv.UnitNormal.Prob(z)), nil
}

func normDist(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	sd := args.Number(2)
	if sd <= 0 {
		return xl.NumError("standard_dev must be positive"), nil
	}
	dist := distuv.Normal{Mu: args.Number(1), Sigma: sd}
	if args.Bool(3) {
		return xl.Number(dist.CDF(args.Number(0))), nil
	}
	return xl.Number(dist.Prob(args.Number(0))), nil
}

func normInv(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	p, sd := args.Number(0), args.Number(2)
	if p <= 0 || p >= 1 || math.IsNaN(p) {
		return xl.NumError("probability must be between 0 and 1"), nil
	}
	if sd <= 0 {
		return xl.NumError("standard_dev must be positive"), nil
	}
	dist := distuv.Normal{Mu: args.Number(1), Sigma: sd}
	return xl.Number(dist.Quantile(p)), nil
}
