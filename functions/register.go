// Package functions holds the formula bodies: statistical, financial, math,
// text, logical and date functions, declared with typed parameters and
// registered into an xl.Builder.
package functions

import (
	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

// Register adds every formula in this package to b. it panics on a bad
// declaration, which can only be a programming error.
func Register(b *xl.Builder) {
	registerStatistical(b)
	registerFinancial(b)
	registerMath(b)
	registerText(b)
	registerLogical(b)
	registerDateTime(b)
}

// NewRegistry builds a registry holding every formula in this package
func NewRegistry(opts ...xl.Option) *xl.Registry {
	b := xl.NewBuilder(opts...)
	Register(b)
	return b.Build()
}

// collectNumbers gathers the numbers of a variadic tail. scalars were already
// coerced to Number, so a non-numeric scalar shows up as an error and is
// returned; inside ranges only numeric cells count and error cells are
// skipped.
func collectNumbers(rest []xl.Arg) ([]float64, xl.Arg) {
	if e, found := xl.ScalarError(rest); found {
		return nil, e
	}
	var values []float64
	for f := range xl.Numbers(xl.Flatten(rest...)) {
		values = append(values, f)
	}
	return values, nil
}
