package functions

import (
	"math"
	"slices"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

const (
	irrDefaultGuess = 0.1
	irrMaxIter      = 20
	irrTolerance    = 1e-7

	daysPerYear = 365
)

func registerFinancial(b *xl.Builder) {
	b.MustRegister("IRR", []xl.Param{
		xl.Required("values", xl.TypeRange),
		xl.Optional("guess", xl.TypeNumber, nil),
	}, irr)
	b.MustRegister("NPV", []xl.Param{
		xl.Required("rate", xl.TypeNumber),
		xl.Variadic("value", xl.TypeAny),
	}, npv)
	b.MustRegister("PMT", []xl.Param{
		xl.Required("rate", xl.TypeNumber),
		xl.Required("nper", xl.TypeNumber),
		xl.Required("pv", xl.TypeNumber),
		xl.Optional("fv", xl.TypeNumber, xl.Number(0)),
		xl.Optional("type", xl.TypeInteger, xl.Number(0)),
	}, pmt)
	b.MustRegister("SLN", []xl.Param{
		xl.Required("cost", xl.TypeNumber),
		xl.Required("salvage", xl.TypeNumber),
		xl.Required("life", xl.TypeNumber),
	}, sln)
	b.MustRegister("VDB", []xl.Param{
		xl.Required("cost", xl.TypeNumber),
		xl.Required("salvage", xl.TypeNumber),
		xl.Required("life", xl.TypeNumber),
		xl.Required("start_period", xl.TypeNumber),
		xl.Required("end_period", xl.TypeNumber),
		xl.Optional("factor", xl.TypeNumber, xl.Number(2)),
		xl.Optional("no_switch", xl.TypeBoolean, xl.Boolean(false)),
	}, vdb)
	b.MustRegister("XNPV", []xl.Param{
		xl.Required("rate", xl.TypeNumber),
		xl.Required("values", xl.TypeRange),
		xl.Required("dates", xl.TypeRange),
	}, xnpv)
}

// irr finds the rate at which the cash flows have a net present value of
// zero. in Spreadsheet mode any guess is accepted as the starting point of
// the iteration. in HostNative mode it solves the cash-flow polynomial
// directly and a non-zero guess is refused.
func irr(ctx *xl.Context, args xl.Args) (xl.Arg, error) {
	var flows []float64
	for f := range xl.Numbers(xl.Flatten(args.Range(0))) {
		flows = append(flows, f)
	}
	if ctx.Mode == xl.HostNative && args.Supplied(1) && args.Number(1) != 0 {
		return nil, xl.Unsupported("guess value for IRR() is %v and not 0", args.Number(1))
	}
	if !hasSignChange(flows) {
		return xl.NumError("IRR needs at least one positive and one negative cash flow"), nil
	}

	if ctx.Mode == xl.HostNative {
		rate, ok := irrRoots(flows)
		if !ok {
			return xl.NumError("IRR has no real solution"), nil
		}
		return xl.Number(rate), nil
	}

	guess := irrDefaultGuess
	if args.Supplied(1) {
		guess = args.Number(1)
	}
	rate, ok := irrNewton(flows, guess)
	if !ok {
		ctx.Logger.Debug("IRR did not converge",
			zap.Float64("guess", guess),
			zap.Int("iterations", irrMaxIter))
		return xl.NumError("IRR did not converge after %d iterations", irrMaxIter), nil
	}
	return xl.Number(rate), nil
}

func hasSignChange(flows []float64) bool {
	pos, neg := false, false
	for _, f := range flows {
		pos = pos || f > 0
		neg = neg || f < 0
	}
	return pos && neg
}

// irrNewton runs Newton-Raphson on NPV(rate) = sum(v_i / (1+rate)^i)
func irrNewton(flows []float64, guess float64) (float64, bool) {
	rate := guess
	for range irrMaxIter {
		f, df := 0.0, 0.0
		for i, v := range flows {
			d := math.Pow(1+rate, float64(i))
			f += v / d
			df -= float64(i) * v / (d * (1 + rate))
		}
		if df == 0 || math.IsNaN(df) {
			return 0, false
		}
		next := rate - f/df
		if math.IsNaN(next) || math.IsInf(next, 0) || next <= -1 {
			return 0, false
		}
		if math.Abs(next-rate) < irrTolerance {
			return next, true
		}
		rate = next
	}
	return 0, false
}

// irrRoots solves sum(v_i * x^i) = 0 for x = 1/(1+rate) through the
// eigenvalues of the companion matrix, keeping positive real roots, and
// returns the rate closest to zero
func irrRoots(flows []float64) (float64, bool) {
	// zero flows at the end lower the degree, at the start they only add
	// roots at x = 0, which are not rates
	for len(flows) > 0 && flows[len(flows)-1] == 0 {
		flows = flows[:len(flows)-1]
	}
	for len(flows) > 0 && flows[0] == 0 {
		flows = flows[1:]
	}
	n := len(flows) - 1
	if n < 1 {
		return 0, false
	}

	lead := flows[n]
	companion := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		if i > 0 {
			companion.Set(i, i-1, 1)
		}
		companion.Set(i, n-1, -flows[i]/lead)
	}

	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenNone) {
		return 0, false
	}

	var rates []float64
	for _, root := range eig.Values(nil) {
		if imag(root) == 0 && real(root) > 0 {
			rates = append(rates, 1/real(root)-1)
		}
	}
	if len(rates) == 0 {
		return 0, false
	}
	return slices.MinFunc(rates, func(a, b float64) int {
		switch {
		case math.Abs(a) < math.Abs(b):
			return -1
		case math.Abs(a) > math.Abs(b):
			return 1
		}
		return 0
	}), true
}

// npv discounts the numeric cash flows at rate. Spreadsheet mode discounts
// the first value by one period, HostNative mode treats it as period zero.
func npv(ctx *xl.Context, args xl.Args) (xl.Arg, error) {
	if len(args.Rest()) == 0 {
		return xl.ValueError("value1 is required"), nil
	}
	flows, failed := cashFlows(ctx, args.Rest())
	if failed != nil {
		return failed, nil
	}

	rate := args.Number(0)
	offset := 1
	if ctx.Mode == xl.HostNative {
		offset = 0
	}
	total := 0.0
	for i, v := range flows {
		total += v / math.Pow(1+rate, float64(i+offset))
	}
	return xl.Number(total), nil
}

// cashFlows collects the NPV values in order. an error passed directly
// propagates. direct booleans and numeric text count, other direct text and
// blanks are skipped. ranges contribute their numeric cells only.
func cashFlows(ctx *xl.Context, rest []xl.Arg) ([]float64, xl.Arg) {
	if e, found := xl.ScalarError(rest); found {
		return nil, e
	}
	var flows []float64
	for _, a := range rest {
		switch t := a.(type) {
		case *xl.Range:
			for v := range xl.Numbers(xl.Flatten(t)) {
				flows = append(flows, v)
			}
		case xl.Number:
			flows = append(flows, float64(t))
		case xl.Boolean:
			if t {
				flows = append(flows, 1)
			} else {
				flows = append(flows, 0)
			}
		case xl.Text:
			if f, ok := ctx.Locale.ParseNumber(string(t)); ok {
				flows = append(flows, f)
			}
		}
	}
	return flows, nil
}

// pmt is the payment per period of a loan. type 0 pays at the end of each
// period, anything else at the beginning.
func pmt(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	rate, nper, pv, fv := args.Number(0), args.Number(1), args.Number(2), args.Number(3)
	when := 0.0
	if args.Int(4) != 0 {
		when = 1
	}

	if nper == 0 {
		return xl.NumError("nper must not be zero"), nil
	}
	if rate == 0 {
		return xl.Number(-(fv + pv) / nper), nil
	}
	growth := math.Pow(1+rate, nper)
	factor := (1 + rate*when) * (growth - 1) / rate
	if factor == 0 {
		return xl.NumError("payment is undefined for rate %v", rate), nil
	}
	return xl.Number(-(fv + pv*growth) / factor), nil
}

func sln(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	life := args.Number(2)
	if life == 0 {
		return xl.Div0Error("life must not be zero"), nil
	}
	return xl.Number(straightLine(args.Number(0), args.Number(1), life)), nil
}

func straightLine(cost, salvage, life float64) float64 {
	return (cost - salvage) / life
}

// vdb is declining-balance depreciation between two periods, switching to
// straight line once that depreciates more unless no_switch is set
func vdb(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	cost, salvage, life := args.Number(0), args.Number(1), args.Number(2)
	start, end := args.Number(3), args.Number(4)
	factor, noSwitch := args.Number(5), args.Bool(6)

	if life <= 0 {
		return xl.NumError("life must be positive"), nil
	}
	if start < 0 || end < start || end > life {
		return xl.NumError("periods must satisfy 0 <= start_period <= end_period <= life"), nil
	}
	if factor < 0 || cost < 0 || salvage < 0 {
		return xl.NumError("cost, salvage and factor must not be negative"), nil
	}

	rate := factor / life
	endLife := int(life)
	if math.Mod(life, 1) > 0 {
		endLife = int(life + 1)
	}
	periods := make([]float64, endLife)
	for i := range periods {
		periods[i] = float64(i)
	}

	accumulated := 0.0
	depreciation := 0.0
	if math.Trunc(start) != start {
		// a fractional start period books a partial first year
		depreciation = cost * rate * math.Abs(math.Trunc(start)-start)
		accumulated += depreciation
		for i := range periods {
			periods[i] += 0.5
		}
	}

	switched := false
	slnDepreciation := 0.0
	result := 0.0
	for _, year := range periods {
		switch {
		case noSwitch:
			depreciation = (cost - accumulated) * rate
			accumulated += depreciation
		case switched:
			depreciation = slnDepreciation
		default:
			depreciation = (cost - accumulated) * rate
			accumulated += depreciation
			if depreciation < straightLine(cost, salvage, life) {
				switched = true
				remainingYears := life - year - 1
				remainingCost := cost - accumulated
				slnDepreciation = straightLine(remainingCost, salvage, remainingYears)
				// the straight line still to come must never exceed the
				// current year, switch a year early when it would
				if slnDepreciation > depreciation {
					accumulated -= depreciation
					remainingYears++
					remainingCost = cost - accumulated
					slnDepreciation = straightLine(remainingCost, salvage, remainingYears)
					depreciation = slnDepreciation
					accumulated += depreciation
				}
			}
		}

		deltaStart := math.Abs(year - start)
		switch {
		case deltaStart < 1 && deltaStart != 0:
			result += depreciation * (1 - deltaStart)
		case year >= start && year < end:
			if deltaEnd := math.Abs(end - year); deltaEnd < 1 && deltaEnd != 0 {
				result += depreciation * deltaEnd
			} else {
				result += depreciation
			}
		}
	}
	return xl.Number(result), nil
}

// xnpv discounts cash flows on arbitrary dates, in days from the first date.
// unlike the aggregates it propagates error cells from both ranges.
func xnpv(_ *xl.Context, args xl.Args) (xl.Arg, error) {
	values := xl.Collect(xl.Flatten(args.Range(1)))
	dates := xl.Collect(xl.Flatten(args.Range(2)))
	if e, found := xl.RangeError(args.Range(1), args.Range(2)); found {
		return e, nil
	}
	if len(values) != len(dates) {
		return xl.NumError("`values` range must be the same length as `dates` range in XNPV, %d != %d",
			len(values), len(dates)), nil
	}

	flows := make([]float64, len(values))
	days := make([]float64, len(dates))
	for i := range values {
		v, ok := values[i].(xl.Number)
		if !ok {
			return xl.ValueError("XNPV value %d is not a number", i+1), nil
		}
		d, ok := dates[i].(xl.Number)
		if !ok {
			return xl.ValueError("XNPV date %d is not a number", i+1), nil
		}
		flows[i], days[i] = float64(v), float64(d)
	}

	rate := args.Number(0)
	total := 0.0
	for i, v := range flows {
		total += v / math.Pow(1+rate, (days[i]-days[0])/daysPerYear)
	}
	return xl.Number(total), nil
}
