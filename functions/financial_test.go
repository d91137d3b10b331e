package functions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

func TestFinancialFunctions(t *testing.T) {
	hostNative := xl.WithCompatibility(xl.HostNative)
	flows := rows([]any{-100, 39, 59, 55, 20})

	t.Run("NPV", func(t *testing.T) {
		newFormulaCase(t, "NPV").Call("NPV", 0.1, -10000, 3000, 4200, 6800).AssertEq(1188.4434123352216).End()
		newFormulaCase(t, "NPV over a range").
			Call("NPV", 0.1, rows([]any{-10000, 3000}, []any{4200, 6800})).
			AssertEq(1188.4434123352216).
			End()
		newFormulaCase(t, "NPV skips text cells").
			Call("NPV", 0.1, rows([]any{-10000, "note", 3000, 4200, 6800})).
			AssertEq(1188.4434123352216).
			End()
		newFormulaCase(t, "NPV from period zero", hostNative).
			Call("NPV", 0.1, -10000, 3000, 4200, 6800).
			AssertEq(1307.287753568743).
			End()
		newFormulaCase(t, "NPV without values").
			Call("NPV", 0.1).
			AssertErrMessage(xl.ErrorCodeValue, "value1 is required").
			End()
		newFormulaCase(t, "NPV bad rate").Call("NPV", "SPAM", 1).AssertErr(xl.ErrorCodeValue).End()
		newFormulaCase(t, "NPV skips direct text").Call("NPV", 0.1, "SPAM", 100).AssertEq(100 / 1.1).End()
		newFormulaCase(t, "NPV skips direct blank").Call("NPV", 0.1, xl.Blank{}, 100).AssertEq(100 / 1.1).End()
		newFormulaCase(t, "NPV reads numeric text and booleans").
			Call("NPV", 0.1, "100", true).
			AssertNear(100/1.1+1/(1.1*1.1), 1e-12).
			End()
		newFormulaCase(t, "NPV direct error").
			Call("NPV", 0.1, 100, xl.NAError("")).
			AssertErr(xl.ErrorCodeNA).
			End()
		newFormulaCase(t, "NPV skips error cells in ranges").
			Call("NPV", 0.1, rows([]any{xl.Div0Error(""), 100})).
			AssertEq(100 / 1.1).
			End()
	})

	t.Run("IRR", func(t *testing.T) {
		newFormulaCase(t, "IRR").Call("IRR", flows).AssertNear(0.2809484211599611, 1e-9).End()
		newFormulaCase(t, "IRR with guess").Call("IRR", flows, 0.3).AssertNear(0.2809484211599611, 1e-9).End()
		newFormulaCase(t, "IRR negative rate").
			Call("IRR", rows([]any{-70000, 12000, 15000, 18000, 21000})).
			AssertNear(-0.02124484827341096, 1e-9).
			End()
		newFormulaCase(t, "IRR without sign change").Call("IRR", rows([]any{1, 2, 3})).AssertErr(xl.ErrorCodeNum).End()
		newFormulaCase(t, "IRR polynomial roots", hostNative).
			Call("IRR", flows).
			AssertNear(0.28094842116, 1e-9).
			End()
		newFormulaCase(t, "IRR polynomial roots with zero guess", hostNative).
			Call("IRR", rows([]any{-70000, 12000, 15000, 18000, 21000, 26000}), 0).
			AssertNear(0.08663094803653162, 1e-9).
			End()
		newFormulaCase(t, "IRR guess is not supported", hostNative).
			Call("IRR", flows, 0.1).
			ExpectAppError(xl.Unimplemented).
			End()
	})

	t.Run("IRRUnsupportedIsSentinel", func(t *testing.T) {
		r := NewRegistry(hostNative)
		_, err := r.Invoke("IRR", flows, 0.5)
		assert.ErrorIs(t, err, xl.ErrUnsupported)
		assert.Contains(t, err.Error(), "0.5")
	})

	t.Run("PMT", func(t *testing.T) {
		newFormulaCase(t, "PMT").Call("PMT", 0.08/12, 10, 10000).AssertNear(-1037.0320893591636, 1e-8).End()
		newFormulaCase(t, "PMT at period start").Call("PMT", 0.08/12, 10, 10000, 0, 1).AssertNear(-1030.1643271779772, 1e-8).End()
		newFormulaCase(t, "PMT future value").Call("PMT", 0.06/12, 18*12, 0, 50000).AssertNear(-129.0811608679954, 1e-8).End()
		newFormulaCase(t, "PMT zero rate").Call("PMT", 0, 10, 1000).AssertEq(-100).End()
		newFormulaCase(t, "PMT zero periods").Call("PMT", 0.1, 0, 1000).AssertErr(xl.ErrorCodeNum).End()
	})

	t.Run("SLN", func(t *testing.T) {
		newFormulaCase(t, "SLN").Call("SLN", 30000, 7500, 10).AssertEq(2250).End()
		newFormulaCase(t, "SLN zero life").Call("SLN", 1, 1, 0).AssertErr(xl.ErrorCodeDiv0).End()
	})

	t.Run("VDB", func(t *testing.T) {
		newFormulaCase(t, "VDB first year").Call("VDB", 2400, 300, 10, 0, 1).AssertEq(480).End()
		newFormulaCase(t, "VDB partial year").Call("VDB", 2400, 300, 10, 0, 0.875, 1.5).AssertEq(315).End()
		newFormulaCase(t, "VDB first day").Call("VDB", 2400, 300, 3650, 0, 1).AssertEq(1.3150684931506849).End()
		newFormulaCase(t, "VDB months").Call("VDB", 2400, 300, 120, 6, 18).AssertNear(396.30605326475086, 1e-8).End()
		newFormulaCase(t, "VDB switches to straight line").Call("VDB", 2400, 300, 10, 6, 10).AssertNear(389.1456, 1e-8).End()
		newFormulaCase(t, "VDB no switch").Call("VDB", 2400, 300, 10, 6, 10, 2, true).AssertNear(371.44756224, 1e-8).End()
		newFormulaCase(t, "VDB whole life").Call("VDB", 2400, 300, 10, 0, 10).AssertNear(2100, 1e-8).End()
		newFormulaCase(t, "VDB end before start").Call("VDB", 2400, 300, 10, 5, 4).AssertErr(xl.ErrorCodeNum).End()
	})

	t.Run("XNPV", func(t *testing.T) {
		values := rows([]any{-10000, 2750, 4250, 3250, 2750})
		dates := rows([]any{39448, 39508, 39751, 39859, 39904})

		newFormulaCase(t, "XNPV").Call("XNPV", 0.09, values, dates).AssertNear(2086.647602031535, 1e-6).End()
		newFormulaCase(t, "XNPV length mismatch").
			Call("XNPV", 0.09, values, rows([]any{39448, 39508, 39751, 39859})).
			AssertErrMessage(xl.ErrorCodeNum, "5 != 4").
			End()
		newFormulaCase(t, "XNPV propagates error cells").
			Call("XNPV", 0.09, rows([]any{-10000, xl.Div0Error("")}), rows([]any{39448, 39508})).
			AssertErr(xl.ErrorCodeDiv0).
			End()
		newFormulaCase(t, "XNPV text value").
			Call("XNPV", 0.09, rows([]any{-10000, "x"}), rows([]any{39448, 39508})).
			AssertErr(xl.ErrorCodeValue).
			End()
	})
}
