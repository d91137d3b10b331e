package functions

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

var defaultRegistry = sync.OnceValue(func() *xl.Registry {
	return NewRegistry()
})

// formulaCase is a fluent helper: build a registry, invoke one function,
// then assert on the result
type formulaCase struct {
	t        *testing.T
	name     string
	registry *xl.Registry
	result   xl.Arg
	err      error
	called   bool
}

func newFormulaCase(t *testing.T, name string, opts ...xl.Option) *formulaCase {
	t.Helper()
	registry := defaultRegistry()
	if len(opts) > 0 {
		registry = NewRegistry(opts...)
	}
	return &formulaCase{t: t, name: name, registry: registry}
}

func (fc *formulaCase) Call(function string, args ...any) *formulaCase {
	fc.result, fc.err = fc.registry.Invoke(function, args...)
	fc.called = true
	return fc
}

func (fc *formulaCase) ready() bool {
	fc.t.Helper()
	if !fc.called {
		fc.t.Errorf("%s: assertion before Call", fc.name)
		return false
	}
	if fc.err != nil {
		fc.t.Errorf("%s: unexpected contract violation: %v", fc.name, fc.err)
		return false
	}
	return true
}

// AssertEq compares the result. numbers are compared with the 1e-10
// tolerance, plain Go values are mapped onto their spreadsheet variants.
func (fc *formulaCase) AssertEq(expected any) *formulaCase {
	fc.t.Helper()
	if !fc.ready() {
		return fc
	}
	switch exp := expected.(type) {
	case float64:
		return fc.AssertNear(exp, 1e-10)
	case int:
		return fc.AssertNear(float64(exp), 1e-10)
	case string:
		assert.Equal(fc.t, xl.Text(exp), fc.result, fc.name)
	case bool:
		assert.Equal(fc.t, xl.Boolean(exp), fc.result, fc.name)
	case xl.ErrorCode:
		return fc.AssertErr(exp)
	default:
		assert.Equal(fc.t, expected, fc.result, fc.name)
	}
	return fc
}

func (fc *formulaCase) AssertNear(expected, delta float64) *formulaCase {
	fc.t.Helper()
	if !fc.ready() {
		return fc
	}
	n, ok := fc.result.(xl.Number)
	if !ok {
		fc.t.Errorf("%s: result = %v (%T), want number %v", fc.name, fc.result, fc.result, expected)
		return fc
	}
	assert.InDelta(fc.t, expected, float64(n), delta, fc.name)
	return fc
}

func (fc *formulaCase) AssertErr(code xl.ErrorCode) *formulaCase {
	fc.t.Helper()
	if !fc.ready() {
		return fc
	}
	e, ok := fc.result.(xl.Error)
	if !ok {
		fc.t.Errorf("%s: result = %v, want error %v", fc.name, fc.result, code)
		return fc
	}
	if e.Code != code {
		fc.t.Errorf("%s: got error %v (%s), want %v", fc.name, e.Code, e.Message, code)
	}
	return fc
}

func (fc *formulaCase) AssertErrMessage(code xl.ErrorCode, contains string) *formulaCase {
	fc.t.Helper()
	fc.AssertErr(code)
	if e, ok := fc.result.(xl.Error); ok {
		assert.Contains(fc.t, e.Message, contains, fc.name)
	}
	return fc
}

func (fc *formulaCase) AssertFn(fn func(result xl.Arg, t *testing.T)) *formulaCase {
	fc.t.Helper()
	if !fc.ready() {
		return fc
	}
	fn(fc.result, fc.t)
	return fc
}

// ExpectAppError checks the call was aborted with an application error
func (fc *formulaCase) ExpectAppError(code xl.AppErrorCode) *formulaCase {
	fc.t.Helper()
	if fc.err == nil {
		fc.t.Errorf("%s: expected error with code %v, got result %v", fc.name, code, fc.result)
		return fc
	}
	var appErr *xl.AppError
	if !errors.As(fc.err, &appErr) {
		fc.t.Errorf("%s: got error %v, want AppError with code %v", fc.name, fc.err, code)
		return fc
	}
	if appErr.Code != code {
		fc.t.Errorf("%s: got error code %v, want %v", fc.name, appErr.Code, code)
	}
	assert.Nil(fc.t, fc.result, fc.name)
	return fc
}

func (fc *formulaCase) End() {}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

type fixedRandom struct {
	value float64
}

func (r *fixedRandom) Float64() float64 {
	return r.value
}

func rows(r ...[]any) [][]any {
	return r
}
