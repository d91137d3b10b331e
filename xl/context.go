package xl

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Clock interface provides time functionality for testing
type Clock interface {
	Now() time.Time
}

// WallClock is the default implementation using system time
type WallClock struct{}

func (w *WallClock) Now() time.Time {
	return time.Now()
}

// RandomGenerator interface provides random number generation for testing
type RandomGenerator interface {
	Float64() float64
}

// DefaultRandomGenerator uses the standard library's rand package
type DefaultRandomGenerator struct{}

func (d *DefaultRandomGenerator) Float64() float64 {
	return rand.Float64()
}

// Context is handed to every formula implementation. it carries the
// configuration a leaf may depend on, so no leaf reads global state.
type Context struct {
	Mode   Compatibility
	Locale Locale
	Clock  Clock
	Rand   RandomGenerator
	Logger *zap.Logger
	// Name is the canonical name of the function being invoked
	Name string
}

// Args are the coerced arguments of one invocation. fixed parameters are
// addressed by position, the variadic tail through Rest.
type Args struct {
	fixed    []Arg
	supplied []bool
	rest     []Arg
}

// NewArgs builds Args directly, for calling an implementation without a
// registry
func NewArgs(fixed []Arg, rest []Arg) Args {
	supplied := make([]bool, len(fixed))
	for i := range supplied {
		supplied[i] = true
	}
	return Args{fixed: fixed, supplied: supplied, rest: rest}
}

// Len returns the number of fixed parameters
func (a Args) Len() int {
	return len(a.fixed)
}

// Arg returns the coerced fixed argument i
func (a Args) Arg(i int) Arg {
	if i < 0 || i >= len(a.fixed) {
		return Blank{}
	}
	return a.fixed[i]
}

// Supplied reports whether the caller passed argument i, as opposed to it
// being filled from the parameter default
func (a Args) Supplied(i int) bool {
	return i >= 0 && i < len(a.supplied) && a.supplied[i]
}

// Number returns argument i declared as Number or Integer
func (a Args) Number(i int) float64 {
	if n, ok := a.Arg(i).(Number); ok {
		return float64(n)
	}
	return 0
}

// Int returns argument i declared as Integer
func (a Args) Int(i int) int {
	return int(a.Number(i))
}

// Text returns argument i declared as Text
func (a Args) Text(i int) string {
	if t, ok := a.Arg(i).(Text); ok {
		return string(t)
	}
	return ""
}

// Bool returns argument i declared as Boolean
func (a Args) Bool(i int) bool {
	if b, ok := a.Arg(i).(Boolean); ok {
		return bool(b)
	}
	return false
}

// Range returns argument i declared as Range
func (a Args) Range(i int) *Range {
	if r, ok := a.Arg(i).(*Range); ok {
		return r
	}
	return nil
}

// Value returns argument i as a scalar, unwrapping 1x1 ranges
func (a Args) Value(i int) Value {
	if v, ok := scalar(a.Arg(i)); ok {
		return v
	}
	return ValueError("expected a single value, got a range")
}

// Rest returns the variadic tail in call order, not flattened
func (a Args) Rest() []Arg {
	return a.rest
}
