package xl

import (
	"math"
	"strings"
)

// Type is the declared type of a formula parameter
type Type uint8

const (
	TypeNumber Type = iota
	TypeInteger
	TypeText
	TypeBoolean
	TypeRange
	TypeAny

	numTypes
)

var typeNames = [numTypes]string{
	TypeNumber:  "Number",
	TypeInteger: "Integer",
	TypeText:    "Text",
	TypeBoolean: "Boolean",
	TypeRange:   "Range",
	TypeAny:     "Any",
}

func (t Type) String() string {
	if t < numTypes {
		return typeNames[t]
	}
	return "Type(?)"
}

type coerceFunc func(c *Coercer, a Arg) Arg

// coercers is the dispatch table from type tag to coercion function. the
// array length ties it to the Type enum.
var coercers = [numTypes]coerceFunc{
	TypeNumber:  (*Coercer).toNumber,
	TypeInteger: (*Coercer).toInteger,
	TypeText:    (*Coercer).toText,
	TypeBoolean: (*Coercer).toBoolean,
	TypeRange:   (*Coercer).toRange,
	TypeAny:     (*Coercer).toAny,
}

// Coercer converts call-time arguments into declared parameter types using
// spreadsheet implicit conversion rules. it never panics on malformed input,
// the result is either the coerced value or an Error.
type Coercer struct {
	locale Locale
}

// NewCoercer returns a coercer reading numeric text with loc
func NewCoercer(loc Locale) *Coercer {
	return &Coercer{locale: loc}
}

// Coerce converts a to type t. errors are returned unchanged and no further
// coercion is attempted on them.
func (c *Coercer) Coerce(a Arg, t Type) Arg {
	if a == nil {
		return ValueError("argument is missing")
	}
	if e, ok := a.(Error); ok {
		return e
	}
	if t >= numTypes {
		return ValueError("unknown parameter type %d", uint8(t))
	}
	return coercers[t](c, a)
}

// CoerceElement coerces one argument of a variadic tail. ranges are kept
// as ranges unless the element type is Range itself.
func (c *Coercer) CoerceElement(a Arg, t Type) Arg {
	if r, ok := a.(*Range); ok && r != nil {
		return r
	}
	return c.Coerce(a, t)
}

// scalar unwraps a 1x1 range. larger ranges cannot stand in for a scalar.
func scalar(a Arg) (Value, bool) {
	switch v := a.(type) {
	case *Range:
		if v == nil {
			return nil, false
		}
		return v.Single()
	case Value:
		return v, true
	}
	return nil, false
}

func (c *Coercer) toRange(a Arg) Arg {
	switch v := a.(type) {
	case *Range:
		if v == nil {
			return ValueError("argument is missing")
		}
		return v
	case Value:
		return scalarRange(v)
	}
	return ValueError("cannot use %T as a range", a)
}

func (c *Coercer) toNumber(a Arg) Arg {
	v, ok := scalar(a)
	if !ok {
		return ValueError("expected a single value, got a range")
	}
	switch t := v.(type) {
	case Error:
		return t
	case Number:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return NumError("number is not finite")
		}
		return t
	case Boolean:
		if t {
			return Number(1)
		}
		return Number(0)
	case Blank:
		return Number(0)
	case Text:
		if f, ok := c.locale.ParseNumber(string(t)); ok {
			return Number(f)
		}
		return ValueError("cannot convert %q to a number", string(t))
	}
	return ValueError("cannot convert %s to a number", v.Kind())
}

// toInteger truncates toward zero, the way spreadsheet functions treat
// fractional counts and flags
func (c *Coercer) toInteger(a Arg) Arg {
	coerced := c.toNumber(a)
	n, ok := coerced.(Number)
	if !ok {
		return coerced
	}
	return Number(math.Trunc(float64(n)))
}

func (c *Coercer) toText(a Arg) Arg {
	v, ok := scalar(a)
	if !ok {
		return ValueError("expected a single value, got a range")
	}
	switch t := v.(type) {
	case Error:
		return t
	case Text:
		return t
	case Blank:
		return Text("")
	}
	return Text(v.String())
}

func (c *Coercer) toBoolean(a Arg) Arg {
	v, ok := scalar(a)
	if !ok {
		return ValueError("expected a single value, got a range")
	}
	switch t := v.(type) {
	case Error:
		return t
	case Boolean:
		return t
	case Number:
		return Boolean(t != 0)
	case Text:
		switch strings.ToUpper(strings.TrimSpace(string(t))) {
		case "TRUE":
			return Boolean(true)
		case "FALSE":
			return Boolean(false)
		}
		return ValueError("cannot convert %q to a boolean", string(t))
	}
	return ValueError("cannot convert %s to a boolean", v.Kind())
}

func (c *Coercer) toAny(a Arg) Arg {
	return a
}
