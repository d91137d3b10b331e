package xl

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant of a scalar Value is active
type Kind uint8

const (
	KindBlank   Kind = 0
	KindNumber  Kind = 1
	KindText    Kind = 2
	KindBoolean Kind = 3
	KindError   Kind = 4
)

var kindNames = map[Kind]string{
	KindBlank:   "blank",
	KindNumber:  "number",
	KindText:    "text",
	KindBoolean: "boolean",
	KindError:   "error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Arg is anything that can be handed to a formula function: either a scalar
// Value or a *Range. the set is closed, only this package implements it.
type Arg interface {
	arg()
}

// Value represents a single spreadsheet cell value. variants:
//   - Number: numeric values (integers are converted to float64)
//   - Text: text values
//   - Boolean: TRUE/FALSE
//   - Blank: empty cells
//   - Error: error values (#DIV/0!, #VALUE!, etc.)
type Value interface {
	Arg
	Kind() Kind
	String() string
}

type Number float64

type Text string

type Boolean bool

type Blank struct{}

func (Number) arg()  {}
func (Text) arg()    {}
func (Boolean) arg() {}
func (Blank) arg()   {}

func (Number) Kind() Kind  { return KindNumber }
func (Text) Kind() Kind    { return KindText }
func (Boolean) Kind() Kind { return KindBoolean }
func (Blank) Kind() Kind   { return KindBlank }

// String renders the number the way a spreadsheet's general format does,
// with at most 15 significant digits
func (n Number) String() string {
	return formatGeneral(float64(n))
}

func (t Text) String() string {
	return string(t)
}

func (b Boolean) String() string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (Blank) String() string {
	return ""
}

// formatGeneral rounds to 15 significant digits before printing so that
// 0.1+0.2 prints as 0.3
func formatGeneral(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'g', 15, 64), 64)
	abs := math.Abs(rounded)
	if abs != 0 && (abs >= 1e21 || abs < 1e-9) {
		s := strconv.FormatFloat(rounded, 'E', -1, 64)
		return strings.Replace(s, "E+0", "E+", 1)
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// IsError reports whether a is an error value
func IsError(a Arg) bool {
	_, ok := a.(Error)
	return ok
}

// AsError returns the error carried by a, if any
func AsError(a Arg) (Error, bool) {
	e, ok := a.(Error)
	return e, ok
}
