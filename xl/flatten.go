package xl

import "iter"

// Flatten linearizes scalars and ranges into one lazy sequence: arguments
// left to right, each range row-major. the sequence can be ranged over any
// number of times. it does not filter, callers pass a predicate to Filter.
func Flatten(args ...Arg) iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for _, a := range args {
			switch v := a.(type) {
			case *Range:
				if v == nil {
					continue
				}
				for cell := range v.IterateValues() {
					if !yield(cell) {
						return
					}
				}
			case Value:
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Filter keeps the values of seq for which keep returns true
func Filter(seq iter.Seq[Value], keep func(Value) bool) iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for v := range seq {
			if keep(v) && !yield(v) {
				return
			}
		}
	}
}

// Collect materializes a sequence
func Collect(seq iter.Seq[Value]) []Value {
	var out []Value
	for v := range seq {
		out = append(out, v)
	}
	return out
}

// Numbers yields the float64 of every Number in seq, skipping other kinds
func Numbers(seq iter.Seq[Value]) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for v := range seq {
			if n, ok := v.(Number); ok && !yield(float64(n)) {
				return
			}
		}
	}
}

// IsNumber keeps only numeric cells
func IsNumber(v Value) bool {
	return v.Kind() == KindNumber
}

// IsNonBlank keeps every cell that is not empty. empty text counts as empty.
func IsNonBlank(v Value) bool {
	switch t := v.(type) {
	case Blank:
		return false
	case Text:
		return t != ""
	}
	return true
}

// IsNotError drops error cells
func IsNotError(v Value) bool {
	return v.Kind() != KindError
}

// ScalarError returns the first error passed directly as an argument. error
// cells inside ranges are not considered.
func ScalarError(args []Arg) (Error, bool) {
	for _, a := range args {
		if e, ok := a.(Error); ok {
			return e, true
		}
	}
	return Error{}, false
}

// RangeError returns the first error cell found while flattening args,
// including errors passed directly
func RangeError(args ...Arg) (Error, bool) {
	for v := range Flatten(args...) {
		if e, ok := v.(Error); ok {
			return e, true
		}
	}
	return Error{}, false
}
