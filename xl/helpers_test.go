package xl

import "math"

func nan() float64 {
	return math.NaN()
}

func grid(rows ...[]any) *Range {
	r, err := RangeFromRaw(rows)
	if err != nil {
		panic(err)
	}
	return r
}
