package xl

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Excel date/time constants
const (
	// ExcelEpochMs is December 30, 1899 00:00:00 UTC in Unix milliseconds,
	// serial day 0 in the 1900 date system
	ExcelEpochMs = -2209161600000
	MsPerDay     = 86400000
)

// TimeToSerial converts a time to a spreadsheet date serial number, the
// fractional part carrying the time of day
func TimeToSerial(t time.Time) float64 {
	local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return float64(local.UnixMilli()-ExcelEpochMs) / MsPerDay
}

// FromRaw converts a host-supplied value into an Arg. it never fails:
// malformed input is returned as an error value.
//   - nil at the top level is a missing argument (#VALUE!)
//   - Go numbers, strings, bools and time.Time map to the scalar variants
//   - nested slices become ranges, a flat slice becomes a 1xN range
//   - Value and *Range pass through unchanged
func FromRaw(raw any) Arg {
	if raw == nil {
		return ValueError("argument is missing")
	}
	if a, ok := raw.(Arg); ok {
		if r, isRange := a.(*Range); isRange && r == nil {
			return ValueError("argument is missing")
		}
		return a
	}
	if v, ok := scalarFromRaw(raw); ok {
		return v
	}

	var (
		r   *Range
		err error
	)
	switch v := raw.(type) {
	case [][]any:
		r, err = RangeFromRaw(v)
	case []any:
		r, err = RangeFromRaw([][]any{v})
	case [][]float64:
		rows := make([][]any, len(v))
		for i, row := range v {
			rows[i] = make([]any, len(row))
			for j, f := range row {
				rows[i][j] = f
			}
		}
		r, err = RangeFromRaw(rows)
	case []float64:
		row := make([]any, len(v))
		for i, f := range v {
			row[i] = f
		}
		r, err = RangeFromRaw([][]any{row})
	case [][]Value:
		r, err = NewRange(v)
	case []Value:
		r, err = NewRange([][]Value{v})
	default:
		return ValueError("unsupported argument type %T", raw)
	}
	if err != nil {
		return ValueError("%s", err.Error())
	}
	return r
}

// RangeFromRaw builds a range from nested host input. nil cells are blank;
// a nested slice or range inside a cell is rejected.
func RangeFromRaw(rows [][]any) (*Range, error) {
	values := make([][]Value, len(rows))
	for i, row := range rows {
		values[i] = make([]Value, len(row))
		for j, cell := range row {
			v, err := cellFromRaw(cell)
			if err != nil {
				return nil, fmt.Errorf("cell (%d, %d): %w", i, j, err)
			}
			values[i][j] = v
		}
	}
	return NewRange(values)
}

var errNestedRange = errors.New("ranges cannot contain nested ranges")

func cellFromRaw(raw any) (Value, error) {
	if raw == nil {
		return Blank{}, nil
	}
	if v, ok := raw.(Value); ok {
		return v, nil
	}
	if v, ok := scalarFromRaw(raw); ok {
		return v, nil
	}
	switch raw.(type) {
	case *Range, []any, [][]any, []float64, [][]float64, []Value, [][]Value:
		return nil, errNestedRange
	}
	return nil, fmt.Errorf("unsupported cell type %T", raw)
}

// scalarFromRaw maps Go scalar kinds onto Values
func scalarFromRaw(raw any) (Value, bool) {
	switch v := raw.(type) {
	case float64:
		return numberOrError(v), true
	case float32:
		return numberOrError(float64(v)), true
	case int:
		return Number(v), true
	case int8:
		return Number(v), true
	case int16:
		return Number(v), true
	case int32:
		return Number(v), true
	case int64:
		return Number(v), true
	case uint:
		return Number(v), true
	case uint8:
		return Number(v), true
	case uint16:
		return Number(v), true
	case uint32:
		return Number(v), true
	case uint64:
		return Number(v), true
	case string:
		return Text(v), true
	case bool:
		return Boolean(v), true
	case time.Time:
		return Number(TimeToSerial(v)), true
	}
	return nil, false
}

// numberOrError turns NaN and infinities into #NUM!, which is how a
// spreadsheet displays them
func numberOrError(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NumError("number is not finite")
	}
	return Number(f)
}
