package xl

import (
	"fmt"
	"iter"
	"slices"
)

// Range is an immutable, rectangular, row-major grid of cell values. it
// never contains nested ranges.
type Range struct {
	rows  int
	cols  int
	cells []Value // row-major, index is row*cols + col
}

func (*Range) arg() {}

// NewRange builds a range from rows of values. fails with ErrShape when the
// grid is empty or rows differ in length. nil cells are stored as Blank.
func NewRange(rows [][]Value) (*Range, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: got %d rows", ErrShape, len(rows))
	}
	cols := len(rows[0])
	cells := make([]Value, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(row), cols)
		}
		for _, v := range row {
			if v == nil {
				v = Blank{}
			}
			cells = append(cells, v)
		}
	}
	return &Range{rows: len(rows), cols: cols, cells: cells}, nil
}

// MustRange is NewRange for literals known to be rectangular
func MustRange(rows [][]Value) *Range {
	r, err := NewRange(rows)
	if err != nil {
		panic(err)
	}
	return r
}

// RowRange builds a 1xN range. with no values it returns a 1x1 blank range.
func RowRange(values ...Value) *Range {
	if len(values) == 0 {
		return &Range{rows: 1, cols: 1, cells: []Value{Blank{}}}
	}
	cells := make([]Value, len(values))
	for i, v := range values {
		if v == nil {
			v = Blank{}
		}
		cells[i] = v
	}
	return &Range{rows: 1, cols: len(cells), cells: cells}
}

// scalarRange wraps a single value as a 1x1 range
func scalarRange(v Value) *Range {
	return &Range{rows: 1, cols: 1, cells: []Value{v}}
}

// Rows returns the number of rows
func (r *Range) Rows() int {
	return r.rows
}

// Cols returns the number of columns
func (r *Range) Cols() int {
	return r.cols
}

// Len returns the number of cells
func (r *Range) Len() int {
	return len(r.cells)
}

// At returns the value at a zero-based position. out of bounds access
// yields a #REF! error value instead of panicking.
func (r *Range) At(row, col int) Value {
	if row < 0 || row >= r.rows || col < 0 || col >= r.cols {
		return RefError("cell (%d, %d) is outside a %dx%d range", row, col, r.rows, r.cols)
	}
	return r.cells[row*r.cols+col]
}

// Single returns the only value of a 1x1 range
func (r *Range) Single() (Value, bool) {
	if len(r.cells) != 1 {
		return nil, false
	}
	return r.cells[0], true
}

// IterateValues returns an iterator over cell values in row-major order
func (r *Range) IterateValues() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for _, v := range r.cells {
			if !yield(v) {
				return
			}
		}
	}
}

// IterateRows returns an iterator over row index and a copy of that row's
// values
func (r *Range) IterateRows() iter.Seq2[int, []Value] {
	return func(yield func(int, []Value) bool) {
		for row := 0; row < r.rows; row++ {
			start := row * r.cols
			if !yield(row, slices.Clone(r.cells[start:start+r.cols])) {
				return
			}
		}
	}
}

func (r *Range) String() string {
	return fmt.Sprintf("Range(%dx%d)", r.rows, r.cols)
}
