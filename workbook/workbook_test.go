package workbook

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetCellValue("Sheet1", "A1", 1.5))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", 2))
	require.NoError(t, f.SetCellValue("Sheet1", "C1", "label"))
	require.NoError(t, f.SetCellBool("Sheet1", "A2", true))
	require.NoError(t, f.SetCellValue("Sheet1", "C2", "42"))

	_, err := f.NewSheet("Cash Flows")
	require.NoError(t, err)
	for i, v := range []int{-100, 39, 59, 55, 20} {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Cash Flows", cell, v))
	}

	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func openFixture(t *testing.T) *Workbook {
	t.Helper()
	wb, err := Open(writeFixture(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func TestOpen(t *testing.T) {
	wb := openFixture(t)
	assert.Equal(t, []string{"Sheet1", "Cash Flows"}, wb.Sheets())

	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestCell(t *testing.T) {
	wb := openFixture(t)

	tests := []struct {
		cell     string
		expected xl.Value
	}{
		{"A1", xl.Number(1.5)},
		{"B1", xl.Number(2)},
		{"C1", xl.Text("label")},
		{"A2", xl.Boolean(true)},
		{"B2", xl.Blank{}},
		// stored as a string, so it stays text
		{"C2", xl.Text("42")},
		{"Z99", xl.Blank{}},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			v, err := wb.Cell("Sheet1", tt.cell)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}

	_, err := wb.Cell("Sheet1", "not-a-cell")
	assert.ErrorIs(t, err, ErrBadReference)
}

func TestRange(t *testing.T) {
	wb := openFixture(t)

	r, err := wb.Range("Sheet1", "A1:C2")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Rows())
	assert.Equal(t, 3, r.Cols())
	assert.Equal(t, xl.Text("label"), r.At(0, 2))
	assert.Equal(t, xl.Blank{}, r.At(1, 1))

	reversed, err := wb.Range("Sheet1", "$C$2:$A$1")
	require.NoError(t, err)
	assert.Equal(t, xl.Collect(r.IterateValues()), xl.Collect(reversed.IterateValues()))

	single, err := wb.Range("Sheet1", "B1")
	require.NoError(t, err)
	v, ok := single.Single()
	require.True(t, ok)
	assert.Equal(t, xl.Number(2), v)

	_, err = wb.Range("Sheet1", "A1:")
	assert.ErrorIs(t, err, ErrBadReference)
}

func TestRangeTooLarge(t *testing.T) {
	wb := openFixture(t)

	for _, area := range []string{"A1:XFD1048576", "$A$1:$B$524289", "XFD1:A1048576"} {
		_, err := wb.Range("Sheet1", area)
		assert.ErrorIs(t, err, ErrRangeTooLarge, area)
		var appErr *xl.AppError
		require.True(t, errors.As(err, &appErr), "got %v", err)
		assert.Equal(t, xl.ResourceExhausted, appErr.Code)
	}

	_, err := wb.Resolve("'Sheet1'!A:XFD")
	assert.ErrorIs(t, err, ErrBadReference)
	_, err = wb.Resolve("Sheet1!A1:XFD1048576")
	assert.ErrorIs(t, err, ErrRangeTooLarge)
}

func TestMissingSheet(t *testing.T) {
	wb := openFixture(t)

	_, err := wb.Range("Nope", "A1")
	var appErr *xl.AppError
	require.True(t, errors.As(err, &appErr), "got %v", err)
	assert.Equal(t, xl.NotFound, appErr.Code)

	_, err = wb.Cell("Nope", "A1")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	wb := openFixture(t)

	r, err := wb.Resolve("'Cash Flows'!A1:A5")
	require.NoError(t, err)
	assert.Equal(t, 5, r.Rows())

	values := xl.Collect(r.IterateValues())
	assert.Equal(t, []xl.Value{xl.Number(-100), xl.Number(39), xl.Number(59), xl.Number(55), xl.Number(20)}, values)
}

func TestSplitReference(t *testing.T) {
	tests := []struct {
		name  string
		ref   string
		sheet string
		area  string
		err   bool
	}{
		{"Plain", "Sheet1!A1:B2", "Sheet1", "A1:B2", false},
		{"Absolute", "Sheet1!$A$1", "Sheet1", "A1", false},
		{"Quoted", "'My Sheet'!C3", "My Sheet", "C3", false},
		{"EscapedQuote", "'Bob''s'!A1", "Bob's", "A1", false},
		{"NoSheet", "A1:B2", "", "", true},
		{"NoArea", "Sheet1!", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, area, err := SplitReference(tt.ref)
			if tt.err {
				assert.ErrorIs(t, err, ErrBadReference)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.sheet, sheet)
			assert.Equal(t, tt.area, area)
		})
	}
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		name     string
		typ      excelize.CellType
		raw      string
		expected xl.Value
	}{
		{"Empty", excelize.CellTypeUnset, "", xl.Blank{}},
		{"Untyped number", excelize.CellTypeUnset, "3.25", xl.Number(3.25)},
		{"Number", excelize.CellTypeNumber, "1e3", xl.Number(1000)},
		{"Untyped text", excelize.CellTypeUnset, "abc", xl.Text("abc")},
		{"True", excelize.CellTypeBool, "1", xl.Boolean(true)},
		{"False", excelize.CellTypeBool, "0", xl.Boolean(false)},
		{"Formatted true", excelize.CellTypeBool, "TRUE", xl.Boolean(true)},
		{"Shared string", excelize.CellTypeSharedString, "12", xl.Text("12")},
		{"Inline string", excelize.CellTypeInlineString, "x", xl.Text("x")},
		{"Error", excelize.CellTypeError, "#N/A", xl.NewError(xl.ErrorCodeNA, "")},
		{"Div0", excelize.CellTypeError, "#DIV/0!", xl.NewError(xl.ErrorCodeDiv0, "")},
		{"Date", excelize.CellTypeDate, "2008-01-01T12:00:00Z", xl.Number(39448.5)},
		{"Bad date", excelize.CellTypeDate, "soon", xl.Text("soon")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cellValue(tt.typ, tt.raw))
		})
	}

	unknown := cellValue(excelize.CellTypeError, "#WHAT")
	e, ok := xl.AsError(unknown)
	require.True(t, ok)
	assert.Equal(t, xl.ErrorCodeValue, e.Code)
}
