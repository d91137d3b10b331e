// Package workbook reads typed cell values out of .xlsx files so they can be
// handed to the formula registry as already-resolved arguments.
package workbook

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

// ErrBadReference is returned for a reference that is not A1 notation
var ErrBadReference = errors.New("workbook: malformed cell reference")

// ErrRangeTooLarge is the cause of the error returned when a range spans
// more than MaxRangeCells cells
var ErrRangeTooLarge = errors.New("workbook: range too large")

// MaxRangeCells bounds how many cells a single Range call reads
const MaxRangeCells = 1 << 20

// Workbook is an open .xlsx file. it is not safe for concurrent use; resolve
// ranges first and share the resulting *xl.Range values instead.
type Workbook struct {
	file   *excelize.File
	path   string
	logger *zap.Logger
}

// Open opens the workbook at path
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	xl.Logger().Debug("opened workbook",
		zap.String("path", path),
		zap.Strings("sheets", f.GetSheetList()))
	return &Workbook{file: f, path: path, logger: xl.Logger()}, nil
}

// Close releases the underlying file
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Sheets returns the sheet names in workbook order
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

func (w *Workbook) checkSheet(sheet string) error {
	idx, err := w.file.GetSheetIndex(sheet)
	if err != nil {
		return fmt.Errorf("sheet %q: %w", sheet, err)
	}
	if idx == -1 {
		return xl.NewApplicationError(xl.NotFound, nil, "sheet %q not found in %s", sheet, w.path)
	}
	return nil
}

// Cell reads one cell, e.g. Cell("Sheet1", "B2")
func (w *Workbook) Cell(sheet, cell string) (xl.Value, error) {
	if err := w.checkSheet(sheet); err != nil {
		return nil, err
	}
	if _, _, err := excelize.CellNameToCoordinates(cell); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadReference, cell)
	}
	return w.readCell(sheet, cell)
}

func (w *Workbook) readCell(sheet, cell string) (xl.Value, error) {
	typ, err := w.file.GetCellType(sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("read %s!%s: %w", sheet, cell, err)
	}
	raw, err := w.file.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %s!%s: %w", sheet, cell, err)
	}
	return cellValue(typ, raw), nil
}

// Range reads a rectangular area such as "A1:C3". a single cell reference
// yields a 1x1 range; corners may be given in any order.
func (w *Workbook) Range(sheet, area string) (*xl.Range, error) {
	if err := w.checkSheet(sheet); err != nil {
		return nil, err
	}
	fromCol, fromRow, toCol, toRow, err := parseArea(area)
	if err != nil {
		return nil, err
	}
	if n := (toRow - fromRow + 1) * (toCol - fromCol + 1); n > MaxRangeCells {
		return nil, xl.NewApplicationError(xl.ResourceExhausted, ErrRangeTooLarge,
			"%s!%s has %d cells, at most %d can be read", sheet, area, n, MaxRangeCells)
	}

	cells := make([][]xl.Value, 0, toRow-fromRow+1)
	for row := fromRow; row <= toRow; row++ {
		values := make([]xl.Value, 0, toCol-fromCol+1)
		for col := fromCol; col <= toCol; col++ {
			name, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrBadReference, area)
			}
			v, err := w.readCell(sheet, name)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		cells = append(cells, values)
	}
	w.logger.Debug("read range",
		zap.String("sheet", sheet),
		zap.String("area", area),
		zap.Int("rows", len(cells)))
	return xl.NewRange(cells)
}

// Resolve reads a sheet-qualified reference such as Sheet1!A1:B2 or
// 'My Sheet'!C3
func (w *Workbook) Resolve(ref string) (*xl.Range, error) {
	sheet, area, err := SplitReference(ref)
	if err != nil {
		return nil, err
	}
	return w.Range(sheet, area)
}

// SplitReference splits a sheet-qualified reference into sheet name and
// area. quoted sheet names may contain '' for a single quote.
func SplitReference(ref string) (sheet, area string, err error) {
	i := strings.LastIndex(ref, "!")
	if i <= 0 || i == len(ref)-1 {
		return "", "", fmt.Errorf("%w: %s", ErrBadReference, ref)
	}
	sheet, area = ref[:i], ref[i+1:]
	if len(sheet) >= 2 && strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	return sheet, strings.ReplaceAll(area, "$", ""), nil
}

func parseArea(area string) (fromCol, fromRow, toCol, toRow int, err error) {
	area = strings.ReplaceAll(strings.TrimSpace(area), "$", "")
	first, second, found := strings.Cut(area, ":")
	if !found {
		second = first
	}
	fromCol, fromRow, err = excelize.CellNameToCoordinates(first)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("%w: %s", ErrBadReference, area)
	}
	toCol, toRow, err = excelize.CellNameToCoordinates(second)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("%w: %s", ErrBadReference, area)
	}
	if toCol < fromCol {
		fromCol, toCol = toCol, fromCol
	}
	if toRow < fromRow {
		fromRow, toRow = toRow, fromRow
	}
	return fromCol, fromRow, toCol, toRow, nil
}

// cellValue maps a stored cell onto the spreadsheet value model
func cellValue(typ excelize.CellType, raw string) xl.Value {
	switch typ {
	case excelize.CellTypeBool:
		return xl.Boolean(raw == "1" || strings.EqualFold(raw, "TRUE"))
	case excelize.CellTypeError:
		if code, ok := xl.ParseErrorCode(raw); ok {
			return xl.NewError(code, "")
		}
		return xl.ValueError("unknown error value %q", raw)
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return xl.Text(raw)
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return xl.Number(xl.TimeToSerial(t))
		}
		if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
			return xl.Number(xl.TimeToSerial(t))
		}
		return xl.Text(raw)
	}

	// numbers are stored untyped or as "n"
	if raw == "" {
		return xl.Blank{}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return xl.Number(f)
	}
	return xl.Text(raw)
}
