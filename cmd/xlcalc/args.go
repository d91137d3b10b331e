package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

// rangeResolver turns Sheet!A1:B2 into a range
type rangeResolver interface {
	Resolve(ref string) (*xl.Range, error)
}

var (
	errNoWorkbook   = errors.New("sheet references need --workbook")
	errUnterminated = errors.New("unterminated quote or array literal")
)

func parseArgs(tokens []string, refs rangeResolver) ([]any, error) {
	raw := make([]any, 0, len(tokens))
	for _, tok := range tokens {
		v, err := parseToken(tok, refs)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", tok, err)
		}
		raw = append(raw, v)
	}
	return raw, nil
}

func parseToken(tok string, refs rangeResolver) (any, error) {
	if strings.HasPrefix(tok, "{") {
		return parseArray(tok)
	}
	lit, err := classify(tok)
	if err != nil {
		return nil, err
	}
	if lit.typ == tokenCell || lit.typ == tokenRange {
		if refs == nil {
			return nil, errNoWorkbook
		}
		return refs.Resolve(lit.value)
	}
	return literalValue(lit, tok), nil
}

// parseCell reads one array cell. references are not allowed inside an
// array literal and read as text.
func parseCell(tok string) (any, error) {
	lit, err := classify(tok)
	if err != nil {
		return nil, err
	}
	return literalValue(lit, tok), nil
}

// literalValue converts a lexed literal. anything that is not a number,
// string, boolean or known error code is the raw text.
func literalValue(lit token, raw string) any {
	switch lit.typ {
	case tokenNumber:
		if f, err := strconv.ParseFloat(lit.value, 64); err == nil {
			return f
		}
	case tokenString:
		return lit.value
	case tokenBoolean:
		return lit.value == "TRUE"
	case tokenError:
		if code, ok := xl.ParseErrorCode(lit.value); ok {
			return xl.NewError(code, "")
		}
	}
	return raw
}

// parseArray reads an array literal: rows split by ';', cells by ','.
// an empty cell is blank.
func parseArray(tok string) ([][]any, error) {
	if !strings.HasSuffix(tok, "}") || len(tok) < 2 {
		return nil, errUnterminated
	}
	body := tok[1 : len(tok)-1]
	rowTexts, err := splitOutsideQuotes(body, ';')
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(rowTexts))
	for _, rowText := range rowTexts {
		cellTexts, err := splitOutsideQuotes(rowText, ',')
		if err != nil {
			return nil, err
		}
		row := make([]any, len(cellTexts))
		for i, cell := range cellTexts {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := parseCell(cell)
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func splitOutsideQuotes(s string, sep byte) ([]string, error) {
	var parts []string
	quoted := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '"':
			quoted = !quoted
		case s[i] == sep && !quoted:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if quoted {
		return nil, errUnterminated
	}
	return append(parts, s[start:]), nil
}

// splitLine tokenizes one batch line on whitespace, keeping quoted text,
// quoted sheet names and array literals whole
func splitLine(line string) ([]string, error) {
	var (
		tokens []string
		cur    strings.Builder
		quoted bool
		sheet  bool
		depth  int
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch {
		case r == '"' && !sheet:
			quoted = !quoted
		case r == '\'' && !quoted && depth == 0:
			sheet = !sheet
		case quoted || sheet:
		case r == '{':
			depth++
		case r == '}':
			depth--
		case (r == ' ' || r == '\t') && depth == 0:
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	if quoted || sheet || depth != 0 {
		return nil, errUnterminated
	}
	flush()
	return tokens, nil
}

// formatResult prints a result the way a cell shows it. ranges print as
// array literals.
func formatResult(a xl.Arg) string {
	r, ok := a.(*xl.Range)
	if !ok {
		return display(a)
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, row := range r.IterateRows() {
		if i > 0 {
			b.WriteByte(';')
		}
		for j, v := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			if t, isText := v.(xl.Text); isText {
				b.WriteString(`"` + strings.ReplaceAll(string(t), `"`, `""`) + `"`)
				continue
			}
			b.WriteString(display(v))
		}
	}
	b.WriteByte('}')
	return b.String()
}

// display renders a scalar. error values print their code, not the message.
func display(a xl.Arg) string {
	if e, ok := xl.AsError(a); ok {
		return e.Code.String()
	}
	return fmt.Sprint(a)
}
