package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

type fakeResolver struct {
	refs map[string]*xl.Range
}

func (f *fakeResolver) Resolve(ref string) (*xl.Range, error) {
	r, ok := f.refs[ref]
	if !ok {
		return nil, xl.NewApplicationError(xl.NotFound, nil, "no range %s", ref)
	}
	return r, nil
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected any
	}{
		{"True", "TRUE", true},
		{"FalseLower", "false", false},
		{"Number", "1.5", 1.5},
		{"Negative", "-3", -3.0},
		{"Exponent", "1e3", 1000.0},
		{"ErrorLiteral", "#N/A", xl.NewError(xl.ErrorCodeNA, "")},
		{"Div0Literal", "#DIV/0!", xl.NewError(xl.ErrorCodeDiv0, "")},
		{"Text", "SPAM", "SPAM"},
		{"NaNIsText", "NaN", "NaN"},
		{"QuotedNumber", `"12"`, "12"},
		{"QuotedQuote", `"say ""hi"""`, `say "hi"`},
		{"Array", "{1,2;3,4}", [][]any{{1.0, 2.0}, {3.0, 4.0}}},
		{"ArrayMixed", `{TRUE,"a,b",,#N/A}`, [][]any{{true, "a,b", nil, xl.NewError(xl.ErrorCodeNA, "")}}},
		{"LeadingPeriod", ".5", 0.5},
		{"PlusSign", "+2", 2.0},
		{"OverflowIsText", "1e999", "1e999"},
		{"TrailingGarbageIsText", "12abc", "12abc"},
		{"BareCellIsText", "A1", "A1"},
		{"UnknownErrorIsText", "#OOPS", "#OOPS"},
		{"QuotedBoolean", `"TRUE"`, "TRUE"},
		{"ArrayReferenceIsText", "{Sheet1!A1, 2}", [][]any{{"Sheet1!A1", 2.0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := parseToken(tt.token, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestParseTokenReferences(t *testing.T) {
	r := xl.RowRange(xl.Number(1), xl.Number(2))
	refs := &fakeResolver{refs: map[string]*xl.Range{
		"Sheet1!A1:B1":   r,
		"'My Sheet'!$C3": r,
	}}

	v, err := parseToken("Sheet1!A1:B1", refs)
	require.NoError(t, err)
	assert.Same(t, r, v)

	v, err = parseToken("'My Sheet'!$C3", refs)
	require.NoError(t, err)
	assert.Same(t, r, v)

	_, err = parseToken("Sheet1!A1:B1", nil)
	assert.ErrorIs(t, err, errNoWorkbook)

	// looks like a reference but is an error literal or plain text
	v, err = parseToken("#NULL!", nil)
	require.NoError(t, err)
	assert.Equal(t, xl.NewError(xl.ErrorCodeNull, ""), v)
	v, err = parseToken("wow!", nil)
	require.NoError(t, err)
	assert.Equal(t, "wow!", v)
}

func TestParseTokenQuotedSheetNames(t *testing.T) {
	r := xl.RowRange(xl.Number(3))
	refs := &fakeResolver{refs: map[string]*xl.Range{
		"'Bob''s Sheet'!A1:A2": r,
		"'2024'!B7":            r,
	}}

	for _, tok := range []string{"'Bob''s Sheet'!A1:A2", "'2024'!B7"} {
		v, err := parseToken(tok, refs)
		require.NoError(t, err, tok)
		assert.Same(t, r, v, tok)
	}

	// a quoted name with no cell after it is just text
	v, err := parseToken("'Bob'!", refs)
	require.NoError(t, err)
	assert.Equal(t, "'Bob'!", v)
}

func TestParseTokenInvalid(t *testing.T) {
	for _, tok := range []string{"{1,2", `{"a}`, `"open`, `"a""`} {
		_, err := parseToken(tok, nil)
		assert.ErrorIs(t, err, errUnterminated, tok)
	}
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []string
	}{
		{"Simple", "SUM 1 2 3", []string{"SUM", "1", "2", "3"}},
		{"Tabs", "SUM\t1  2", []string{"SUM", "1", "2"}},
		{"QuotedText", `CONCATENATE "a b" c`, []string{"CONCATENATE", `"a b"`, "c"}},
		{"Array", "SUM {1, 2; 3, 4} 5", []string{"SUM", "{1, 2; 3, 4}", "5"}},
		{"SheetName", "SUM 'My Sheet'!A1:B2", []string{"SUM", "'My Sheet'!A1:B2"}},
		{"ApostropheInQuotes", `LEN "it's"`, []string{"LEN", `"it's"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := splitLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokens)
		})
	}

	_, err := splitLine(`LEN "open`)
	assert.ErrorIs(t, err, errUnterminated)
	_, err = splitLine("SUM {1,2")
	assert.ErrorIs(t, err, errUnterminated)
}

func TestFormatResult(t *testing.T) {
	assert.Equal(t, "3", formatResult(xl.Number(3)))
	assert.Equal(t, "0.3", formatResult(xl.Number(0.1+0.2)))
	assert.Equal(t, "TRUE", formatResult(xl.Boolean(true)))
	assert.Equal(t, "hello", formatResult(xl.Text("hello")))
	assert.Equal(t, "", formatResult(xl.Blank{}))
	assert.Equal(t, "#DIV/0!", formatResult(xl.Div0Error("division by zero")))

	r := xl.MustRange([][]xl.Value{
		{xl.Number(1), xl.Text(`a"b`)},
		{xl.Blank{}, xl.NAError("")},
	})
	assert.Equal(t, `{1,"a""b";,#N/A}`, formatResult(r))
}
