package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vogtb/go-spreadsheet/packages/formulas/functions"
	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

func TestReadCalls(t *testing.T) {
	input := `
// comment
SUM 1 2 3
CONCATENATE "a b" {1,2}

SUM Sheet1!A1:A3
LEN "unterminated
`
	calls, err := readCalls(strings.NewReader(input), nil)
	require.NoError(t, err)
	require.Len(t, calls, 4)

	assert.Equal(t, 3, calls[0].line)
	assert.Equal(t, "SUM", calls[0].name)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, calls[0].args)
	assert.NoError(t, calls[0].err)

	assert.Equal(t, []any{"a b", [][]any{{1.0, 2.0}}}, calls[1].args)

	assert.Equal(t, 6, calls[2].line)
	assert.ErrorIs(t, calls[2].err, errNoWorkbook)
	assert.ErrorIs(t, calls[3].err, errUnterminated)
}

func TestRunBatchKeepsOrder(t *testing.T) {
	registry := functions.NewRegistry()
	var calls []call
	for i := 1; i <= 50; i++ {
		calls = append(calls, call{line: i, name: "SUM", args: []any{float64(i), float64(i)}})
	}

	results, err := runBatch(context.Background(), registry, calls, 4, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, results, 50)
	for i, r := range results {
		assert.False(t, r.failed)
		assert.Equal(t, xl.Number(2*(i+1)).String(), r.text)
	}
}

func TestRunBatchReportsFailuresInPlace(t *testing.T) {
	registry := functions.NewRegistry(xl.WithCompatibility(xl.HostNative))
	calls := []call{
		{line: 1, name: "SUM", args: []any{1.0}},
		{line: 2, name: "IRR", args: []any{[][]any{{-100.0, 39.0, 59.0}}, 0.5}},
		{line: 3, err: errUnterminated},
		{line: 4, name: "NOPE"},
	}

	results, err := runBatch(context.Background(), registry, calls, 2, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, outcome{text: "1"}, results[0])
	assert.True(t, results[1].failed)
	assert.Contains(t, results[1].text, "line 2")
	assert.True(t, results[2].failed)
	assert.Contains(t, results[2].text, "unterminated")
	// an unknown function is a cell error, not a failure
	assert.Equal(t, outcome{text: "#NAME?"}, results[3])
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runBatch(ctx, functions.NewRegistry(), []call{{line: 1, name: "PI"}}, 1, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}
