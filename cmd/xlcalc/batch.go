package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

// call is one parsed batch line. err holds a parse failure that is
// reported in place of the result.
type call struct {
	line int
	name string
	args []any
	err  error
}

type outcome struct {
	text   string
	failed bool
}

func newBatchCmd(a *app) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Evaluate one invocation per line",
		Long: `Evaluate one invocation per line of FILE ("-" for stdin) and print the
results in input order. Each line is NAME followed by arguments written as
for eval; blank lines and lines starting with // are skipped.

Example: xlcalc batch calls.txt --workers 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open batch file: %w", err)
				}
				defer f.Close()
				in = f
			}

			refs, closeWorkbook, err := a.openWorkbook()
			if err != nil {
				return err
			}
			defer closeWorkbook()

			// references are resolved while reading since the workbook is
			// not safe for concurrent use
			calls, err := readCalls(in, refs)
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = a.cfg.Batch.Workers
			}
			results, err := runBatch(cmd.Context(), a.registry, calls, workers, a.logger)
			if err != nil {
				return err
			}

			failed := 0
			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.failed {
					failed++
				}
				fmt.Fprintln(out, r.text)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d invocations failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent invocations (default XLCALC_BATCH_WORKERS)")
	return cmd
}

func readCalls(r io.Reader, refs rangeResolver) ([]call, error) {
	var calls []call
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		c := call{line: n}
		tokens, err := splitLine(line)
		if err != nil {
			c.err = err
			calls = append(calls, c)
			continue
		}
		c.name = tokens[0]
		c.args, c.err = parseArgs(tokens[1:], refs)
		calls = append(calls, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch input: %w", err)
	}
	return calls, nil
}

// runBatch invokes every call with at most workers in flight. results keep
// the order of calls.
func runBatch(ctx context.Context, registry *xl.Registry, calls []call, workers int, logger *zap.Logger) ([]outcome, error) {
	results := make([]outcome, len(calls))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, c := range calls {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if c.err != nil {
				results[i] = outcome{text: fmt.Sprintf("line %d: %v", c.line, c.err), failed: true}
				return nil
			}
			result, err := registry.Invoke(c.name, c.args...)
			if err != nil {
				logger.Debug("batch invocation failed", zap.Int("line", c.line), zap.Error(err))
				results[i] = outcome{text: fmt.Sprintf("line %d: %v", c.line, err), failed: true}
				return nil
			}
			results[i] = outcome{text: formatResult(result)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
