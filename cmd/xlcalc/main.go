package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vogtb/go-spreadsheet/packages/formulas/functions"
	"github.com/vogtb/go-spreadsheet/packages/formulas/internal/config"
	"github.com/vogtb/go-spreadsheet/packages/formulas/internal/logging"
	"github.com/vogtb/go-spreadsheet/packages/formulas/workbook"
	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand, filled in before the
// subcommand runs
type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	registry     *xl.Registry
	envFiles     []string
	workbookPath string
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "xlcalc",
		Short: "Evaluate spreadsheet formula functions from the command line",
		Long: `xlcalc invokes the registered spreadsheet functions directly, without a
formula parser. Configuration is read from XLCALC_* environment variables and
optional .env files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringSliceVar(&a.envFiles, "env", []string{".env"}, "dotenv files to load before reading the environment")
	rootCmd.PersistentFlags().StringVarP(&a.workbookPath, "workbook", "w", "", "xlsx file used to resolve Sheet!A1:B2 references")

	rootCmd.AddCommand(
		newListCmd(a),
		newEvalCmd(a),
		newBatchCmd(a),
		newServeCmd(a),
	)
	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.envFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	xl.SetLogger(logger)

	a.cfg = cfg
	a.logger = logger
	a.registry = functions.NewRegistry(append(cfg.RegistryOptions(), xl.WithLogger(logger))...)
	a.logger.Debug("registry ready",
		zap.Stringer("compatibility", cfg.Engine.Compatibility),
		zap.String("locale", cfg.Engine.LocaleTag),
		zap.Int("functions", len(a.registry.Names())))
	return nil
}

// openWorkbook returns a resolver for sheet references, or nil when no
// workbook was given. the returned close func is always safe to call.
func (a *app) openWorkbook() (rangeResolver, func(), error) {
	if a.workbookPath == "" {
		return nil, func() {}, nil
	}
	wb, err := workbook.Open(a.workbookPath)
	if err != nil {
		return nil, func() {}, err
	}
	return wb, func() {
		if err := wb.Close(); err != nil {
			a.logger.Warn("failed to close workbook", zap.Error(err))
		}
	}, nil
}

func newListCmd(a *app) *cobra.Command {
	var signatures bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range a.registry.Names() {
				if !signatures {
					fmt.Fprintln(out, name)
					continue
				}
				spec, _ := a.registry.Lookup(name)
				fmt.Fprintln(out, spec.Signature())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&signatures, "signatures", "s", false, "Print parameter lists")
	return cmd
}

func newEvalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval NAME [ARGS...]",
		Short: "Invoke one function",
		Long: `Invoke one function and print its result.

Arguments are read as TRUE/FALSE, numbers, error literals such as #N/A,
array literals such as {1,2;3,4}, quoted text, or Sheet!A1:B2 references
when --workbook is set. Anything else is text. Put -- before the name when
an argument is a negative number.

Example: xlcalc eval IRR "{-100,39,59,55,20}"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, closeWorkbook, err := a.openWorkbook()
			if err != nil {
				return err
			}
			defer closeWorkbook()

			raw, err := parseArgs(args[1:], refs)
			if err != nil {
				return err
			}
			result, err := a.registry.Invoke(args[0], raw...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatResult(result))
			return nil
		},
	}
	return cmd
}
