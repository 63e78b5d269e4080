package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/budget-aggregator/budget-aggregator/internal/budget"
	"github.com/budget-aggregator/budget-aggregator/internal/config"
	"github.com/budget-aggregator/budget-aggregator/internal/export"
	"github.com/budget-aggregator/budget-aggregator/internal/logger"
	"github.com/budget-aggregator/budget-aggregator/internal/model"
	"github.com/budget-aggregator/budget-aggregator/internal/registry"
	"github.com/budget-aggregator/budget-aggregator/internal/sheets"
)

type aggregateOptions struct {
	output      string
	budgetTypes []string
	years       []string

	hideDuplicateBudgets bool
	hideEmptyAccounts    bool
	hideEmptyBalances    bool
	hideEmptyBudgets     bool

	keepGoing bool
	workers   int
	quiet     bool
}

func newAggregateCommand(g *globalOptions) *cobra.Command {
	opts := &aggregateOptions{}

	cmd := &cobra.Command{
		Use:   "aggregate SOURCE...",
		Short: "Merge budget files and write one column per budget",
		Long: `Reads CSV, XLSX and XLS budget exports, merges budgets of the same year and
type, and writes one row per account. Directories are scanned for supported
files. Output goes to stdout as CSV unless --output names a .csv or .xlsx file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			applyFilterFlags(cmd, cfg, opts)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runAggregate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, args, opts)
		},
	}

	defaults := config.Default().Filters
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (.csv or .xlsx), - for stdout")
	f.StringSliceVar(&opts.budgetTypes, "filter-budget-types", nil, "keep only these budget types, e.g. Plan,Ist")
	f.StringSliceVar(&opts.years, "filter-years", nil, "keep only these years, e.g. 2019,2020-2022")
	f.BoolVar(&opts.hideDuplicateBudgets, "hide-duplicate-budgets", defaults.HideDuplicateBudgets, "drop budgets equivalent to an earlier one")
	f.BoolVar(&opts.hideEmptyAccounts, "hide-empty-accounts", defaults.HideEmptyAccounts, "drop accounts that are zero in every budget")
	f.BoolVar(&opts.hideEmptyBalances, "hide-empty-balances", defaults.HideEmptyBalances, "drop zero balances")
	f.BoolVar(&opts.hideEmptyBudgets, "hide-empty-budgets", defaults.HideEmptyBudgets, "drop budgets without nonzero balances")
	f.BoolVar(&opts.keepGoing, "keep-going", false, "skip files that fail to parse")
	f.IntVar(&opts.workers, "workers", 0, "files parsed in parallel (default: number of CPUs)")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print a summary")

	return cmd
}

// applyFilterFlags overrides config values with flags set on the command line.
func applyFilterFlags(cmd *cobra.Command, cfg *config.Config, opts *aggregateOptions) {
	f := cmd.Flags()
	if f.Changed("filter-budget-types") {
		cfg.Filters.BudgetTypes = opts.budgetTypes
	}
	if f.Changed("filter-years") {
		cfg.Filters.Years = opts.years
	}
	if f.Changed("hide-duplicate-budgets") {
		cfg.Filters.HideDuplicateBudgets = opts.hideDuplicateBudgets
	}
	if f.Changed("hide-empty-accounts") {
		cfg.Filters.HideEmptyAccounts = opts.hideEmptyAccounts
	}
	if f.Changed("hide-empty-balances") {
		cfg.Filters.HideEmptyBalances = opts.hideEmptyBalances
	}
	if f.Changed("hide-empty-budgets") {
		cfg.Filters.HideEmptyBudgets = opts.hideEmptyBudgets
	}
}

func runAggregate(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, paths []string, opts *aggregateOptions) error {
	filters, err := cfg.FilterOptions()
	if err != nil {
		return err
	}
	write, err := outputWriter(opts.output)
	if err != nil {
		return err
	}

	readers := sheets.DefaultRegistry()
	sources, err := readers.Scan(paths)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no budget files found in %s", strings.Join(paths, ", "))
	}

	log := logger.New(stderr, cfg.Logging.Level)
	svc := budget.NewService(registry.New(), readers, budget.ServiceConfig{
		Columns:   cfg.Columns,
		Sheets:    cfg.SheetOptions(),
		Workers:   opts.workers,
		KeepGoing: opts.keepGoing,
	}, log)

	res, err := svc.Aggregate(logger.WithContext(ctx, log), sources, filters)
	if err != nil {
		return err
	}

	exportOpts := export.Options{
		Columns:        cfg.Columns,
		Separator:      cfg.SheetOptions().Separator,
		Encoding:       cfg.Output.Encoding,
		CurrencySuffix: cfg.Output.CurrencySuffix,
	}
	if err := writeOutput(stdout, opts.output, write, res.Budgets, exportOpts); err != nil {
		return err
	}

	if !opts.quiet {
		printSummary(stderr, res, opts.output)
	}
	return nil
}

type writeFunc func(io.Writer, []model.Budget, export.Options) error

// outputWriter picks the renderer for dest by its extension. Empty or "-"
// means CSV on stdout.
func outputWriter(dest string) (writeFunc, error) {
	if dest == "" || dest == "-" {
		return export.WriteCSV, nil
	}
	switch strings.ToLower(filepath.Ext(dest)) {
	case ".csv", ".tsv":
		return export.WriteCSV, nil
	case ".xlsx":
		return export.WriteExcel, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (want .csv or .xlsx)", filepath.Ext(dest))
	}
}

func writeOutput(stdout io.Writer, dest string, write writeFunc, budgets []model.Budget, opts export.Options) error {
	if dest == "" || dest == "-" {
		return write(stdout, budgets, opts)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := write(f, budgets, opts); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dest, err)
	}
	return nil
}

func printSummary(w io.Writer, res budget.Result, dest string) {
	if dest == "" {
		dest = "-"
	}
	ok := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %d budgets, %d accounts from %d files -> %s\n",
		ok("aggregated"), len(res.Budgets), len(budget.Accounts(res.Budgets)), res.Files, dest)

	if len(res.Skipped) > 0 {
		warn := color.New(color.FgYellow).SprintFunc()
		fmt.Fprintf(w, "%s %s\n", warn("skipped"), strings.Join(res.Skipped, ", "))
	}
}
