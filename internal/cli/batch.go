package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/bslq/internal/batch"
	"github.com/roach88/bslq/internal/checker"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	QueryInputOptions
	MetadataOptions
	NoCheck bool // analyse temp-table flow only
}

// BatchOutput holds the batch command output.
type BatchOutput struct {
	Plan   batch.Plan           `json:"plan"`
	Checks *checker.BatchResult `json:"checks,omitempty"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <batch-file|->",
		Short: "Analyse temp-table flow in a query batch",
		Long: `Analyse a ;-separated batch whose statements share temporary tables.

Reports which statement creates and reads each temp table, an execution
order placing creators first, and groups of statements that could run
concurrently. Unless --no-check is given every statement is also
type-checked, with temp-table columns flowing to later statements.

Exit codes:
  0 - No errors
  1 - The batch has parse or type errors
  2 - Command error (missing files, invalid metadata, etc.)

Examples:
  bslq batch -m ./config stock_report.txt
  bslq batch --no-check --format json stock_report.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}
	opts.QueryInputOptions.bind(cmd)
	opts.MetadataOptions.bind(cmd)
	cmd.Flags().BoolVar(&opts.NoCheck, "no-check", false, "skip type checking")

	return cmd
}

func runBatch(opts *BatchOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	text, err := readQueryText(cmd, path)
	if err != nil {
		_ = formatter.Error(ErrCodeInput, err.Error(), nil)
		return err
	}

	parse := batch.Parse
	if opts.Embedded {
		parse = batch.ParseEmbedded
	}
	b, err := parse(text)
	if err != nil {
		return reportParseError(formatter, err)
	}

	out := BatchOutput{Plan: b.Plan()}
	formatter.Log.Debug("analysed batch", "statements", out.Plan.Statements, "temp_tables", len(out.Plan.TempTables))

	if !opts.NoCheck {
		c, release, err := newChecker(&opts.MetadataOptions, formatter)
		if err != nil {
			return err
		}
		defer release()
		out.Checks = c.CheckBatch(b)
	}

	failed := out.Checks != nil && !out.Checks.OK()
	errCount := 0
	if failed {
		for _, res := range out.Checks.Results {
			errCount += len(res.Errors)
		}
	}

	if formatter.Format == "json" {
		if !failed {
			return formatter.Success(out)
		}
		if err := formatter.Failure(out, ErrCodeChecked, checkFailedMessage(errCount)); err != nil {
			return err
		}
		return NewExitError(ExitFailure, checkFailedMessage(errCount))
	}

	writePlan(formatter.Writer, out)
	if failed {
		return NewExitError(ExitFailure, checkFailedMessage(errCount))
	}
	return nil
}

// writePlan renders the plan and any check results as text.
func writePlan(w io.Writer, out BatchOutput) {
	plan := out.Plan

	table := tablewriter.NewWriter(w)
	header := []string{"#", "Creates", "Uses", "Depends On"}
	if out.Checks != nil {
		header = append(header, "Fields", "Errors")
	}
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	for _, part := range plan.Parts {
		row := []string{
			strconv.Itoa(part.Index),
			strings.Join(part.Creates, ", "),
			strings.Join(part.Uses, ", "),
			joinInts(part.DependsOn),
		}
		if out.Checks != nil {
			res := out.Checks.Results[part.Index]
			row = append(row, strconv.Itoa(len(res.Fields)), strconv.Itoa(len(res.Errors)))
		}
		table.Append(row)
	}
	table.Render()

	fmt.Fprintf(w, "Connected: %t\n", plan.Connected)
	fmt.Fprintf(w, "Execution order: %s\n", joinInts(plan.Order))
	groups := make([]string, len(plan.Groups))
	for i, g := range plan.Groups {
		groups[i] = "[" + joinInts(g) + "]"
	}
	fmt.Fprintf(w, "Parallel groups: %s\n", strings.Join(groups, " "))

	for _, warn := range plan.Warnings {
		fmt.Fprintf(w, "! %s statement %d: %s\n", warn.Code, warn.Index, warn.Message)
	}

	if out.Checks == nil {
		return
	}
	clean := true
	for i, res := range out.Checks.Results {
		for _, e := range res.Errors {
			fmt.Fprintf(w, "✗ statement %d: %s\n", i, e.Error())
			clean = false
		}
	}
	if clean {
		fmt.Fprintln(w, "✓ No errors")
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
