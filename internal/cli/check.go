package cli

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/bslq/internal/checker"
	"github.com/roach88/bslq/internal/query"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	QueryInputOptions
	MetadataOptions
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <query-file|->",
		Short: "Type-check a query against metadata",
		Long: `Resolve the type of every result field of a query.

Metadata comes from a CUE directory or a metadata database built by
"bslq import". Without metadata only built-in columns are known.

Exit codes:
  0 - No errors
  1 - The query has parse or type errors
  2 - Command error (missing files, invalid metadata, etc.)

Examples:
  bslq check -m ./config report.txt
  bslq check -m meta.db -p Период=Дата report.txt
  bslq check --params params.yaml --format json report.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}
	opts.QueryInputOptions.bind(cmd)
	opts.MetadataOptions.bind(cmd)

	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	text, err := readQueryText(cmd, path)
	if err != nil {
		_ = formatter.Error(ErrCodeInput, err.Error(), nil)
		return err
	}

	parse := query.Parse
	if opts.Embedded {
		parse = query.ParseEmbedded
	}
	q, err := parse(text)
	if err != nil {
		return reportParseError(formatter, err)
	}

	c, release, err := newChecker(&opts.MetadataOptions, formatter)
	if err != nil {
		return err
	}
	defer release()

	result := c.CheckQuery(q)
	formatter.Log.Debug("checked query", "fields", len(result.Fields), "errors", len(result.Errors))

	if formatter.Format == "json" {
		if result.OK() {
			return formatter.Success(result)
		}
		if err := formatter.Failure(result, ErrCodeChecked, checkFailedMessage(len(result.Errors))); err != nil {
			return err
		}
		return NewExitError(ExitFailure, checkFailedMessage(len(result.Errors)))
	}

	w := formatter.Writer
	writeFieldTable(w, result.Fields)
	if writeQueryErrors(w, result.Errors) {
		return NewExitError(ExitFailure, checkFailedMessage(len(result.Errors)))
	}
	fmt.Fprintln(w, "✓ No errors")
	return nil
}

// newChecker builds a checker from the metadata flags. The returned
// function releases the metadata source.
func newChecker(opts *MetadataOptions, formatter *OutputFormatter) (*checker.Checker, func(), error) {
	params, err := opts.parameters()
	if err != nil {
		_ = formatter.Error(ErrCodeParams, err.Error(), nil)
		return nil, nil, err
	}
	provider, release, err := opts.openProvider()
	if err != nil {
		_ = formatter.Error(ErrCodeMetadata, err.Error(), nil)
		return nil, nil, err
	}

	checkOpts := []checker.Option{
		checker.WithParameters(params),
		checker.WithLogger(formatter.Log),
	}
	if provider != nil {
		checkOpts = append(checkOpts, checker.WithProvider(provider))
	}
	return checker.New(checkOpts...), release, nil
}

func checkFailedMessage(n int) string {
	return fmt.Sprintf("check failed with %d error(s)", n)
}

// writeFieldTable renders result fields as a table.
func writeFieldTable(w io.Writer, fields []checker.ResultField) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Type", "Source"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	for _, f := range fields {
		table.Append([]string{f.Name, f.Type.String(), f.SourceTable})
	}
	table.Render()
}

// writeQueryErrors lists checker errors and reports whether there were any.
func writeQueryErrors(w io.Writer, errs []checker.QueryError) bool {
	for _, e := range errs {
		fmt.Fprintf(w, "✗ %s\n", e.Error())
	}
	return len(errs) > 0
}
