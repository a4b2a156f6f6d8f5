package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bslq/internal/query"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	QueryInputOptions
}

// ParsedStatement is one statement of a parse result.
type ParsedStatement struct {
	Index  int          `json:"index"`
	Text   string       `json:"text"`
	Tables []string     `json:"tables"`
	AST    *query.Query `json:"ast"`
}

// ParseResult holds the parse command output.
type ParseResult struct {
	Statements []ParsedStatement `json:"statements"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <query-file|->",
		Short: "Parse query text and print its canonical form",
		Long: `Parse a query or a ;-separated batch.

Text output prints every statement in canonical form. JSON output also
carries the syntax tree and the bare table names each statement reads.

Examples:
  bslq parse report.txt
  bslq parse --embedded --format json module_query.txt
  cat report.txt | bslq parse -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}
	opts.QueryInputOptions.bind(cmd)

	return cmd
}

func runParse(opts *ParseOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	text, err := readQueryText(cmd, path)
	if err != nil {
		_ = formatter.Error(ErrCodeInput, err.Error(), nil)
		return err
	}

	statements, err := parseStatements(text, opts.Embedded)
	if err != nil {
		return reportParseError(formatter, err)
	}
	formatter.Log.Debug("parsed query text", "statements", len(statements))

	result := ParseResult{Statements: make([]ParsedStatement, len(statements))}
	for i, q := range statements {
		tables := query.TableNames(q)
		if tables == nil {
			tables = []string{}
		}
		result.Statements[i] = ParsedStatement{
			Index:  i,
			Text:   query.Format(q),
			Tables: tables,
			AST:    q,
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for i, st := range result.Statements {
		if i > 0 {
			fmt.Fprintln(w, ";")
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, st.Text)
	}
	fmt.Fprintln(w)
	return nil
}

func parseStatements(text string, embedded bool) ([]*query.Query, error) {
	if embedded {
		return query.ParseEmbeddedBatch(text)
	}
	return query.ParseBatch(text)
}

// reportParseError prints a parse failure and returns its exit error.
func reportParseError(formatter *OutputFormatter, err error) error {
	var details any
	var pe *query.ParseError
	if errors.As(err, &pe) {
		details = map[string]int{"line": pe.Line, "column": pe.Column, "offset": pe.Offset}
	}
	_ = formatter.Error(ErrCodeParse, err.Error(), details)
	return WrapExitError(ExitFailure, "parse failed", err)
}
