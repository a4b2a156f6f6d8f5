package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/bslq/internal/metadata"
	"github.com/roach88/bslq/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database string // metadata database path
	History  bool   // list earlier imports instead of importing
}

// ImportResult holds the import command output.
type ImportResult struct {
	Import  *store.ImportRecord  `json:"import,omitempty"`
	History []store.ImportRecord `json:"history,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import [metadata-dir]",
		Short: "Import CUE metadata into a metadata database",
		Long: `Validate CUE metadata and store it in a SQLite metadata database.

Objects are replaced by kind and name; re-importing unchanged objects is
a no-op. The database can then be passed to check and batch with -m.

Examples:
  bslq import ./config --db meta.db
  bslq import --history --db meta.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "metadata database path (required)")
	cmd.Flags().BoolVar(&opts.History, "history", false, "list earlier imports")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(opts *ImportOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if !opts.History && len(args) == 0 {
		return NewExitError(ExitCommandError, "metadata directory is required unless --history is set")
	}
	if !isDatabasePath(opts.Database) {
		msg := fmt.Sprintf("database path must end in .db, .sqlite or .sqlite3: %s", opts.Database)
		_ = formatter.Error(ErrCodeDatabase, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	var objects []*metadata.Object
	if !opts.History {
		static, errs := metadata.LoadCUE(args[0])
		if len(errs) > 0 {
			_ = formatter.Error(ErrCodeMetadata, errs[0].Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load metadata", errs[0])
		}
		objects = static.Objects()
		if verrs := metadata.Validate(objects); len(verrs) > 0 {
			_ = formatter.Error(ErrCodeValidate, verrs[0].Error(), verrs)
			return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(verrs)))
		}
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := context.Background()
	result := ImportResult{}
	if opts.History {
		history, err := st.Imports(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read import history", err)
		}
		result.History = history
	} else {
		formatter.Log.Info("importing metadata", "dir", args[0], "objects", len(objects), "db", opts.Database)
		rec, err := st.Import(ctx, args[0], objects)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "import failed", err)
		}
		formatter.Log.Debug("import recorded", "id", rec.ID, "seq", rec.Seq, "changed", rec.Changed)
		result.Import = &rec
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if result.Import != nil {
		fmt.Fprintf(w, "✓ Imported %d object(s), %d changed\n", result.Import.Objects, result.Import.Changed)
		return nil
	}
	if len(result.History) == 0 {
		fmt.Fprintln(w, "No imports recorded.")
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Seq", "ID", "Source", "Objects", "Changed"})
	table.SetAutoFormatHeaders(false)
	for _, rec := range result.History {
		table.Append([]string{
			strconv.FormatInt(rec.Seq, 10),
			rec.ID,
			rec.Source,
			strconv.Itoa(rec.Objects),
			strconv.Itoa(rec.Changed),
		})
	}
	table.Render()
	return nil
}
