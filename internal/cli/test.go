package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/bslq/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name    string   `json:"name"`
	Pass    bool     `json:"pass"`
	Updated bool     `json:"golden_updated,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// TestResult summarises a scenario run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run checker scenarios",
		Long: `Run YAML check scenarios using the harness framework.

Each scenario declares metadata, query text and assertions about the
checked result. When <scenarios-dir>/golden/<name>.golden exists the
canonical snapshot of the run must also match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  bslq test ./scenarios
  bslq test ./scenarios --filter "batch_*"
  bslq test ./scenarios --update
  bslq test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, dir string, out, errOut io.Writer) error {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, "scenarios directory not found: "+dir)
	}
	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	formatter := newFormatter(opts.RootOptions, out, errOut)
	if len(files) == 0 && !formatter.json() {
		fmt.Fprintln(out, "No scenarios found.")
		return nil
	}

	result := TestResult{Scenarios: []ScenarioResult{}, Total: len(files)}
	for _, file := range files {
		r := runScenario(file, opts.Update, formatter.Log)
		if r.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, r)
		if !formatter.json() {
			printScenario(out, r)
		}
	}

	if formatter.json() {
		if result.Failed == 0 {
			return formatter.Success(result)
		}
		if err := formatter.Failure(result, ErrCodeTestFails, failedMessage(result)); err != nil {
			return err
		}
		return NewExitError(ExitFailure, failedMessage(result))
	}

	fmt.Fprintf(out, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, failedMessage(result))
	}
	fmt.Fprintln(out, "✓ All scenarios passed")
	return nil
}

func failedMessage(r TestResult) string {
	return fmt.Sprintf("%d scenario(s) failed", r.Failed)
}

func printScenario(w io.Writer, r ScenarioResult) {
	switch {
	case r.Pass && r.Updated:
		fmt.Fprintf(w, "✓ %s (golden updated)\n", r.Name)
	case r.Pass:
		fmt.Fprintf(w, "✓ %s\n", r.Name)
	default:
		fmt.Fprintf(w, "✗ %s\n", r.Name)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// findScenarioFiles lists the .yaml and .yml files under dir whose base
// name matches filter. The golden directory is skipped.
func findScenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir() && d.Name() == "golden":
			return filepath.SkipDir
		case d.IsDir():
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// runScenario loads and checks one scenario, then settles it against its
// golden snapshot: rewritten with update, compared when present.
func runScenario(file string, update bool, log *slog.Logger) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{Name: filepath.Base(file), Errors: []string{"Load error: " + err.Error()}}
	}
	res := ScenarioResult{Name: scenario.Name}

	run, err := harness.RunWithLogger(scenario, log)
	if err != nil {
		res.Errors = []string{"Execution error: " + err.Error()}
		return res
	}
	snapshot, err := harness.Snapshot(scenario.Name, run)
	if err != nil {
		res.Errors = []string{"Snapshot error: " + err.Error()}
		return res
	}

	golden := goldenFilePath(file)
	if update {
		if err := writeGolden(golden, snapshot); err != nil {
			res.Errors = []string{"Golden update error: " + err.Error()}
			return res
		}
		res.Pass, res.Updated = true, true
		return res
	}

	want, err := os.ReadFile(golden)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		res.Errors = append(res.Errors, "Golden read error: "+err.Error())
	case !bytes.Equal(want, snapshot):
		res.Errors = append(res.Errors, "Golden file mismatch (run with --update to regenerate)")
	}
	res.Errors = append(res.Errors, run.Errors...)
	res.Pass = len(res.Errors) == 0 && run.Pass
	return res
}

// goldenFilePath maps dir/name.yaml to dir/golden/name.golden.
func goldenFilePath(file string) string {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return filepath.Join(filepath.Dir(file), "golden", name+".golden")
}

func writeGolden(path string, snapshot []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, snapshot, 0o644)
}
