package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bslq/internal/metadata"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Objects int                        `json:"objects"`
	Errors  []metadata.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <metadata-dir>",
		Short: "Validate CUE metadata",
		Long: `Validate configuration metadata declared in CUE.

Checks CUE syntax, the shape of every object, attribute type names,
duplicate names and built-in column shadowing. Every problem is
reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	static, loadErrors := metadata.LoadCUE(dir)

	// Nothing readable at all (directory not found, no files, etc.)
	if static == nil && len(loadErrors) > 0 {
		if le, ok := metadata.AsLoadError(loadErrors[0]); ok {
			return outputValidateError(formatter, le.Code, le.Message, nil)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	var objects []*metadata.Object
	if static != nil {
		objects = static.Objects()
	}
	formatter.Log.Debug("loaded metadata", "objects", len(objects), "dir", dir)

	validationErrors := metadata.Validate(objects)

	// Object-level load errors become validation errors
	for _, err := range loadErrors {
		ve := metadata.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
		if le, ok := metadata.AsLoadError(err); ok {
			ve.Message = le.Message
			ve.Code = le.Code
			if le.Pos.IsValid() {
				ve.Field = fmt.Sprintf("%s:%d", le.Pos.Filename(), le.Pos.Line())
			}
		}
		validationErrors = append(validationErrors, ve)
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, len(objects), validationErrors)
	}

	return outputValidateSuccess(formatter, len(objects))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, objects int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Objects: objects})
	}

	fmt.Fprintf(formatter.Writer, "✓ All metadata valid (%d object(s))\n", objects)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Unreadable metadata is a command-level error (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, objects int, errs []metadata.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:   false,
			Objects: objects,
			Errors:  errs,
		}
		if err := formatter.Failure(result, errs[0].Code, errs[0].Message); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "%s\n", err.Field)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
