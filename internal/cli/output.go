package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the input was checked and has problems
	ExitCommandError = 2 // the input could not be checked at all
)

// ExitError makes a command fail with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError caused by err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps a command error to the process exit code. Errors that
// carry no code are failures.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// RunIDGenerator produces the run id stamped on JSON responses.
type RunIDGenerator interface {
	Generate() string
}

// UUIDRunIDGenerator generates UUIDv7 run ids, so ids sort by time.
type UUIDRunIDGenerator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDRunIDGenerator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// OutputFormatter writes one command's result to stdout, either as text
// or wrapped in a CLIResponse. Diagnostics go to Log, never to Writer, so
// JSON output stays parseable.
type OutputFormatter struct {
	Format string
	Writer io.Writer
	Log    *slog.Logger
	RunID  string
}

func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format: opts.Format,
		Writer: out,
		Log:    opts.logger(errOut),
		RunID:  opts.runID(),
	}
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
	RunID  string    `json:"run_id,omitempty"`
}

// CLIError describes why a command failed.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (f *OutputFormatter) json() bool {
	return f.Format == "json"
}

// Success writes data. In text mode data is printed as is.
func (f *OutputFormatter) Success(data any) error {
	if !f.json() {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return f.encode(CLIResponse{Status: "ok", Data: data})
}

// Error reports a command that produced no result. Details appear in JSON
// only.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if !f.json() {
		_, err := fmt.Fprintf(f.Writer, "✗ %s: %s\n", code, message)
		return err
	}
	return f.encode(CLIResponse{
		Status: "error",
		Error:  &CLIError{Code: code, Message: message, Details: details},
	})
}

// Failure writes a result that is itself the report of problems, such as
// a check with semantic errors. It always encodes JSON; text callers
// render the payload themselves.
func (f *OutputFormatter) Failure(data any, code, message string) error {
	return f.encode(CLIResponse{
		Status: "error",
		Data:   data,
		Error:  &CLIError{Code: code, Message: message},
	})
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	resp.RunID = f.RunID
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
