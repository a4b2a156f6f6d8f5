package harness

import (
	"github.com/roach88/bslq/internal/batch"
	"github.com/roach88/bslq/internal/checker"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Statements holds one check result per statement, indexed like the
	// input. A single query has exactly one.
	Statements []*checker.Result `json:"statements"`

	// Plan is the batch analysis; nil for single queries.
	Plan *batch.Plan `json:"plan,omitempty"`

	// ParseError is set when the text did not parse. Statements is then
	// empty.
	ParseError string `json:"parse_error,omitempty"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Statements: []*checker.Result{},
		Errors:     []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// statement returns the result of statement i, or nil.
func (r *Result) statement(i int) *checker.Result {
	if i < 0 || i >= len(r.Statements) {
		return nil
	}
	return r.Statements[i]
}
