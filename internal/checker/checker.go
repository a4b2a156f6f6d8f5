// Package checker resolves the types of query result fields against a
// metadata provider.
//
// Checking never stops at the first problem: every semantic error is
// recorded as a QueryError, the offending expression degrades to an
// unknown type, and the walk continues. Callers decide whether a
// non-empty error list is fatal.
package checker

import (
	"io"
	"log/slog"

	"github.com/roach88/bslq/internal/ir"
	"github.com/roach88/bslq/internal/metadata"
	"github.com/roach88/bslq/internal/query"
)

// Checker type-checks queries. A Checker holds no per-query state and
// may be reused.
type Checker struct {
	provider metadata.Provider
	params   map[string]ir.TypeResolution
	logger   *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithProvider attaches a metadata provider. Without one only built-in
// columns are known.
func WithProvider(p metadata.Provider) Option {
	return func(c *Checker) {
		c.provider = p
	}
}

// WithParameters declares the types of &parameters. Names match
// case-insensitively; unbound parameters are Unknown.
func WithParameters(params map[string]ir.TypeResolution) Option {
	return func(c *Checker) {
		for name, typ := range params {
			c.params[ir.Fold(name)] = typ
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Checker.
func New(opts ...Option) *Checker {
	c := &Checker{
		params: make(map[string]ir.TypeResolution),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResultField is one column of a query result.
type ResultField struct {
	Name        string            `json:"name"`
	Type        ir.TypeResolution `json:"type"`
	SourceTable string            `json:"source_table,omitempty"`
}

// Result is the outcome of checking one query. Fields and Errors are
// never nil.
type Result struct {
	Fields []ResultField `json:"fields"`
	Errors []QueryError  `json:"errors"`
}

// OK reports whether no errors were found.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Canonical returns r in the shape accepted by ir.MarshalCanonical.
func (r *Result) Canonical() map[string]any {
	fields := make([]any, 0, len(r.Fields))
	for _, f := range r.Fields {
		fields = append(fields, map[string]any{
			"name":         f.Name,
			"type":         f.Type.Canonical(),
			"source_table": f.SourceTable,
		})
	}
	errs := make([]any, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, map[string]any{
			"code":     e.Code,
			"message":  e.Message,
			"location": e.Location,
		})
	}
	return map[string]any{
		"fields": fields,
		"errors": errs,
	}
}

// Fingerprint hashes the canonical form of r.
func (r *Result) Fingerprint() (string, error) {
	return ir.Fingerprint(ir.DomainCheckResult, r.Canonical())
}

// pass is the state of one CheckQuery or CheckBatch call.
type pass struct {
	c    *Checker
	errs []QueryError

	// objects memoizes provider lookups, including misses and failures.
	objects map[string]memo
	// reported marks failed lookups already reported in this statement.
	reported map[string]bool

	// temps holds result schemas of temp tables created so far in a batch.
	temps map[string]*tableSchema
	batch bool
}

func (c *Checker) newPass() *pass {
	return &pass{
		c:        c,
		errs:     []QueryError{},
		objects:  make(map[string]memo),
		reported: make(map[string]bool),
		temps:    make(map[string]*tableSchema),
	}
}

// CheckQuery type-checks a single query. A nil query yields an empty
// result.
func (c *Checker) CheckQuery(q *query.Query) *Result {
	p := c.newPass()
	return p.result(q)
}

type memo struct {
	obj *metadata.Object
	err error
}

func (p *pass) result(q *query.Query) *Result {
	p.errs = []QueryError{}
	p.reported = make(map[string]bool)
	fields := []ResultField{}
	if q != nil {
		fields = p.query(q, nil)
	}
	return &Result{Fields: fields, Errors: p.errs}
}
