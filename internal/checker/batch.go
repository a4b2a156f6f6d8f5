package checker

import (
	"github.com/roach88/bslq/internal/batch"
)

// BatchResult holds one Result per statement, indexed like the batch.
type BatchResult struct {
	Results  []*Result       `json:"results"`
	Order    []int           `json:"execution_order"`
	Warnings []batch.Warning `json:"warnings"`
}

// OK reports whether every statement checked cleanly.
func (r *BatchResult) OK() bool {
	for _, res := range r.Results {
		if !res.OK() {
			return false
		}
	}
	return true
}

// CheckBatch checks every statement of b in execution order. A statement
// that fills a temp table makes that table's columns visible to the
// statements after it; a bare table nobody created is an error.
func (c *Checker) CheckBatch(b *batch.Batch) *BatchResult {
	out := &BatchResult{
		Results:  make([]*Result, len(b.Parts)),
		Order:    b.ExecutionOrder(),
		Warnings: b.Warnings,
	}
	if out.Warnings == nil {
		out.Warnings = []batch.Warning{}
	}

	p := c.newPass()
	p.batch = true
	for _, i := range out.Order {
		part := b.Parts[i]
		res := p.result(part.Query)
		out.Results[i] = res
		if part.Query != nil && part.Query.Select.IntoTempTable != "" {
			p.registerTemp(part.Query.Select.IntoTempTable, res.Fields)
		}
	}
	return out
}
