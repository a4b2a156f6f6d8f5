package batch

import (
	"slices"

	"github.com/roach88/bslq/internal/ir"
)

// Plan is the serializable summary of a batch analysis.
type Plan struct {
	Statements     int            `json:"statements"`
	TempTables     map[string]int `json:"temp_tables"`
	Connected      bool           `json:"is_connected"`
	CanParallelize bool           `json:"can_parallelize"`
	Groups         [][]int        `json:"parallel_groups"`
	Order          []int          `json:"execution_order"`
	Parts          []Part         `json:"parts"`
	Warnings       []Warning      `json:"warnings"`
}

// Plan computes the schedules of b.
func (b *Batch) Plan() Plan {
	return Plan{
		Statements:     len(b.Parts),
		TempTables:     b.TempTables,
		Connected:      b.Connected,
		CanParallelize: b.CanParallelize(),
		Groups:         b.ParallelGroups(),
		Order:          b.ExecutionOrder(),
		Parts:          b.Parts,
		Warnings:       b.Warnings,
	}
}

// Canonical returns p in the shape accepted by ir.MarshalCanonical.
func (p Plan) Canonical() map[string]any {
	tables := make(map[string]any, len(p.TempTables))
	for name, idx := range p.TempTables {
		tables[name] = idx
	}

	groups := make([]any, 0, len(p.Groups))
	for _, g := range p.Groups {
		groups = append(groups, ints(g))
	}

	parts := make([]any, 0, len(p.Parts))
	for _, part := range p.Parts {
		parts = append(parts, map[string]any{
			"index":      part.Index,
			"creates":    slices.Clone(part.Creates),
			"uses":       slices.Clone(part.Uses),
			"depends_on": ints(part.DependsOn),
		})
	}

	warnings := make([]any, 0, len(p.Warnings))
	for _, w := range p.Warnings {
		warnings = append(warnings, map[string]any{
			"code":    w.Code,
			"index":   w.Index,
			"table":   w.Table,
			"message": w.Message,
		})
	}

	return map[string]any{
		"statements":      p.Statements,
		"temp_tables":     tables,
		"is_connected":    p.Connected,
		"can_parallelize": p.CanParallelize,
		"parallel_groups": groups,
		"execution_order": ints(p.Order),
		"parts":           parts,
		"warnings":        warnings,
	}
}

// Fingerprint hashes the canonical form of p.
func (p Plan) Fingerprint() (string, error) {
	return ir.Fingerprint(ir.DomainBatchPlan, p.Canonical())
}

func ints(xs []int) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
