// Package batch analyses ;-separated query batches whose statements
// communicate through temporary tables (ПОМЕСТИТЬ).
//
// The analysis is pure: it never executes anything. It reports which
// statement creates and consumes each temporary table, whether the batch
// is connected at all, and two advisory schedules derived from that graph:
// groups of statements that could run concurrently and a sequential order
// that places every producer before its consumers.
package batch

import (
	"fmt"

	"github.com/roach88/bslq/internal/ir"
	"github.com/roach88/bslq/internal/query"
)

// Warning codes.
const (
	WarnDuplicateTempTable = "W101"
	WarnUseBeforeCreate    = "W102"
)

// Part is one statement of a batch.
type Part struct {
	Index   int          `json:"index"`
	Query   *query.Query `json:"-"`
	Creates []string     `json:"creates"`
	Uses    []string     `json:"uses"`
	Drops   []string     `json:"drops,omitempty"` // reserved; never set

	// DependsOn lists the indexes of the statements that created the tables
	// in Uses, ascending.
	DependsOn []int `json:"depends_on"`
}

// Warning is a non-fatal finding about temp-table usage.
type Warning struct {
	Code    string `json:"code"`
	Index   int    `json:"index"`
	Table   string `json:"table"`
	Message string `json:"message"`
}

// Batch is the analysed form of a statement list.
type Batch struct {
	Parts []Part `json:"parts"`

	// TempTables maps each temp table, spelled as its most recent creator
	// wrote it, to that creator's index.
	TempTables map[string]int `json:"temp_tables"`
	Connected  bool           `json:"is_connected"`
	Warnings   []Warning      `json:"warnings"`
}

// Parse parses a batch and analyses it.
func Parse(text string) (*Batch, error) {
	qs, err := query.ParseBatch(text)
	if err != nil {
		return nil, err
	}
	return FromQueries(qs), nil
}

// ParseEmbedded is Parse for query text copied out of module source.
func ParseEmbedded(text string) (*Batch, error) {
	qs, err := query.ParseEmbeddedBatch(text)
	if err != nil {
		return nil, err
	}
	return FromQueries(qs), nil
}

// FromQueries analyses statements in order. A statement's uses are the bare
// table names, anywhere in it, that a strictly earlier statement created.
// Names match case-insensitively and the last creator wins.
func FromQueries(qs []*query.Query) *Batch {
	b := &Batch{
		Parts:      make([]Part, 0, len(qs)),
		TempTables: make(map[string]int),
		Warnings:   []Warning{},
	}

	// folded name -> spelling used as the TempTables key
	spelling := make(map[string]string)
	// folded name -> indexes of every creator, ascending
	creators := make(map[string][]int)
	for i, q := range qs {
		if name := intoTable(q); name != "" {
			creators[ir.Fold(name)] = append(creators[ir.Fold(name)], i)
		}
	}

	for i, q := range qs {
		part := Part{
			Index:     i,
			Query:     q,
			Creates:   []string{},
			Uses:      []string{},
			DependsOn: []int{},
		}

		deps := make(map[int]bool)
		for _, name := range query.TableNames(q) {
			key := ir.Fold(name)
			if prev, ok := spelling[key]; ok {
				part.Uses = append(part.Uses, name)
				deps[b.TempTables[prev]] = true
				b.Connected = true
				continue
			}
			if later := firstAfter(creators[key], i); later >= 0 {
				b.Warnings = append(b.Warnings, Warning{
					Code:    WarnUseBeforeCreate,
					Index:   i,
					Table:   name,
					Message: fmt.Sprintf("statement %d reads %s before statement %d creates it", i, name, later),
				})
			}
		}
		for idx := 0; idx < i; idx++ {
			if deps[idx] {
				part.DependsOn = append(part.DependsOn, idx)
			}
		}

		if name := intoTable(q); name != "" {
			key := ir.Fold(name)
			if prev, ok := spelling[key]; ok {
				b.Warnings = append(b.Warnings, Warning{
					Code:    WarnDuplicateTempTable,
					Index:   i,
					Table:   name,
					Message: fmt.Sprintf("temp table %s is already created by statement %d", name, b.TempTables[prev]),
				})
				delete(b.TempTables, prev)
			}
			spelling[key] = name
			b.TempTables[name] = i
			part.Creates = append(part.Creates, name)
		}

		b.Parts = append(b.Parts, part)
	}
	return b
}

func intoTable(q *query.Query) string {
	if q == nil {
		return ""
	}
	return q.Select.IntoTempTable
}

func firstAfter(indexes []int, i int) int {
	for _, idx := range indexes {
		if idx > i {
			return idx
		}
	}
	return -1
}

// CanParallelize reports whether the statements share no temp-table state
// and there is more than one of them.
func (b *Batch) CanParallelize() bool {
	return !b.Connected && len(b.Parts) > 1
}

// ParallelGroups partitions statement indexes into consecutive groups whose
// members could run concurrently. Groups must run one after another.
//
// Statements are taken in order. A table becomes available as soon as its
// creator is placed in a group, the open one included. A statement joins
// the open group when every table it uses is available; otherwise the open
// group closes and the statement starts the next one.
func (b *Batch) ParallelGroups() [][]int {
	groups := [][]int{}
	if !b.Connected {
		for _, p := range b.Parts {
			groups = append(groups, []int{p.Index})
		}
		return groups
	}

	available := make(map[string]bool) // folded names
	var current []int
	for _, p := range b.Parts {
		if len(current) > 0 && !usesAvailable(p, available) {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, p.Index)
		for _, name := range p.Creates {
			available[ir.Fold(name)] = true
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

func usesAvailable(p Part, available map[string]bool) bool {
	for _, name := range p.Uses {
		if !available[ir.Fold(name)] {
			return false
		}
	}
	return true
}

// ExecutionOrder returns a permutation of statement indexes in which every
// creator precedes the statements that read its table. Independent
// statements keep their original relative order.
func (b *Batch) ExecutionOrder() []int {
	order := make([]int, 0, len(b.Parts))
	visited := make(map[int]bool, len(b.Parts))

	var visit func(i int)
	visit = func(i int) {
		if visited[i] {
			return
		}
		visited[i] = true
		for _, dep := range b.Parts[i].DependsOn {
			if dep < i {
				visit(dep)
			}
		}
		order = append(order, i)
	}

	for i := range b.Parts {
		visit(i)
	}
	return order
}
