package checker

import (
	"github.com/roach88/bslq/internal/ir"
	"github.com/roach88/bslq/internal/query"
)

// query checks q and its unions and returns the result fields of the
// first statement. outer is the enclosing scope for correlated
// subqueries, or nil.
func (p *pass) query(q *query.Query, outer *scope) []ResultField {
	fields, sc := p.core(q, outer)
	for _, u := range q.Unions {
		if u.Query != nil {
			p.core(u.Query, outer)
		}
	}

	if q.OrderBy == nil && q.Totals == nil {
		return fields
	}
	results := withResults(sc, fields)
	if q.OrderBy != nil {
		for _, item := range q.OrderBy.Items {
			p.expr(item.Expr, results)
		}
	}
	if q.Totals != nil {
		for _, agg := range q.Totals.Aggregates {
			p.expr(agg.Expr, results)
		}
		for _, by := range q.Totals.By {
			p.field(by, results)
		}
	}
	return fields
}

// withResults returns a scope where result aliases shadow table columns.
func withResults(sc *scope, fields []ResultField) *scope {
	s := newScope(sc)
	s.add("", resultSchema(fields))
	return s
}

func (p *pass) core(q *query.Query, outer *scope) ([]ResultField, *scope) {
	sc := newScope(outer)
	for _, src := range q.From.Sources {
		p.source(src, sc, outer)
		for _, j := range src.Joins {
			p.source(j.Source, sc, outer)
			if j.On != nil {
				p.condition(j.On, sc, "JOIN")
			}
		}
	}

	if q.Where != nil {
		p.condition(q.Where, sc, "WHERE")
	}
	for _, g := range q.GroupBy {
		p.expr(g, sc)
	}
	if q.Having != nil {
		p.condition(q.Having, sc, "HAVING")
	}

	fields := []ResultField{}
	for _, f := range q.Select.Fields {
		fields = append(fields, p.selectField(f, sc)...)
	}
	if len(q.GroupBy) > 0 {
		p.checkGrouping(q)
	}
	if len(q.Select.IndexBy) > 0 {
		results := withResults(sc, fields)
		for _, e := range q.Select.IndexBy {
			p.expr(e, results)
		}
	}
	return fields, sc
}

func (p *pass) source(src query.TableSource, sc, outer *scope) {
	schema := p.tableSchemaFor(src.Table, outer)
	key := src.Alias
	if key == "" {
		key = query.TableName(src.Table)
	}
	if !sc.add(key, schema) {
		p.errorf(ErrDuplicateAlias, key, "table alias %s is used more than once", key)
	}
}

func (p *pass) selectField(f query.SelectField, sc *scope) []ResultField {
	switch x := f.Expr.(type) {
	case query.Wildcard:
		return p.expand(x, sc)
	case query.QualifiedField:
		typ, table := p.qualified(x, sc)
		return []ResultField{{Name: resultName(f), Type: typ, SourceTable: table}}
	}
	return []ResultField{{Name: resultName(f), Type: p.expr(f.Expr, sc)}}
}

// expand turns * or T.* into one field per column, in source order.
func (p *pass) expand(w query.Wildcard, sc *scope) []ResultField {
	var entries []scopeEntry
	if w.Table != "" {
		e, ok := sc.table(w.Table)
		if !ok {
			p.errorf(ErrTableNotFound, w.Table+".*", "table %s not found", w.Table)
			return nil
		}
		entries = []scopeEntry{e}
	} else {
		if len(sc.entries) == 0 {
			p.errorf(ErrWildcardNoTables, "*", "* used without any table")
			return nil
		}
		entries = sc.entries
	}

	var fields []ResultField
	for _, e := range entries {
		for _, c := range e.schema.columns {
			fields = append(fields, ResultField{Name: c.Name, Type: c.Type, SourceTable: e.key})
		}
	}
	return fields
}

// resultName is the alias, else the last segment of a dotted field,
// else the expression text.
func resultName(f query.SelectField) string {
	if f.Alias != "" {
		return f.Alias
	}
	switch x := f.Expr.(type) {
	case query.Field:
		return x.Name
	case query.QualifiedField:
		segs := x.Segments()
		return segs[len(segs)-1]
	}
	return query.FormatExpression(f.Expr)
}

func (p *pass) checkGrouping(q *query.Query) {
	grouped := make(map[string]bool, len(q.GroupBy))
	for _, g := range q.GroupBy {
		grouped[query.CanonicalExpression(g)] = true
	}
	for _, f := range q.Select.Fields {
		if fc, ok := f.Expr.(query.FunctionCall); ok && IsAggregate(fc.Name) {
			continue
		}
		if grouped[query.CanonicalExpression(f.Expr)] {
			continue
		}
		p.errorf(ErrNotGrouped, "SELECT", "field %s is neither aggregated nor listed in GROUP BY",
			query.FormatExpression(f.Expr))
	}
}

// registerTemp records the result schema of a statement that creates a
// temp table.
func (p *pass) registerTemp(name string, fields []ResultField) {
	p.temps[ir.Fold(name)] = resultSchema(fields)
	p.c.logger.Debug("temp table registered", "name", name, "columns", len(fields))
}
