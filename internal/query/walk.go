package query

// Inspect traverses q depth-first, calling fn for every *Query,
// TableReference and Expression it reaches, including those inside
// subqueries, joins, unions and virtual-table parameters. If fn returns
// false, the children of that node are skipped.
func Inspect(q *Query, fn func(node any) bool) {
	if q == nil {
		return
	}
	w := walker{fn: fn}
	w.query(q)
}

type walker struct {
	fn func(node any) bool
}

func (w walker) query(q *Query) {
	if !w.fn(q) {
		return
	}
	for _, field := range q.Select.Fields {
		w.expr(field.Expr)
	}
	for _, e := range q.Select.IndexBy {
		w.expr(e)
	}
	for _, src := range q.From.Sources {
		w.source(src)
		for _, j := range src.Joins {
			w.source(j.Source)
			w.expr(j.On)
		}
	}
	w.expr(q.Where)
	for _, e := range q.GroupBy {
		w.expr(e)
	}
	w.expr(q.Having)
	for _, u := range q.Unions {
		w.query(u.Query)
	}
	if q.OrderBy != nil {
		for _, item := range q.OrderBy.Items {
			w.expr(item.Expr)
		}
	}
	if q.Totals != nil {
		for _, agg := range q.Totals.Aggregates {
			w.expr(agg.Expr)
		}
	}
}

func (w walker) source(src TableSource) {
	if !w.fn(src.Table) {
		return
	}
	switch t := src.Table.(type) {
	case SubqueryTable:
		w.query(t.Query)
	case VirtualTable:
		for _, param := range t.Params {
			w.expr(param.Value)
		}
	}
}

func (w walker) expr(e Expression) {
	if e == nil || !w.fn(e) {
		return
	}
	switch x := e.(type) {
	case FunctionCall:
		for _, arg := range x.Args {
			w.expr(arg)
		}
	case BinaryOp:
		w.expr(x.Left)
		w.expr(x.Right)
	case UnaryOp:
		w.expr(x.Operand)
	case Between:
		w.expr(x.Expr)
		w.expr(x.Low)
		w.expr(x.High)
	case In:
		w.expr(x.Expr)
		for _, item := range x.List {
			w.expr(item)
		}
	case Case:
		for _, when := range x.Whens {
			w.expr(when.Condition)
			w.expr(when.Result)
		}
		w.expr(x.Else)
	case Cast:
		w.expr(x.Expr)
	case Subquery:
		w.query(x.Query)
	}
}

// TableNames returns the bare table names referenced anywhere in q,
// in traversal order and without duplicates.
func TableNames(q *Query) []string {
	var names []string
	seen := make(map[string]bool)
	Inspect(q, func(node any) bool {
		if t, ok := node.(Table); ok && !seen[t.Name] {
			seen[t.Name] = true
			names = append(names, t.Name)
		}
		return true
	})
	return names
}
