package checker

import (
	"strings"

	"github.com/roach88/bslq/internal/ir"
	"github.com/roach88/bslq/internal/query"
)

// expr returns the type of e, recording problems along the way.
func (p *pass) expr(e query.Expression, sc *scope) ir.TypeResolution {
	switch x := e.(type) {
	case query.Field:
		return p.field(x.Name, sc)
	case query.QualifiedField:
		typ, _ := p.qualified(x, sc)
		return typ
	case query.Wildcard:
		return ir.Unknown()
	case query.Literal:
		return literalType(x)
	case query.FunctionCall:
		return p.call(x, sc)
	case query.BinaryOp:
		p.expr(x.Left, sc)
		p.expr(x.Right, sc)
		if x.Op.IsComparison() || x.Op.IsLogical() {
			return ir.Known(ir.Boolean)
		}
		return ir.Known(ir.Number)
	case query.UnaryOp:
		p.expr(x.Operand, sc)
		if x.Op == query.OpNot {
			return ir.Known(ir.Boolean)
		}
		return ir.Known(ir.Number)
	case query.Between:
		p.expr(x.Expr, sc)
		p.expr(x.Low, sc)
		p.expr(x.High, sc)
		return ir.Known(ir.Boolean)
	case query.In:
		p.expr(x.Expr, sc)
		for _, item := range x.List {
			p.expr(item, sc)
		}
		return ir.Known(ir.Boolean)
	case query.Case:
		return p.caseExpr(x, sc)
	case query.Cast:
		p.expr(x.Expr, sc)
		return typeOfDataType(x.Type)
	case query.Parameter:
		if typ, ok := p.c.params[ir.Fold(x.Name)]; ok {
			return typ
		}
		return ir.Unknown()
	case query.Subquery:
		fields := p.query(x.Query, sc)
		if len(fields) == 1 {
			return fields[0].Type
		}
		return ir.Unknown()
	}
	return ir.Unknown()
}

func literalType(l query.Literal) ir.TypeResolution {
	switch l.Kind {
	case query.LiteralNumber:
		return ir.Known(ir.Number)
	case query.LiteralString:
		return ir.Known(ir.String)
	case query.LiteralBoolean:
		return ir.Known(ir.Boolean)
	case query.LiteralDate:
		return ir.Known(ir.Date)
	case query.LiteralNull, query.LiteralUndefined:
		return ir.Known(ir.Undefined)
	case query.LiteralEmptyReference:
		return ir.Known(ir.Null)
	case query.LiteralPredefined:
		return referenceType(l.Value)
	}
	return ir.Unknown()
}

func (p *pass) call(fc query.FunctionCall, sc *scope) ir.TypeResolution {
	args := make([]ir.TypeResolution, len(fc.Args))
	for i, arg := range fc.Args {
		args[i] = p.expr(arg, sc)
	}
	kind, ok := functions[ir.Fold(fc.Name)]
	if !ok {
		p.c.logger.Debug("unknown function", "name", fc.Name)
		return ir.Unknown()
	}
	if kind == funcCoalesce {
		if len(args) < 2 {
			return ir.Unknown()
		}
		return args[1]
	}
	return kind.result()
}

func (p *pass) caseExpr(c query.Case, sc *scope) ir.TypeResolution {
	var typ ir.TypeResolution
	for i, w := range c.Whens {
		p.condition(w.Condition, sc, "CASE WHEN")
		t := p.expr(w.Result, sc)
		if i == 0 {
			typ = t
		}
	}
	if c.Else != nil {
		t := p.expr(c.Else, sc)
		if len(c.Whens) == 0 {
			typ = t
		}
	}
	return typ
}

// condition checks an expression in a boolean position.
func (p *pass) condition(e query.Expression, sc *scope, location string) {
	typ := p.expr(e, sc)
	if typ.IsKnown() && !typ.Is(ir.Boolean) {
		p.errorf(ErrNotBoolean, location, "condition must be Boolean, got %s", typ)
	}
}

func (p *pass) field(name string, sc *scope) ir.TypeResolution {
	matches, open := sc.field(name)
	switch {
	case len(matches) == 1:
		return matches[0].column.Type
	case len(matches) > 1:
		tables := make([]string, len(matches))
		for i, m := range matches {
			tables[i] = m.table
		}
		p.errorf(ErrAmbiguousField, name, "ambiguous field %s, qualify it with one of: %s",
			name, strings.Join(tables, ", "))
		return matches[0].column.Type
	case open:
		return ir.Unknown()
	}
	p.errorf(ErrFieldNotFound, name, "field %s not found", name)
	return ir.Unknown()
}

// qualified resolves a dotted name. The longest prefix naming a table in
// scope wins; failing that, the first segment may be an unqualified
// field of reference type. It returns the type and the matched table.
func (p *pass) qualified(f query.QualifiedField, sc *scope) (ir.TypeResolution, string) {
	segs := f.Segments()
	location := strings.Join(segs, ".")

	for n := len(segs) - 1; n >= 1; n-- {
		entry, ok := p.tableByPrefix(segs[:n], sc)
		if !ok {
			continue
		}
		col, ok := entry.schema.column(segs[n])
		if !ok {
			if !entry.schema.open {
				p.errorf(ErrFieldNotInTable, location, "field %s not found in %s", segs[n], entry.key)
			}
			return ir.Unknown(), entry.key
		}
		return p.deref(col.Type, segs[n+1:], location), entry.key
	}

	if matches, _ := sc.field(segs[0]); len(matches) > 0 {
		typ := p.field(segs[0], sc)
		return p.deref(typ, segs[1:], location), ""
	}

	p.errorf(ErrTableNotFound, location, "table %s not found", f.Table)
	return ir.Unknown(), ""
}

// tableByPrefix looks a dotted table name up in scope, also trying its
// canonical spelling so that Catalog.X finds Справочник.X.
func (p *pass) tableByPrefix(segs []string, sc *scope) (scopeEntry, bool) {
	if e, ok := sc.table(strings.Join(segs, ".")); ok {
		return e, true
	}
	if len(segs) < 2 || len(segs) > 3 {
		return scopeEntry{}, false
	}
	kind, ok := query.ReferenceKind(segs[0])
	if !ok {
		return scopeEntry{}, false
	}
	section := ""
	if len(segs) == 3 {
		section = segs[2]
	}
	var ref query.TableReference
	switch {
	case kind == ir.KindCatalog:
		ref = query.Catalog{Name: segs[1], Section: section}
	case kind == ir.KindDocument:
		ref = query.Document{Name: segs[1], Section: section}
	case kind.IsRegister() && section == "":
		ref = query.Register{Kind: kind, Name: segs[1]}
	case kind.IsRegister():
		ref = query.VirtualTable{Base: query.Register{Kind: kind, Name: segs[1]}, Name: section}
	default:
		return scopeEntry{}, false
	}
	return sc.table(query.TableName(ref))
}

// deref follows .Attribute segments through reference types.
func (p *pass) deref(typ ir.TypeResolution, path []string, location string) ir.TypeResolution {
	for _, seg := range path {
		if !typ.IsKnown() {
			return ir.Unknown()
		}
		ref, ok := typ.Reference()
		if !ok {
			p.errorf(ErrUnknownDereference, location, "cannot take %s of a %s value", seg, typ)
			return ir.Unknown()
		}
		schema, declared := p.referenceSchema(ref)
		if schema == nil {
			return ir.Unknown()
		}
		col, ok := schema.column(seg)
		if !ok {
			if declared {
				p.errorf(ErrUnknownDereference, location, "%s has no attribute %s", ref, seg)
			}
			return ir.Unknown()
		}
		typ = col.Type
	}
	return typ
}
