package checker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/bslq/internal/ir"
	"github.com/roach88/bslq/internal/metadata"
	"github.com/roach88/bslq/internal/query"
)

// Virtual table names, folded, by the projection they produce.
var (
	vtBalance                  = names("Остатки", "Balance")
	vtTurnovers                = names("Обороты", "Turnovers")
	vtBalanceAndTurnovers      = names("ОстаткиИОбороты", "BalanceAndTurnovers")
	vtSlice                    = names("СрезПоследних", "SliceLast", "СрезПервых", "SliceFirst")
	vtRecordsWithExtDimensions = names("ДвиженияССубконто", "RecordsWithExtDimensions")
)

func names(ns ...string) map[string]bool {
	m := make(map[string]bool, len(ns))
	for _, n := range ns {
		m[ir.Fold(n)] = true
	}
	return m
}

// lookup asks the provider for an object. A nil object with no error
// means nothing is declared; any other failure has been reported.
// Failures are remembered per pass but reported once per statement.
func (p *pass) lookup(kind ir.MetadataKind, name string) *metadata.Object {
	if p.c.provider == nil {
		return nil
	}
	key := string(kind) + "\x00" + ir.Fold(name)
	if m, ok := p.objects[key]; ok {
		if m.err != nil && !p.reported[key] {
			p.unavailable(key, name, m.err)
		}
		return m.obj
	}

	obj, err := metadata.Get(p.c.provider, kind, name)
	switch {
	case err == nil:
	case errors.Is(err, metadata.ErrNotFound):
		p.c.logger.Debug("metadata not declared", "kind", kind, "name", name)
		obj, err = nil, nil
	default:
		p.c.logger.Warn("metadata provider failed", "kind", kind, "name", name, "error", err)
		obj = nil
		p.unavailable(key, name, err)
	}
	p.objects[key] = memo{obj: obj, err: err}
	return obj
}

func (p *pass) unavailable(key, name string, err error) {
	p.reported[key] = true
	p.errorf(ErrSchemaUnavailable, name, "schema unavailable for %s: %v", name, err)
}

func attributeColumns(attrs []ir.Attribute) []metadata.Column {
	cols := make([]metadata.Column, 0, len(attrs))
	for _, a := range attrs {
		typ, err := ir.ParseTypeName(a.Type)
		if err != nil {
			typ = ir.Unknown()
		}
		cols = append(cols, metadata.Column{Name: a.Name, Type: typ})
	}
	return cols
}

// objectSchema is the column set of a catalog, document or register:
// built-in columns followed by declared ones.
func (p *pass) objectSchema(kind ir.MetadataKind, name string) (*tableSchema, *metadata.Object) {
	t := newSchema(metadata.BuiltinColumns(kind, name)...)
	obj := p.lookup(kind, name)
	if obj == nil {
		return t, nil
	}
	for _, group := range [][]ir.Attribute{obj.Dimensions, obj.Resources, obj.Attributes} {
		for _, c := range attributeColumns(group) {
			t.add(c.Name, c.Type)
		}
	}
	for _, ts := range obj.TabularSections {
		// A tabular section selected as a field is a nested table.
		t.add(ts.Name, ir.Unknown())
	}
	return t, obj
}

func (p *pass) sectionSchema(kind ir.MetadataKind, owner, section string) *tableSchema {
	t := newSchema(metadata.SectionColumns(kind, owner)...)
	obj := p.lookup(kind, owner)
	if obj == nil {
		return t
	}
	ts, ok := obj.Section(section)
	if !ok {
		p.errorf(ErrTableNotFound, owner+"."+section, "tabular section %s not found in %s", section, owner)
		t.open = true
		return t
	}
	for _, c := range attributeColumns(ts.Attributes) {
		t.add(c.Name, c.Type)
	}
	return t
}

func (p *pass) virtualSchema(vt query.VirtualTable, outer *scope) *tableSchema {
	reg := vt.Base
	obj := p.lookup(reg.Kind, reg.Name)

	dims := []metadata.Column{}
	resources := []string{metadata.DefaultResourceName}
	var attrs []metadata.Column
	if obj != nil {
		dims = attributeColumns(obj.Dimensions)
		resources = resources[:0]
		for _, r := range obj.Resources {
			resources = append(resources, r.Name)
		}
		attrs = attributeColumns(obj.Attributes)
	}

	number := ir.Known(ir.Number)
	t := newSchema()
	name := ir.Fold(vt.Name)
	switch {
	case vtBalance[name]:
		addAll(t, dims)
		for _, r := range resources {
			t.add(r+"Остаток", number)
		}
	case vtTurnovers[name]:
		addAll(t, dims)
		for _, r := range resources {
			t.add(r+"Приход", number)
			t.add(r+"Расход", number)
			t.add(r+"Оборот", number)
		}
	case vtBalanceAndTurnovers[name]:
		addAll(t, dims)
		for _, r := range resources {
			t.add(r+"НачальныйОстаток", number)
			t.add(r+"Приход", number)
			t.add(r+"Расход", number)
			t.add(r+"Оборот", number)
			t.add(r+"КонечныйОстаток", number)
		}
	case vtSlice[name]:
		t.add(metadata.ColumnPeriod, ir.Known(ir.Date))
		addAll(t, dims)
		if obj != nil {
			addAll(t, attributeColumns(obj.Resources))
		}
		addAll(t, attrs)
	case vtRecordsWithExtDimensions[name]:
		t.add(metadata.ColumnPeriod, ir.Known(ir.Date))
		t.add(metadata.ColumnRecorder, ir.Unknown())
		addAll(t, dims)
		if obj != nil {
			addAll(t, attributeColumns(obj.Resources))
		}
		addAll(t, attrs)
	default:
		p.errorf(ErrUnknownVirtual, query.TableName(vt), "unknown virtual table %s of %s", vt.Name, query.TableName(reg))
		t.open = true
		return t
	}

	// Parameters see the register's own columns.
	params := newScope(outer)
	full, _ := p.objectSchema(reg.Kind, reg.Name)
	params.add(query.TableName(reg), full)
	for _, param := range vt.Params {
		if param.Value != nil {
			p.expr(param.Value, params)
		}
	}
	return t
}

func addAll(t *tableSchema, cols []metadata.Column) {
	for _, c := range cols {
		t.add(c.Name, c.Type)
	}
}

// resultSchema turns the fields of a checked query into a table.
func resultSchema(fields []ResultField) *tableSchema {
	t := newSchema()
	for _, f := range fields {
		t.add(f.Name, f.Type)
	}
	return t
}

// tableSchemaFor resolves the columns of one FROM source.
func (p *pass) tableSchemaFor(ref query.TableReference, outer *scope) *tableSchema {
	switch t := ref.(type) {
	case query.Catalog:
		if t.Section != "" {
			return p.sectionSchema(ir.KindCatalog, t.Name, t.Section)
		}
		s, _ := p.objectSchema(ir.KindCatalog, t.Name)
		return s
	case query.Document:
		if t.Section != "" {
			return p.sectionSchema(ir.KindDocument, t.Name, t.Section)
		}
		s, _ := p.objectSchema(ir.KindDocument, t.Name)
		return s
	case query.Register:
		s, _ := p.objectSchema(t.Kind, t.Name)
		return s
	case query.VirtualTable:
		return p.virtualSchema(t, outer)
	case query.SubqueryTable:
		return resultSchema(p.query(t.Query, nil))
	case query.Table:
		if s, ok := p.temps[ir.Fold(t.Name)]; ok {
			return s
		}
		s := newSchema()
		if p.batch {
			p.errorf(ErrUnknownTempTable, t.Name, "unknown temp table %s", t.Name)
			s.open = true
		}
		return s
	}
	return newSchema()
}

// referenceSchema is the column set reachable through a value of
// reference type, or nil when nothing is known about it.
func (p *pass) referenceSchema(ref ir.Configuration) (*tableSchema, bool) {
	switch {
	case ref.Kind == ir.KindCatalog, ref.Kind == ir.KindDocument, ref.Kind.IsRegister():
		s, obj := p.objectSchema(ref.Kind, ref.Name)
		return s, obj != nil
	}
	return nil, false
}

// typeOfDataType maps a ВЫРАЗИТЬ target.
func typeOfDataType(dt query.DataType) ir.TypeResolution {
	switch dt.Kind {
	case query.TypeNumber:
		return ir.Known(ir.Number)
	case query.TypeString:
		return ir.Known(ir.String)
	case query.TypeDate:
		return ir.Known(ir.Date)
	case query.TypeBoolean:
		return ir.Known(ir.Boolean)
	case query.TypeReference:
		return referenceType(dt.Reference)
	}
	return ir.Unknown()
}

// referenceType maps "Справочник.X" (or a longer path whose first two
// segments name the object) to its reference type.
func referenceType(path string) ir.TypeResolution {
	segs := strings.Split(path, ".")
	if len(segs) < 2 {
		return ir.Unknown()
	}
	kind, ok := query.ReferenceKind(segs[0])
	if !ok {
		return ir.Unknown()
	}
	return ir.Known(ir.Configuration{Kind: kind, Name: segs[1]})
}

func (p *pass) errorf(code, location, format string, args ...any) {
	p.errs = append(p.errs, QueryError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Location: location,
	})
}
