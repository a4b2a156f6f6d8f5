package metadata

import "github.com/roach88/bslq/internal/ir"

// Column is a typed column of a table as a query sees it.
type Column struct {
	Name string
	Type ir.TypeResolution
}

// Standard column names.
const (
	ColumnRef           = "Ссылка"
	ColumnCode          = "Код"
	ColumnDescription   = "Наименование"
	ColumnDeletionMark  = "ПометкаУдаления"
	ColumnNumber        = "Номер"
	ColumnDate          = "Дата"
	ColumnPosted        = "Проведен"
	ColumnPeriod        = "Период"
	ColumnRecorder      = "Регистратор"
	ColumnActive        = "Активность"
	ColumnLineNumber    = "НомерСтроки"
	DefaultResourceName = "Количество"
)

// BuiltinColumns returns the columns every object of the given kind has
// regardless of declared attributes. name is the object's own name and
// types its Ссылка column.
func BuiltinColumns(kind ir.MetadataKind, name string) []Column {
	ref := ir.Known(ir.Configuration{Kind: kind, Name: name})
	switch {
	case kind == ir.KindCatalog:
		return []Column{
			{ColumnRef, ref},
			{ColumnCode, ir.Known(ir.String)},
			{ColumnDescription, ir.Known(ir.String)},
			{ColumnDeletionMark, ir.Known(ir.Boolean)},
		}
	case kind == ir.KindDocument:
		return []Column{
			{ColumnRef, ref},
			{ColumnNumber, ir.Known(ir.String)},
			{ColumnDate, ir.Known(ir.Date)},
			{ColumnPosted, ir.Known(ir.Boolean)},
		}
	case kind.IsRegister():
		// The recorder may be any document, so its type stays open.
		return []Column{
			{ColumnPeriod, ir.Known(ir.Date)},
			{ColumnRecorder, ir.Unknown()},
			{ColumnActive, ir.Known(ir.Boolean)},
		}
	}
	return nil
}

// SectionColumns returns the built-in columns of a tabular section of
// the owner object.
func SectionColumns(owner ir.MetadataKind, ownerName string) []Column {
	return []Column{
		{ColumnRef, ir.Known(ir.Configuration{Kind: owner, Name: ownerName})},
		{ColumnLineNumber, ir.Known(ir.Number)},
	}
}

// IsBuiltin reports whether name collides with a built-in column of kind.
func IsBuiltin(kind ir.MetadataKind, name string) bool {
	for _, c := range BuiltinColumns(kind, "") {
		if ir.SameName(c.Name, name) {
			return true
		}
	}
	return false
}
