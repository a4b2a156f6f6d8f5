package ir

// MetadataKind names a class of configuration object.
type MetadataKind string

const (
	KindCatalog              MetadataKind = "catalog"
	KindDocument             MetadataKind = "document"
	KindEnum                 MetadataKind = "enum"
	KindInformationRegister  MetadataKind = "information_register"
	KindAccumulationRegister MetadataKind = "accumulation_register"
	KindAccountingRegister   MetadataKind = "accounting_register"
	KindCalculationRegister  MetadataKind = "calculation_register"
	KindTabularSection       MetadataKind = "tabular_section"
)

// RegisterKinds lists the register kinds in declaration order.
var RegisterKinds = []MetadataKind{
	KindInformationRegister,
	KindAccumulationRegister,
	KindAccountingRegister,
	KindCalculationRegister,
}

// IsRegister reports whether k is one of the register kinds.
func (k MetadataKind) IsRegister() bool {
	switch k {
	case KindInformationRegister, KindAccumulationRegister, KindAccountingRegister, KindCalculationRegister:
		return true
	}
	return false
}

// refPrefix is the English reference-type prefix used in type names.
func (k MetadataKind) refPrefix() string {
	switch k {
	case KindCatalog:
		return "CatalogRef"
	case KindDocument:
		return "DocumentRef"
	case KindEnum:
		return "EnumRef"
	case KindTabularSection:
		return "TabularSection"
	case KindInformationRegister:
		return "InformationRegister"
	case KindAccumulationRegister:
		return "AccumulationRegister"
	case KindAccountingRegister:
		return "AccountingRegister"
	case KindCalculationRegister:
		return "CalculationRegister"
	default:
		return string(k)
	}
}

// Attribute is a declared attribute of a configuration object.
// Type is the metadata type name as written, e.g. "Строка(25)".
type Attribute struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TabularSection is a named nested table of a catalog or document.
type TabularSection struct {
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes"`
}
