package ir

import (
	"fmt"
	"strings"
)

var primitiveNames = map[string]Primitive{
	"число":   Number,
	"number":  Number,
	"строка":  String,
	"string":  String,
	"булево":  Boolean,
	"boolean": Boolean,
	"дата":    Date,
	"date":    Date,
}

var referencePrefixes = map[string]MetadataKind{
	"справочникссылка":   KindCatalog,
	"catalogref":         KindCatalog,
	"документссылка":     KindDocument,
	"documentref":        KindDocument,
	"перечислениессылка": KindEnum,
	"enumref":            KindEnum,
}

// ParseTypeName resolves a metadata type name such as "Строка(25)",
// "Число(15,2)" or "СправочникСсылка.Контрагенты".
//
// Composite types ("Строка, Число") resolve to Unknown without error since
// the resolution contract has no union type. Unrecognized names resolve to
// Unknown with an error.
func ParseTypeName(name string) (TypeResolution, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return Unknown(), fmt.Errorf("empty type name")
	}
	if hasTopLevelComma(s) {
		return Unknown(), nil
	}

	base := s
	if i := strings.IndexByte(base, '('); i >= 0 {
		if !strings.HasSuffix(base, ")") {
			return Unknown(), fmt.Errorf("type %q: unbalanced qualifier", name)
		}
		base = strings.TrimSpace(base[:i])
	}

	if p, ok := primitiveNames[Fold(base)]; ok {
		return Known(p), nil
	}

	prefix, objName, found := strings.Cut(base, ".")
	if found && objName != "" {
		if kind, ok := referencePrefixes[Fold(prefix)]; ok {
			return Known(Configuration{Kind: kind, Name: objName}), nil
		}
	}

	return Unknown(), fmt.Errorf("unrecognized type %q", name)
}

func hasTopLevelComma(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}
