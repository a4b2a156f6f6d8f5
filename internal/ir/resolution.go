package ir

import (
	"encoding/json"
)

// ConcreteType is a sealed interface over the known value types.
// Only Primitive, Configuration, and Special implement it.
type ConcreteType interface {
	concreteType()
	String() string
}

// Primitive is a scalar value type.
type Primitive int

const (
	Number Primitive = iota + 1
	String
	Boolean
	Date
)

func (Primitive) concreteType() {}

func (p Primitive) String() string {
	switch p {
	case Number:
		return "Number"
	case String:
		return "String"
	case Boolean:
		return "Boolean"
	case Date:
		return "Date"
	default:
		return "Primitive(?)"
	}
}

// Configuration is a reference to a configuration object. Attributes and
// TabularSections are filled in when the schema provider declared them.
type Configuration struct {
	Kind            MetadataKind
	Name            string
	Attributes      []Attribute
	TabularSections []TabularSection
}

func (Configuration) concreteType() {}

func (c Configuration) String() string {
	return c.Kind.refPrefix() + "." + c.Name
}

// Special covers the two value-less types of the language.
type Special int

const (
	Undefined Special = iota + 1
	Null
)

func (Special) concreteType() {}

func (s Special) String() string {
	switch s {
	case Undefined:
		return "Undefined"
	case Null:
		return "Null"
	default:
		return "Special(?)"
	}
}

// TypeResolution is the outcome of typing an expression: either a known
// concrete type or Unknown. Unknown is the gradual-typing escape hatch and
// never by itself produces an error.
//
// The zero value is Unknown.
type TypeResolution struct {
	typ ConcreteType
}

// Known wraps a concrete type. Known(nil) is Unknown.
func Known(t ConcreteType) TypeResolution {
	return TypeResolution{typ: t}
}

// Unknown returns the unresolved type.
func Unknown() TypeResolution {
	return TypeResolution{}
}

// IsKnown reports whether the type was resolved.
func (r TypeResolution) IsKnown() bool {
	return r.typ != nil
}

// Type returns the concrete type, or nil when unknown.
func (r TypeResolution) Type() ConcreteType {
	return r.typ
}

// Is reports whether r is known to be the primitive p.
func (r TypeResolution) Is(p Primitive) bool {
	got, ok := r.typ.(Primitive)
	return ok && got == p
}

// Reference returns the configuration reference, if r is one.
func (r TypeResolution) Reference() (Configuration, bool) {
	c, ok := r.typ.(Configuration)
	return c, ok
}

// Equal compares two resolutions. Configuration types compare by kind and
// folded name; their attribute lists are ignored.
func (r TypeResolution) Equal(other TypeResolution) bool {
	switch a := r.typ.(type) {
	case nil:
		return other.typ == nil
	case Configuration:
		b, ok := other.typ.(Configuration)
		return ok && a.Kind == b.Kind && SameName(a.Name, b.Name)
	case Primitive:
		b, ok := other.typ.(Primitive)
		return ok && a == b
	case Special:
		b, ok := other.typ.(Special)
		return ok && a == b
	}
	return false
}

func (r TypeResolution) String() string {
	if r.typ == nil {
		return "Unknown"
	}
	return r.typ.String()
}

// Canonical returns the resolution as a canonical-JSON-ready map.
func (r TypeResolution) Canonical() map[string]any {
	if r.typ == nil {
		return map[string]any{"known": false}
	}
	m := map[string]any{
		"known": true,
		"type":  r.typ.String(),
	}
	if c, ok := r.typ.(Configuration); ok {
		m["kind"] = string(c.Kind)
		m["name"] = c.Name
	}
	return m
}

// MarshalJSON implements json.Marshaler.
func (r TypeResolution) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Canonical())
}
