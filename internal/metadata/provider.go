// Package metadata describes the configuration objects a query can read:
// catalogs, documents and registers, with their declared attributes.
//
// A Provider answers lookups by kind and name. Static is the in-memory
// implementation, filled by LoadCUE or built by hand in tests; the store
// package provides a persistent one backed by SQLite.
package metadata

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/bslq/internal/ir"
)

// ErrNotFound reports that a provider has no object with the requested
// kind and name. Checkers treat it as "use built-in columns only".
var ErrNotFound = errors.New("metadata object not found")

// Object is a declared configuration object.
type Object struct {
	Kind            ir.MetadataKind     `json:"kind" yaml:"kind"`
	Name            string              `json:"name" yaml:"name"`
	Attributes      []ir.Attribute      `json:"attributes" yaml:"attributes"`
	TabularSections []ir.TabularSection `json:"tabular_sections,omitempty" yaml:"tabular_sections"`

	// Registers only.
	Dimensions []ir.Attribute `json:"dimensions,omitempty" yaml:"dimensions"`
	Resources  []ir.Attribute `json:"resources,omitempty" yaml:"resources"`
}

// Lookup finds a dimension, resource or attribute by case-insensitive name,
// in that order.
func (o *Object) Lookup(name string) (ir.Attribute, bool) {
	for _, group := range [][]ir.Attribute{o.Dimensions, o.Resources, o.Attributes} {
		for _, a := range group {
			if ir.SameName(a.Name, name) {
				return a, true
			}
		}
	}
	return ir.Attribute{}, false
}

// Section finds a tabular section by case-insensitive name.
func (o *Object) Section(name string) (ir.TabularSection, bool) {
	for _, ts := range o.TabularSections {
		if ir.SameName(ts.Name, name) {
			return ts, true
		}
	}
	return ir.TabularSection{}, false
}

// Reference returns the reference type of the object's rows.
func (o *Object) Reference() ir.Configuration {
	return ir.Configuration{
		Kind:            o.Kind,
		Name:            o.Name,
		Attributes:      o.Attributes,
		TabularSections: o.TabularSections,
	}
}

// Provider answers metadata lookups. Every method returns ErrNotFound
// (possibly wrapped) for an undeclared object.
type Provider interface {
	GetCatalog(name string) (*Object, error)
	GetDocument(name string) (*Object, error)
	GetRegister(kind ir.MetadataKind, name string) (*Object, error)
}

// Get dispatches a lookup on kind. Kinds without a provider method, such
// as enums, report ErrNotFound.
func Get(p Provider, kind ir.MetadataKind, name string) (*Object, error) {
	switch {
	case kind == ir.KindCatalog:
		return p.GetCatalog(name)
	case kind == ir.KindDocument:
		return p.GetDocument(name)
	case kind.IsRegister():
		return p.GetRegister(kind, name)
	}
	return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, name)
}

type objectKey struct {
	kind ir.MetadataKind
	name string
}

// Static is an in-memory Provider. It is safe for concurrent lookups once
// populated.
type Static struct {
	objects map[objectKey]*Object
}

// NewStatic returns a provider holding objs.
func NewStatic(objs ...*Object) *Static {
	s := &Static{objects: make(map[objectKey]*Object, len(objs))}
	for _, obj := range objs {
		s.Add(obj)
	}
	return s
}

// Add declares obj, replacing any object of the same kind and name.
func (s *Static) Add(obj *Object) {
	s.objects[objectKey{obj.Kind, ir.Fold(obj.Name)}] = obj
}

// Objects returns all objects ordered by kind, then name.
func (s *Static) Objects() []*Object {
	objs := make([]*Object, 0, len(s.objects))
	for _, obj := range s.objects {
		objs = append(objs, obj)
	}
	sort.Slice(objs, func(i, j int) bool {
		if objs[i].Kind != objs[j].Kind {
			return objs[i].Kind < objs[j].Kind
		}
		return objs[i].Name < objs[j].Name
	})
	return objs
}

func (s *Static) get(kind ir.MetadataKind, name string) (*Object, error) {
	if obj, ok := s.objects[objectKey{kind, ir.Fold(name)}]; ok {
		return obj, nil
	}
	return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, name)
}

func (s *Static) GetCatalog(name string) (*Object, error) {
	return s.get(ir.KindCatalog, name)
}

func (s *Static) GetDocument(name string) (*Object, error) {
	return s.get(ir.KindDocument, name)
}

func (s *Static) GetRegister(kind ir.MetadataKind, name string) (*Object, error) {
	return s.get(kind, name)
}
