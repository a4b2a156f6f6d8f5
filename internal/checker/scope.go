package checker

import (
	"github.com/roach88/bslq/internal/ir"
	"github.com/roach88/bslq/internal/metadata"
)

// tableSchema is the column set of one FROM source.
type tableSchema struct {
	columns []metadata.Column
	index   map[string]int

	// open schemas belong to sources that already failed with their own
	// error; a missed lookup is Unknown rather than a second error.
	open bool
}

func newSchema(cols ...metadata.Column) *tableSchema {
	t := &tableSchema{index: make(map[string]int)}
	for _, c := range cols {
		t.add(c.Name, c.Type)
	}
	return t
}

// add appends a column unless one with the same folded name exists.
func (t *tableSchema) add(name string, typ ir.TypeResolution) {
	key := ir.Fold(name)
	if _, ok := t.index[key]; ok {
		return
	}
	t.index[key] = len(t.columns)
	t.columns = append(t.columns, metadata.Column{Name: name, Type: typ})
}

func (t *tableSchema) column(name string) (metadata.Column, bool) {
	if i, ok := t.index[ir.Fold(name)]; ok {
		return t.columns[i], true
	}
	return metadata.Column{}, false
}

type scopeEntry struct {
	key    string
	schema *tableSchema
}

// scope is the ordered set of tables visible to one query level.
// Expression subqueries chain to the enclosing scope.
type scope struct {
	entries []scopeEntry
	index   map[string]int
	parent  *scope
}

func newScope(parent *scope) *scope {
	return &scope{index: make(map[string]int), parent: parent}
}

// add registers a table. It reports false if the key is already taken at
// this level, in which case the first registration stays.
func (s *scope) add(key string, schema *tableSchema) bool {
	k := ir.Fold(key)
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.entries)
	s.entries = append(s.entries, scopeEntry{key: key, schema: schema})
	return true
}

// table finds a table by key, searching enclosing scopes outward.
func (s *scope) table(key string) (scopeEntry, bool) {
	k := ir.Fold(key)
	for sc := s; sc != nil; sc = sc.parent {
		if i, ok := sc.index[k]; ok {
			return sc.entries[i], true
		}
	}
	return scopeEntry{}, false
}

type fieldMatch struct {
	table  string
	column metadata.Column
}

// field finds an unqualified column. It returns the matches of the
// innermost level that has any, and whether some table at that level or
// inside is open.
func (s *scope) field(name string) ([]fieldMatch, bool) {
	open := false
	for sc := s; sc != nil; sc = sc.parent {
		var matches []fieldMatch
		for _, e := range sc.entries {
			if c, ok := e.schema.column(name); ok {
				matches = append(matches, fieldMatch{table: e.key, column: c})
			} else if e.schema.open {
				open = true
			}
		}
		if len(matches) > 0 {
			return matches, open
		}
	}
	return nil, open
}
