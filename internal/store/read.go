package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/bslq/internal/ir"
	"github.com/roach88/bslq/internal/metadata"
)

// Object returns the stored object of the given kind, matching name
// case-insensitively. A missing object reports metadata.ErrNotFound.
func (s *Store) Object(ctx context.Context, kind ir.MetadataKind, name string) (*metadata.Object, error) {
	key := ir.Fold(name)
	obj := &metadata.Object{Kind: kind}
	err := s.db.QueryRowContext(ctx, `
		SELECT name FROM objects WHERE kind = ? AND name_key = ?
	`, string(kind), key).Scan(&obj.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s", metadata.ErrNotFound, kind, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", name, err)
	}

	if err := s.fillObject(ctx, obj, key); err != nil {
		return nil, fmt.Errorf("read object %s: %w", name, err)
	}
	return obj, nil
}

// Objects returns every stored object ordered by kind, then name.
// Returns an empty slice (not nil) for an empty store.
func (s *Store) Objects(ctx context.Context) ([]*metadata.Object, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, name_key, name FROM objects
		ORDER BY kind COLLATE BINARY ASC, name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}

	type row struct {
		obj *metadata.Object
		key string
	}
	var found []row
	for rows.Next() {
		var kind, key, name string
		if err := rows.Scan(&kind, &key, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan object: %w", err)
		}
		found = append(found, row{&metadata.Object{Kind: ir.MetadataKind(kind), Name: name}, key})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate objects: %w", err)
	}
	rows.Close()

	// The single connection must be free before the nested reads.
	objs := make([]*metadata.Object, 0, len(found))
	for _, r := range found {
		if err := s.fillObject(ctx, r.obj, r.key); err != nil {
			return nil, fmt.Errorf("read object %s: %w", r.obj.Name, err)
		}
		objs = append(objs, r.obj)
	}
	return objs, nil
}

// Imports lists recorded import runs, oldest first.
func (s *Store) Imports(ctx context.Context) ([]ImportRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, source, objects, changed FROM imports ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	defer rows.Close()

	records := []ImportRecord{}
	for rows.Next() {
		var rec ImportRecord
		if err := rows.Scan(&rec.ID, &rec.Seq, &rec.Source, &rec.Objects, &rec.Changed); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate imports: %w", err)
	}
	return records, nil
}

func (s *Store) fillObject(ctx context.Context, obj *metadata.Object, key string) error {
	kind := string(obj.Kind)

	sections, err := s.readSections(ctx, kind, key)
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT section, role, name, type FROM attributes
		WHERE kind = ? AND object_key = ?
		ORDER BY section ASC, role COLLATE BINARY ASC, position ASC
	`, kind, key)
	if err != nil {
		return fmt.Errorf("query attributes: %w", err)
	}
	defer rows.Close()

	obj.Attributes = []ir.Attribute{}
	for rows.Next() {
		var (
			section   int
			role      string
			name, typ string
		)
		if err := rows.Scan(&section, &role, &name, &typ); err != nil {
			return fmt.Errorf("scan attribute: %w", err)
		}
		a := ir.Attribute{Name: name, Type: typ}
		switch {
		case section >= 0 && section < len(sections):
			sections[section].Attributes = append(sections[section].Attributes, a)
		case role == roleDimension:
			obj.Dimensions = append(obj.Dimensions, a)
		case role == roleResource:
			obj.Resources = append(obj.Resources, a)
		default:
			obj.Attributes = append(obj.Attributes, a)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate attributes: %w", err)
	}

	if len(sections) > 0 {
		obj.TabularSections = sections
	}
	return nil
}

func (s *Store) readSections(ctx context.Context, kind, key string) ([]ir.TabularSection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sections WHERE kind = ? AND object_key = ? ORDER BY position ASC
	`, kind, key)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	var sections []ir.TabularSection
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, ir.TabularSection{Name: name, Attributes: []ir.Attribute{}})
	}
	return sections, rows.Err()
}

// GetCatalog implements metadata.Provider.
func (s *Store) GetCatalog(name string) (*metadata.Object, error) {
	return s.Object(context.Background(), ir.KindCatalog, name)
}

// GetDocument implements metadata.Provider.
func (s *Store) GetDocument(name string) (*metadata.Object, error) {
	return s.Object(context.Background(), ir.KindDocument, name)
}

// GetRegister implements metadata.Provider.
func (s *Store) GetRegister(kind ir.MetadataKind, name string) (*metadata.Object, error) {
	return s.Object(context.Background(), kind, name)
}

var _ metadata.Provider = (*Store)(nil)
