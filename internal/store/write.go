package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/bslq/internal/ir"
	"github.com/roach88/bslq/internal/metadata"
)

// ImportRecord describes one Import run.
type ImportRecord struct {
	ID      string `json:"id"`
	Seq     int64  `json:"seq"`
	Source  string `json:"source"`
	Objects int    `json:"objects"`
	Changed int    `json:"changed"`
}

// PutObject stores obj, replacing any object with the same kind and
// folded name together with all of its sections and attributes. It
// reports whether anything changed; writing identical content is a no-op.
func (s *Store) PutObject(ctx context.Context, obj *metadata.Object) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("put object: begin: %w", err)
	}
	defer tx.Rollback()

	changed, err := putObject(ctx, tx, obj)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("put object: commit: %w", err)
	}
	return changed, nil
}

// Import stores every object in one transaction and records the run.
// Either all objects are stored or none are.
func (s *Store) Import(ctx context.Context, source string, objs []*metadata.Object) (ImportRecord, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return ImportRecord{}, fmt.Errorf("import: generate id: %w", err)
	}
	rec := ImportRecord{ID: id.String(), Source: source, Objects: len(objs)}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportRecord{}, fmt.Errorf("import: begin: %w", err)
	}
	defer tx.Rollback()

	for _, obj := range objs {
		changed, err := putObject(ctx, tx, obj)
		if err != nil {
			return ImportRecord{}, fmt.Errorf("import: %w", err)
		}
		if changed {
			rec.Changed++
		}
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM imports`).Scan(&rec.Seq); err != nil {
		return ImportRecord{}, fmt.Errorf("import: next seq: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO imports (id, seq, source, objects, changed)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.Seq, rec.Source, rec.Objects, rec.Changed)
	if err != nil {
		return ImportRecord{}, fmt.Errorf("import: record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ImportRecord{}, fmt.Errorf("import: commit: %w", err)
	}
	return rec, nil
}

func putObject(ctx context.Context, tx *sql.Tx, obj *metadata.Object) (bool, error) {
	if obj == nil || obj.Name == "" {
		return false, fmt.Errorf("put object: name is required")
	}
	fp, err := objectFingerprint(obj)
	if err != nil {
		return false, fmt.Errorf("put object %s: %w", obj.Name, err)
	}

	kind := string(obj.Kind)
	key := ir.Fold(obj.Name)

	var existing string
	err = tx.QueryRowContext(ctx, `
		SELECT fingerprint FROM objects WHERE kind = ? AND name_key = ?
	`, kind, key).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return false, fmt.Errorf("put object %s: %w", obj.Name, err)
	case existing == fp:
		return false, nil
	}

	for _, stmt := range []string{
		`DELETE FROM attributes WHERE kind = ? AND object_key = ?`,
		`DELETE FROM sections WHERE kind = ? AND object_key = ?`,
		`DELETE FROM objects WHERE kind = ? AND name_key = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, kind, key); err != nil {
			return false, fmt.Errorf("put object %s: clear: %w", obj.Name, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO objects (kind, name_key, name, fingerprint) VALUES (?, ?, ?, ?)
	`, kind, key, obj.Name, fp)
	if err != nil {
		return false, fmt.Errorf("put object %s: %w", obj.Name, err)
	}

	groups := []struct {
		role  string
		attrs []ir.Attribute
	}{
		{roleAttribute, obj.Attributes},
		{roleDimension, obj.Dimensions},
		{roleResource, obj.Resources},
	}
	for _, g := range groups {
		if err := insertAttributes(ctx, tx, kind, key, -1, g.role, g.attrs); err != nil {
			return false, fmt.Errorf("put object %s: %w", obj.Name, err)
		}
	}

	for i, ts := range obj.TabularSections {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sections (kind, object_key, position, name) VALUES (?, ?, ?, ?)
		`, kind, key, i, ts.Name)
		if err != nil {
			return false, fmt.Errorf("put object %s: section %s: %w", obj.Name, ts.Name, err)
		}
		if err := insertAttributes(ctx, tx, kind, key, i, roleAttribute, ts.Attributes); err != nil {
			return false, fmt.Errorf("put object %s: section %s: %w", obj.Name, ts.Name, err)
		}
	}
	return true, nil
}

const (
	roleAttribute = "attribute"
	roleDimension = "dimension"
	roleResource  = "resource"
)

func insertAttributes(ctx context.Context, tx *sql.Tx, kind, key string, section int, role string, attrs []ir.Attribute) error {
	for i, a := range attrs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO attributes (kind, object_key, section, role, position, name, type)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, kind, key, section, role, i, a.Name, a.Type)
		if err != nil {
			return fmt.Errorf("attribute %s: %w", a.Name, err)
		}
	}
	return nil
}

// objectFingerprint hashes the canonical form of obj.
func objectFingerprint(obj *metadata.Object) (string, error) {
	attrs := func(as []ir.Attribute) []any {
		out := make([]any, len(as))
		for i, a := range as {
			out[i] = map[string]any{"name": a.Name, "type": a.Type}
		}
		return out
	}
	sections := make([]any, len(obj.TabularSections))
	for i, ts := range obj.TabularSections {
		sections[i] = map[string]any{"name": ts.Name, "attributes": attrs(ts.Attributes)}
	}
	return ir.Fingerprint(ir.DomainMetadata, map[string]any{
		"kind":             string(obj.Kind),
		"name":             obj.Name,
		"attributes":       attrs(obj.Attributes),
		"dimensions":       attrs(obj.Dimensions),
		"resources":        attrs(obj.Resources),
		"tabular_sections": sections,
	})
}
