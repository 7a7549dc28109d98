// Package schema resolves column names against a registered table schema.
package schema

import (
	"fmt"
	"unicode/utf8"

	serrors "github.com/arkilian/sindex/internal/errors"
	"github.com/arkilian/sindex/pkg/types"
)

// Table is an immutable, resolved view of a types.TableSchema.
// It is safe for concurrent reads.
type Table struct {
	name    string
	version int
	columns []types.ColumnDef
	byName  map[string]int
}

// NewTable validates the schema and builds a lookup table over its columns.
func NewTable(s *types.TableSchema) (*Table, error) {
	if s == nil {
		return nil, serrors.NewValidationError(serrors.CodeInvalidSchema, "schema is nil")
	}
	if s.Name == "" {
		return nil, serrors.NewValidationError(serrors.CodeInvalidSchema, "table name is required")
	}
	if !utf8.ValidString(s.Name) {
		return nil, serrors.NewValidationError(serrors.CodeInvalidSchema,
			fmt.Sprintf("table name %q is not valid UTF-8", s.Name))
	}
	if len(s.Columns) == 0 {
		return nil, serrors.NewValidationError(serrors.CodeInvalidSchema,
			fmt.Sprintf("table %s has no columns", s.Name))
	}

	t := &Table{
		name:    s.Name,
		version: s.Version,
		columns: make([]types.ColumnDef, len(s.Columns)),
		byName:  make(map[string]int, len(s.Columns)),
	}
	copy(t.columns, s.Columns)
	if t.version <= 0 {
		t.version = 1
	}

	for i := range t.columns {
		key := canonicalName(t.columns[i].Name)
		if key == "" {
			return nil, serrors.NewValidationError(serrors.CodeInvalidSchema,
				fmt.Sprintf("table %s: column %d has no name", s.Name, i))
		}
		// Stored targets are JSON, which cannot carry invalid UTF-8.
		if !utf8.ValidString(t.columns[i].Name) {
			return nil, serrors.NewValidationError(serrors.CodeInvalidSchema,
				fmt.Sprintf("table %s: column name %q is not valid UTF-8", s.Name, t.columns[i].Name))
		}
		if _, dup := t.byName[key]; dup {
			return nil, serrors.NewValidationError(serrors.CodeInvalidSchema,
				fmt.Sprintf("table %s: duplicate column %s", s.Name, t.columns[i].Name))
		}
		t.byName[key] = i
	}

	return t, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Version returns the schema version.
func (t *Table) Version() int { return t.version }

// Columns returns a copy of the column definitions in declaration order.
func (t *Table) Columns() []types.ColumnDef {
	out := make([]types.ColumnDef, len(t.columns))
	copy(out, t.columns)
	return out
}

// Schema returns the table as a types.TableSchema.
func (t *Table) Schema() *types.TableSchema {
	return &types.TableSchema{Name: t.name, Version: t.version, Columns: t.Columns()}
}

// ResolveColumn returns the catalog-owned definition of the named column.
// The returned pointer is shared; callers must not modify it.
func (t *Table) ResolveColumn(name string) (*types.ColumnDef, error) {
	i, ok := t.byName[canonicalName(name)]
	if !ok {
		return nil, serrors.ColumnNotFound(name)
	}
	return &t.columns[i], nil
}

// HasColumn reports whether the table defines the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[canonicalName(name)]
	return ok
}

// canonicalName returns the lookup key for a column name. Names compare on
// their UTF-8 bytes, with no case folding or normalization.
func canonicalName(name string) string {
	return name
}
