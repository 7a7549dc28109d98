package types

import "strings"

// ColumnKind describes the role a column plays in its table.
type ColumnKind string

const (
	ColumnKindPartitionKey ColumnKind = "partition_key"
	ColumnKindClustering   ColumnKind = "clustering"
	ColumnKindRegular      ColumnKind = "regular"
	ColumnKindStatic       ColumnKind = "static"
)

// TableSchema defines the columns of a table registered in the catalog.
type TableSchema struct {
	// Name is the table name
	Name string `json:"name"`

	// Version tracks schema evolution for backward compatibility
	Version int `json:"version"`

	// Columns defines the columns in the schema
	Columns []ColumnDef `json:"columns"`
}

// ColumnDef defines a single column in the schema.
type ColumnDef struct {
	// Name is the column name
	Name string `json:"name"`

	// Type is the CQL-like type name: text, int, map<text, int>, set<text>, ...
	Type string `json:"type"`

	// Kind is the column role; empty means regular
	Kind ColumnKind `json:"kind,omitempty"`

	// Nullable indicates whether the column can contain NULL values
	Nullable bool `json:"nullable"`
}

// IsCollection reports whether the column holds a map, set or list.
func (c *ColumnDef) IsCollection() bool {
	t := strings.ToLower(strings.TrimSpace(c.Type))
	t = strings.TrimPrefix(t, "frozen<")
	for _, prefix := range []string{"map<", "set<", "list<"} {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}

// IsFrozen reports whether the column type is wrapped in frozen<...>.
func (c *ColumnDef) IsFrozen() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(c.Type)), "frozen<")
}

// EffectiveKind returns Kind, defaulting to regular.
func (c *ColumnDef) EffectiveKind() ColumnKind {
	if c.Kind == "" {
		return ColumnKindRegular
	}
	return c.Kind
}
