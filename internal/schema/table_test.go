package schema

import (
	"errors"
	"testing"

	serrors "github.com/arkilian/sindex/internal/errors"
	"github.com/arkilian/sindex/pkg/types"
)

func testSchema() *types.TableSchema {
	return &types.TableSchema{
		Name:    "events",
		Version: 1,
		Columns: []types.ColumnDef{
			{Name: "tenant_id", Type: "text", Kind: types.ColumnKindPartitionKey},
			{Name: "event_time", Type: "bigint", Kind: types.ColumnKindClustering},
			{Name: "tags", Type: "map<text, text>"},
			{Name: "Payload", Type: "text", Nullable: true},
		},
	}
}

func TestNewTable_Resolve(t *testing.T) {
	table, err := NewTable(testSchema())
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	col, err := table.ResolveColumn("tags")
	if err != nil {
		t.Fatalf("ResolveColumn failed: %v", err)
	}
	if col.Name != "tags" || !col.IsCollection() {
		t.Errorf("unexpected column: %+v", col)
	}

	again, _ := table.ResolveColumn("tags")
	if again != col {
		t.Error("resolution should return the same catalog-owned definition")
	}
}

func TestNewTable_ResolveIsCaseSensitive(t *testing.T) {
	table, err := NewTable(testSchema())
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	if _, err := table.ResolveColumn("Payload"); err != nil {
		t.Errorf("exact name should resolve: %v", err)
	}
	_, err = table.ResolveColumn("payload")
	if !errors.Is(err, serrors.ErrColumnNotFound) {
		t.Errorf("expected ColumnNotFound, got %v", err)
	}
}

func TestNewTable_ColumnNotFound(t *testing.T) {
	table, err := NewTable(testSchema())
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	_, err = table.ResolveColumn("missing")
	if !errors.Is(err, serrors.ErrColumnNotFound) {
		t.Fatalf("expected ColumnNotFound, got %v", err)
	}
	if table.HasColumn("missing") {
		t.Error("HasColumn should be false for unknown column")
	}
}

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name   string
		schema *types.TableSchema
	}{
		{"nil", nil},
		{"no name", &types.TableSchema{Columns: []types.ColumnDef{{Name: "a"}}}},
		{"no columns", &types.TableSchema{Name: "t"}},
		{"empty column name", &types.TableSchema{Name: "t", Columns: []types.ColumnDef{{Name: ""}}}},
		{"duplicate", &types.TableSchema{Name: "t", Columns: []types.ColumnDef{{Name: "a"}, {Name: "a"}}}},
		{"invalid utf8 table name", &types.TableSchema{Name: "t\xff", Columns: []types.ColumnDef{{Name: "a"}}}},
		{"invalid utf8 column name", &types.TableSchema{Name: "t", Columns: []types.ColumnDef{{Name: "x\xffy"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.schema)
			if serrors.GetCode(err) != serrors.CodeInvalidSchema {
				t.Errorf("expected INVALID_SCHEMA, got %v", err)
			}
		})
	}
}

func TestTable_ColumnsIsCopy(t *testing.T) {
	s := testSchema()
	table, err := NewTable(s)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	s.Columns[0].Name = "changed"
	if !table.HasColumn("tenant_id") {
		t.Error("table should not alias the input schema")
	}

	cols := table.Columns()
	cols[0].Name = "changed"
	if !table.HasColumn("tenant_id") {
		t.Error("Columns should return a copy")
	}
	if table.Schema().Name != "events" || len(table.Schema().Columns) != 4 {
		t.Error("Schema should round-trip the table")
	}
}
