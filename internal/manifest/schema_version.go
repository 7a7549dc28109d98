package manifest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	serrors "github.com/arkilian/sindex/internal/errors"
	"github.com/arkilian/sindex/internal/index/target"
	"github.com/arkilian/sindex/internal/notify"
	"github.com/arkilian/sindex/internal/schema"
	"github.com/arkilian/sindex/pkg/types"
)

// SchemaVersionManager tracks the schema history of catalog tables.
// Registering a changed schema increments the table version; indexes keep
// their stored targets and are re-resolved against the new columns.
type SchemaVersionManager struct {
	catalog *SQLiteCatalog
}

// NewSchemaVersionManager creates a new schema version manager using the catalog's database.
func NewSchemaVersionManager(catalog *SQLiteCatalog) *SchemaVersionManager {
	return &SchemaVersionManager{catalog: catalog}
}

// SchemaVersionRecord represents a stored schema version.
type SchemaVersionRecord struct {
	Table     string            `json:"table"`
	Version   int               `json:"version"`
	Schema    types.TableSchema `json:"schema"`
	CreatedAt time.Time         `json:"created_at"`
}

// GetCurrentVersion returns the latest schema version of a table.
// Returns 0 if the table has no registered versions.
func (m *SchemaVersionManager) GetCurrentVersion(ctx context.Context, table string) (int, error) {
	return currentVersion(ctx, m.catalog.readDB, table)
}

func currentVersion(ctx context.Context, q queryer, table string) (int, error) {
	var version int
	err := q.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM table_versions WHERE table_name = ?", table,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("schema_version: failed to get current version: %w", err)
	}
	return version, nil
}

// GetSchemaVersion retrieves a specific schema version record.
func (m *SchemaVersionManager) GetSchemaVersion(ctx context.Context, table string, version int) (*SchemaVersionRecord, error) {
	return schemaVersion(ctx, m.catalog.readDB, table, version)
}

func schemaVersion(ctx context.Context, q queryer, table string, version int) (*SchemaVersionRecord, error) {
	var schemaJSON string
	var createdAtUnix int64

	err := q.QueryRowContext(ctx,
		"SELECT schema_json, created_at FROM table_versions WHERE table_name = ? AND version = ?",
		table, version,
	).Scan(&schemaJSON, &createdAtUnix)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, serrors.NewCatalogError(serrors.CodeTableNotFound,
				fmt.Sprintf("table %s has no version %d", table, version), nil)
		}
		return nil, fmt.Errorf("schema_version: failed to get version %d: %w", version, err)
	}

	rec := &SchemaVersionRecord{Table: table, Version: version, CreatedAt: time.Unix(createdAtUnix, 0)}
	if err := json.Unmarshal([]byte(schemaJSON), &rec.Schema); err != nil {
		return nil, fmt.Errorf("schema_version: failed to unmarshal schema for version %d: %w", version, err)
	}
	return rec, nil
}

// RegisterSchema registers a new schema for an existing table. If the columns
// differ from the current version, a new version is created with an
// incremented version number. Otherwise the current version is returned.
func (m *SchemaVersionManager) RegisterSchema(ctx context.Context, s *types.TableSchema) (int, error) {
	table, err := schema.NewTable(s)
	if err != nil {
		return 0, err
	}

	c := m.catalog
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := currentVersion(ctx, c.db, table.Name())
	if err != nil {
		return 0, err
	}
	if current == 0 {
		return 0, serrors.NewCatalogError(serrors.CodeTableNotFound,
			fmt.Sprintf("table %s not found", table.Name()), nil)
	}

	rec, err := schemaVersion(ctx, c.db, table.Name(), current)
	if err != nil {
		return 0, err
	}
	if columnsEqual(rec.Schema.Columns, table.Columns()) {
		return current, nil
	}

	next := current + 1
	updated := table.Schema()
	updated.Version = next
	data, err := json.Marshal(updated)
	if err != nil {
		return 0, fmt.Errorf("schema_version: failed to marshal schema: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("schema_version: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO table_versions (table_name, version, schema_json, created_at) VALUES (?, ?, ?, ?)",
		table.Name(), next, string(data), time.Now().Unix(),
	); err != nil {
		return 0, fmt.Errorf("schema_version: failed to insert version %d: %w", next, err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE tables SET schema_json = ?, version = ? WHERE name = ?",
		string(data), next, table.Name(),
	); err != nil {
		return 0, fmt.Errorf("schema_version: failed to update table: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("schema_version: failed to commit: %w", err)
	}

	log.Printf("manifest: table %s moved to schema version %d", table.Name(), next)
	c.publish(notify.SchemaChanged, table.Name(), "")
	return next, nil
}

// ListVersions returns all registered versions of a table ordered by version number.
func (m *SchemaVersionManager) ListVersions(ctx context.Context, table string) ([]SchemaVersionRecord, error) {
	rows, err := m.catalog.readDB.QueryContext(ctx,
		"SELECT version, schema_json, created_at FROM table_versions WHERE table_name = ? ORDER BY version ASC",
		table,
	)
	if err != nil {
		return nil, fmt.Errorf("schema_version: failed to list versions: %w", err)
	}
	defer rows.Close()

	var records []SchemaVersionRecord
	for rows.Next() {
		var schemaJSON string
		var createdAtUnix int64
		rec := SchemaVersionRecord{Table: table}

		if err := rows.Scan(&rec.Version, &schemaJSON, &createdAtUnix); err != nil {
			return nil, fmt.Errorf("schema_version: failed to scan version: %w", err)
		}
		if err := json.Unmarshal([]byte(schemaJSON), &rec.Schema); err != nil {
			return nil, fmt.Errorf("schema_version: failed to unmarshal schema: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAtUnix, 0)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schema_version: error iterating versions: %w", err)
	}
	return records, nil
}

// GetColumnDiff returns the columns added and removed between two versions of a table.
func (m *SchemaVersionManager) GetColumnDiff(ctx context.Context, table string, oldVersion, newVersion int) (added, removed []types.ColumnDef, err error) {
	oldRecord, err := m.GetSchemaVersion(ctx, table, oldVersion)
	if err != nil {
		return nil, nil, err
	}
	newRecord, err := m.GetSchemaVersion(ctx, table, newVersion)
	if err != nil {
		return nil, nil, err
	}

	oldCols := make(map[string]bool, len(oldRecord.Schema.Columns))
	for _, col := range oldRecord.Schema.Columns {
		oldCols[col.Name] = true
	}
	newCols := make(map[string]bool, len(newRecord.Schema.Columns))
	for _, col := range newRecord.Schema.Columns {
		newCols[col.Name] = true
		if !oldCols[col.Name] {
			added = append(added, col)
		}
	}
	for _, col := range oldRecord.Schema.Columns {
		if !newCols[col.Name] {
			removed = append(removed, col)
		}
	}
	return added, removed, nil
}

// InvalidIndexes returns the indexes of a table whose stored target no longer
// resolves against the current schema, keyed by index name.
func (m *SchemaVersionManager) InvalidIndexes(ctx context.Context, table string) (map[string]error, error) {
	t, err := m.catalog.GetTable(ctx, table)
	if err != nil {
		return nil, err
	}
	indexes, err := m.catalog.ListIndexes(ctx, table)
	if err != nil {
		return nil, err
	}

	invalid := make(map[string]error)
	for _, im := range indexes {
		if _, err := target.DecodeIndex(t, im); err != nil {
			invalid[im.Name] = err
		}
	}
	return invalid, nil
}

// columnsEqual compares two column lists for structural equality.
func columnsEqual(a, b []types.ColumnDef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name ||
			a[i].Type != b[i].Type ||
			a[i].Nullable != b[i].Nullable ||
			a[i].EffectiveKind() != b[i].EffectiveKind() {
			return false
		}
	}
	return true
}
