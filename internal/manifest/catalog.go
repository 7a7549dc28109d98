package manifest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	serrors "github.com/arkilian/sindex/internal/errors"
	"github.com/arkilian/sindex/internal/index/target"
	"github.com/arkilian/sindex/internal/notify"
	"github.com/arkilian/sindex/internal/schema"
	"github.com/arkilian/sindex/pkg/types"
)

// Catalog manages table schemas and index metadata in manifest.db.
type Catalog interface {
	// CreateTable registers a new table schema.
	CreateTable(ctx context.Context, s *types.TableSchema) error

	// GetTable returns the resolved schema of a table.
	GetTable(ctx context.Context, name string) (*schema.Table, error)

	// ListTables returns all table names in lexicographic order.
	ListTables(ctx context.Context) ([]string, error)

	// DropTable removes a table and all of its indexes.
	DropTable(ctx context.Context, name string) error

	// CreateIndex encodes the index targets, validates them against the
	// table schema and registers the index.
	CreateIndex(ctx context.Context, spec IndexSpec) (*types.IndexMetadata, error)

	// GetIndex retrieves an index by table and name.
	GetIndex(ctx context.Context, table, name string) (*types.IndexMetadata, error)

	// ListIndexes returns the indexes of a table ordered by name.
	ListIndexes(ctx context.Context, table string) ([]*types.IndexMetadata, error)

	// DropIndex removes an index from the registry.
	DropIndex(ctx context.Context, table, name string) error

	// ResolveIndex decodes the stored target of an index against the current table schema.
	ResolveIndex(ctx context.Context, table, name string) (*target.Description, error)

	// LocalIndexes returns the indexes of a table whose stored target is local.
	// Columns are not resolved.
	LocalIndexes(ctx context.Context, table string) ([]*types.IndexMetadata, error)

	// Export returns the full catalog content.
	Export(ctx context.Context) (*Snapshot, error)

	// Import replaces the catalog content with a snapshot.
	Import(ctx context.Context, snap *Snapshot) error

	// Close closes the catalog database connection.
	Close() error
}

// IndexSpec describes an index to create. Targets takes precedence over
// Target; exactly one of them must be set.
type IndexSpec struct {
	Table   string
	Name    string
	Kind    types.IndexKind
	Targets []target.Ref
	// Target is a raw descriptor, used when Targets is empty.
	Target string
	// Mode turns a single bare column into a function-form target. When
	// empty, the legacy index_keys, index_values and index_keys_and_values
	// options are consulted instead.
	Mode    target.Mode
	Options map[string]string
}

// Snapshot is the exported content of a catalog. Versions holds the schema
// history ordered by table and version; snapshots written without it import
// with only the current version of each table.
type Snapshot struct {
	Version   int                   `json:"version"`
	CreatedAt time.Time             `json:"created_at"`
	Tables    []types.TableSchema   `json:"tables"`
	Indexes   []types.IndexMetadata `json:"indexes"`
	Versions  []SchemaVersionRecord `json:"versions,omitempty"`
}

// SnapshotVersion is the current Snapshot format version.
const SnapshotVersion = 1

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db     *sql.DB // Write connection (single writer)
	readDB *sql.DB // Read connection pool (concurrent readers)
	dbPath string
	mu     sync.Mutex // Write-only lock (reads don't need this)

	notifier *notify.Notifier
}

// SetNotifier makes the catalog publish an event after every committed
// change. It must be called before the catalog is shared.
func (c *SQLiteCatalog) SetNotifier(n *notify.Notifier) {
	c.notifier = n
}

func (c *SQLiteCatalog) publish(t notify.EventType, table, index string) {
	c.notifier.Publish(notify.Event{Type: t, Table: table, Index: index})
}

// NewCatalog creates a new SQLite-based catalog.
func NewCatalog(dbPath string) (*SQLiteCatalog, error) {
	// Write connection: single writer with WAL mode
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	catalog := &SQLiteCatalog{
		db:     db,
		dbPath: dbPath,
	}

	// The schema must exist before the read-only pool connects.
	if err := catalog.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest: failed to initialize schema: %w", err)
	}

	readDB, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&mode=ro")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest: failed to open read database: %w", err)
	}
	readDB.SetMaxOpenConns(4)
	readDB.SetMaxIdleConns(4)
	readDB.SetConnMaxLifetime(5 * time.Minute)
	catalog.readDB = readDB

	return catalog, nil
}

// initSchema creates all required tables and indexes.
func (c *SQLiteCatalog) initSchema() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, stmt := range AllSchemaSQL() {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// CreateTable registers a new table schema.
func (c *SQLiteCatalog) CreateTable(ctx context.Context, s *types.TableSchema) error {
	table, err := schema.NewTable(s)
	if err != nil {
		return err
	}

	data, err := json.Marshal(table.Schema())
	if err != nil {
		return fmt.Errorf("manifest: failed to marshal schema: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("manifest: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertTable(ctx, tx, table.Name(), string(data), table.Version()); err != nil {
		if isConstraintViolation(err) {
			return serrors.NewCatalogError(serrors.CodeTableExists,
				fmt.Sprintf("table %s already exists", table.Name()), nil)
		}
		return fmt.Errorf("manifest: failed to insert table: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("manifest: failed to commit: %w", err)
	}

	log.Printf("manifest: registered table %s (%d columns)", table.Name(), len(table.Columns()))
	c.publish(notify.TableCreated, table.Name(), "")
	return nil
}

// insertTable writes a table row together with its first history entry.
func insertTable(ctx context.Context, tx *sql.Tx, name, schemaJSON string, version int) error {
	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tables (name, schema_json, version, created_at) VALUES (?, ?, ?, ?)`,
		name, schemaJSON, version, now); err != nil {
		return err
	}
	return insertVersion(ctx, tx, name, version, schemaJSON, now)
}

func insertVersion(ctx context.Context, tx *sql.Tx, name string, version int, schemaJSON string, createdAt int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO table_versions (table_name, version, schema_json, created_at) VALUES (?, ?, ?, ?)`,
		name, version, schemaJSON, createdAt)
	return err
}

// GetTable returns the resolved schema of a table.
func (c *SQLiteCatalog) GetTable(ctx context.Context, name string) (*schema.Table, error) {
	return getTable(ctx, c.readDB, name)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getTable(ctx context.Context, q queryer, name string) (*schema.Table, error) {
	var data string
	err := q.QueryRowContext(ctx, `SELECT schema_json FROM tables WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, serrors.NewCatalogError(serrors.CodeTableNotFound,
			fmt.Sprintf("table %s not found", name), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to get table: %w", err)
	}

	var s types.TableSchema
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("manifest: corrupt schema for table %s: %w", name, err)
	}
	return schema.NewTable(&s)
}

// ListTables returns all table names in lexicographic order.
func (c *SQLiteCatalog) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.readDB.QueryContext(ctx, `SELECT name FROM tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("manifest: failed to scan table: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DropTable removes a table and all of its indexes.
func (c *SQLiteCatalog) DropTable(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("manifest: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	dropped, err := tx.ExecContext(ctx, `DELETE FROM indexes WHERE table_name = ?`, name)
	if err != nil {
		return fmt.Errorf("manifest: failed to drop indexes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM table_versions WHERE table_name = ?`, name); err != nil {
		return fmt.Errorf("manifest: failed to drop schema history: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tables WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("manifest: failed to drop table: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return serrors.NewCatalogError(serrors.CodeTableNotFound,
			fmt.Sprintf("table %s not found", name), nil)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("manifest: failed to commit: %w", err)
	}

	n, _ := dropped.RowsAffected()
	log.Printf("manifest: dropped table %s and %d indexes", name, n)
	c.publish(notify.TableDropped, name, "")
	return nil
}

// CreateIndex encodes the index targets, validates them against the table
// schema and registers the index.
func (c *SQLiteCatalog) CreateIndex(ctx context.Context, spec IndexSpec) (*types.IndexMetadata, error) {
	if spec.Name == "" {
		return nil, serrors.NewValidationError(serrors.CodeInvalidSchema, "index name is required")
	}

	raw := spec.Target
	if len(spec.Targets) > 0 {
		encoded, err := target.Encode(spec.Targets)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}
	if raw == "" {
		return nil, serrors.NewTargetError(serrors.CodeInvalidTarget, "index has no target")
	}
	if spec.Mode != "" {
		withMode, err := target.ApplyMode(raw, spec.Mode)
		if err != nil {
			return nil, err
		}
		raw = withMode
	} else if mode, ok := target.ModeFromOptions(spec.Options); ok {
		// Legacy options only fill in a mode for bare column targets.
		if withMode, err := target.ApplyMode(raw, mode); err == nil {
			raw = withMode
		}
	}

	kind := spec.Kind
	if kind == "" {
		kind = types.IndexKindComposites
	}

	options := make(map[string]string, len(spec.Options)+1)
	for k, v := range spec.Options {
		options[k] = v
	}
	options[types.TargetOptionName] = raw

	im := &types.IndexMetadata{
		ID:        uuid.New().String(),
		Name:      spec.Name,
		Table:     spec.Table,
		Kind:      kind,
		Options:   options,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if im.IsCustom() {
		if options[types.CustomIndexOptionName] == "" {
			return nil, serrors.NewValidationError(serrors.CodeInvalidSchema,
				fmt.Sprintf("custom index %s needs a %s option", spec.Name, types.CustomIndexOptionName))
		}
		im.Kind = types.IndexKindCustom
	}

	optionsJSON, err := json.Marshal(im.Options)
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to marshal options: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	table, err := getTable(ctx, c.db, spec.Table)
	if err != nil {
		return nil, err
	}
	if _, err := target.DecodeIndex(table, im); err != nil {
		return nil, err
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO indexes (index_id, table_name, index_name, kind, options_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		im.ID, im.Table, im.Name, string(im.Kind), string(optionsJSON), im.CreatedAt.Unix())
	if err != nil {
		if isConstraintViolation(err) {
			return nil, serrors.NewCatalogError(serrors.CodeIndexExists,
				fmt.Sprintf("index %s already exists on table %s", im.Name, im.Table), nil)
		}
		return nil, fmt.Errorf("manifest: failed to insert index: %w", err)
	}

	log.Printf("manifest: created index %s on %s (target %s, local=%v)",
		im.Name, im.Table, raw, target.IsLocal(raw))
	c.publish(notify.IndexCreated, im.Table, im.Name)
	return im, nil
}

// GetIndex retrieves an index by table and name.
func (c *SQLiteCatalog) GetIndex(ctx context.Context, table, name string) (*types.IndexMetadata, error) {
	row := c.readDB.QueryRowContext(ctx, `
		SELECT index_id, table_name, index_name, kind, options_json, created_at
		FROM indexes WHERE table_name = ? AND index_name = ?`, table, name)

	im, err := scanIndex(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, serrors.NewCatalogError(serrors.CodeIndexNotFound,
			fmt.Sprintf("index %s not found on table %s", name, table), nil)
	}
	if err != nil {
		return nil, err
	}
	return im, nil
}

// ListIndexes returns the indexes of a table ordered by name.
func (c *SQLiteCatalog) ListIndexes(ctx context.Context, table string) ([]*types.IndexMetadata, error) {
	rows, err := c.readDB.QueryContext(ctx, `
		SELECT index_id, table_name, index_name, kind, options_json, created_at
		FROM indexes WHERE table_name = ? ORDER BY index_name`, table)
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to list indexes: %w", err)
	}
	defer rows.Close()
	return scanIndexes(rows)
}

// DropIndex removes an index from the registry.
func (c *SQLiteCatalog) DropIndex(ctx context.Context, table, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.ExecContext(ctx,
		`DELETE FROM indexes WHERE table_name = ? AND index_name = ?`, table, name)
	if err != nil {
		return fmt.Errorf("manifest: failed to drop index: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return serrors.NewCatalogError(serrors.CodeIndexNotFound,
			fmt.Sprintf("index %s not found on table %s", name, table), nil)
	}

	log.Printf("manifest: dropped index %s on %s", name, table)
	c.publish(notify.IndexDropped, table, name)
	return nil
}

// ResolveIndex decodes the stored target of an index against the current table schema.
func (c *SQLiteCatalog) ResolveIndex(ctx context.Context, table, name string) (*target.Description, error) {
	t, err := c.GetTable(ctx, table)
	if err != nil {
		return nil, err
	}
	im, err := c.GetIndex(ctx, table, name)
	if err != nil {
		return nil, err
	}
	return target.DecodeIndex(t, im)
}

// LocalIndexes returns the indexes of a table whose stored target is local.
func (c *SQLiteCatalog) LocalIndexes(ctx context.Context, table string) ([]*types.IndexMetadata, error) {
	all, err := c.ListIndexes(ctx, table)
	if err != nil {
		return nil, err
	}
	var local []*types.IndexMetadata
	for _, im := range all {
		if raw, ok := im.Target(); ok && target.IsLocal(raw) {
			local = append(local, im)
		}
	}
	return local, nil
}

// Export returns the full catalog content.
func (c *SQLiteCatalog) Export(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Version:   SnapshotVersion,
		CreatedAt: time.Now().UTC(),
		Tables:    []types.TableSchema{},
		Indexes:   []types.IndexMetadata{},
	}

	rows, err := c.readDB.QueryContext(ctx, `SELECT schema_json FROM tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to export tables: %w", err)
	}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			rows.Close()
			return nil, fmt.Errorf("manifest: failed to scan table: %w", err)
		}
		var s types.TableSchema
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			rows.Close()
			return nil, fmt.Errorf("manifest: corrupt table schema: %w", err)
		}
		snap.Tables = append(snap.Tables, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	idxRows, err := c.readDB.QueryContext(ctx, `
		SELECT index_id, table_name, index_name, kind, options_json, created_at
		FROM indexes ORDER BY table_name, index_name`)
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to export indexes: %w", err)
	}
	defer idxRows.Close()

	indexes, err := scanIndexes(idxRows)
	if err != nil {
		return nil, err
	}
	for _, im := range indexes {
		snap.Indexes = append(snap.Indexes, *im)
	}

	snap.Versions, err = exportVersions(ctx, c.readDB)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func exportVersions(ctx context.Context, q queryer) ([]SchemaVersionRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT table_name, version, schema_json, created_at
		FROM table_versions ORDER BY table_name, version`)
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to export schema history: %w", err)
	}
	defer rows.Close()

	var records []SchemaVersionRecord
	for rows.Next() {
		var rec SchemaVersionRecord
		var data string
		var createdAt int64
		if err := rows.Scan(&rec.Table, &rec.Version, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("manifest: failed to scan schema version: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &rec.Schema); err != nil {
			return nil, fmt.Errorf("manifest: corrupt schema version %s@%d: %w", rec.Table, rec.Version, err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Import replaces the catalog content with a snapshot. Stored targets are
// restored verbatim and are not re-validated.
func (c *SQLiteCatalog) Import(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return serrors.NewValidationError(serrors.CodeInvalidSchema, "snapshot is nil")
	}
	if snap.Version != SnapshotVersion {
		return serrors.NewValidationError(serrors.CodeInvalidSchema,
			fmt.Sprintf("unsupported snapshot version %d", snap.Version))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("manifest: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM indexes`); err != nil {
		return fmt.Errorf("manifest: failed to clear indexes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM table_versions`); err != nil {
		return fmt.Errorf("manifest: failed to clear schema history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tables`); err != nil {
		return fmt.Errorf("manifest: failed to clear tables: %w", err)
	}

	history := make(map[string][]SchemaVersionRecord)
	for _, rec := range snap.Versions {
		history[rec.Table] = append(history[rec.Table], rec)
	}

	for i := range snap.Tables {
		table, err := schema.NewTable(&snap.Tables[i])
		if err != nil {
			return err
		}
		if err := importTable(ctx, tx, table, history[table.Name()]); err != nil {
			return err
		}
		delete(history, table.Name())
	}
	for _, rec := range snap.Versions {
		if _, orphan := history[rec.Table]; orphan {
			return serrors.NewValidationError(serrors.CodeInvalidSchema,
				fmt.Sprintf("snapshot has schema history for unknown table %s", rec.Table))
		}
	}

	for _, im := range snap.Indexes {
		optionsJSON, err := json.Marshal(im.Options)
		if err != nil {
			return fmt.Errorf("manifest: failed to marshal options: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO indexes (index_id, table_name, index_name, kind, options_json, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			im.ID, im.Table, im.Name, string(im.Kind), string(optionsJSON), im.CreatedAt.Unix()); err != nil {
			return fmt.Errorf("manifest: failed to import index %s: %w", im.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("manifest: failed to commit import: %w", err)
	}

	log.Printf("manifest: imported %d tables, %d indexes and %d schema versions",
		len(snap.Tables), len(snap.Indexes), len(snap.Versions))
	c.publish(notify.CatalogImported, "", "")
	return nil
}

// importTable writes a table row and its schema history. The history row of
// the current version always holds the table's schema.
func importTable(ctx context.Context, tx *sql.Tx, table *schema.Table, history []SchemaVersionRecord) error {
	data, err := json.Marshal(table.Schema())
	if err != nil {
		return fmt.Errorf("manifest: failed to marshal schema: %w", err)
	}
	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tables (name, schema_json, version, created_at) VALUES (?, ?, ?, ?)`,
		table.Name(), string(data), table.Version(), now); err != nil {
		return fmt.Errorf("manifest: failed to import table %s: %w", table.Name(), err)
	}

	currentAt := now

	for _, rec := range history {
		if rec.Version < 1 || rec.Version > table.Version() {
			return serrors.NewValidationError(serrors.CodeInvalidSchema,
				fmt.Sprintf("table %s has version %d in its history but is at version %d",
					table.Name(), rec.Version, table.Version()))
		}
		if rec.Version == table.Version() {
			currentAt = rec.CreatedAt.Unix()
			continue
		}
		recData, err := json.Marshal(rec.Schema)
		if err != nil {
			return fmt.Errorf("manifest: failed to marshal schema version: %w", err)
		}
		if err := insertVersion(ctx, tx, table.Name(), rec.Version, string(recData), rec.CreatedAt.Unix()); err != nil {
			if isConstraintViolation(err) {
				return serrors.NewValidationError(serrors.CodeInvalidSchema,
					fmt.Sprintf("table %s has version %d twice in its history", table.Name(), rec.Version))
			}
			return fmt.Errorf("manifest: failed to import schema version %d of %s: %w", rec.Version, table.Name(), err)
		}
	}
	if err := insertVersion(ctx, tx, table.Name(), table.Version(), string(data), currentAt); err != nil {
		if isConstraintViolation(err) {
			return serrors.NewValidationError(serrors.CodeInvalidSchema,
				fmt.Sprintf("table %s has version %d twice in its history", table.Name(), table.Version()))
		}
		return fmt.Errorf("manifest: failed to import table %s: %w", table.Name(), err)
	}
	return nil
}

// Close closes the catalog database connections.
func (c *SQLiteCatalog) Close() error {
	var firstErr error
	if c.readDB != nil {
		if err := c.readDB.Close(); err != nil {
			firstErr = err
		}
	}
	if err := c.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIndex(row rowScanner) (*types.IndexMetadata, error) {
	var (
		im          types.IndexMetadata
		kind        string
		optionsJSON string
		createdAt   int64
	)
	if err := row.Scan(&im.ID, &im.Table, &im.Name, &kind, &optionsJSON, &createdAt); err != nil {
		return nil, err
	}
	im.Kind = types.IndexKind(kind)
	im.CreatedAt = time.Unix(createdAt, 0).UTC()
	if err := json.Unmarshal([]byte(optionsJSON), &im.Options); err != nil {
		return nil, fmt.Errorf("manifest: corrupt options for index %s: %w", im.Name, err)
	}
	return &im, nil
}

func scanIndexes(rows *sql.Rows) ([]*types.IndexMetadata, error) {
	var out []*types.IndexMetadata
	for rows.Next() {
		im, err := scanIndex(rows)
		if err != nil {
			return nil, fmt.Errorf("manifest: failed to scan index: %w", err)
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

// isConstraintViolation reports a UNIQUE or PRIMARY KEY violation.
func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
