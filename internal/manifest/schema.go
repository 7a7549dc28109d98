// Package manifest provides the catalog of tables and secondary indexes.
package manifest

// The manifest catalog is a SQLite database (manifest.db) that is the
// source of truth for table schemas and index metadata. Index targets are
// stored in their encoded descriptor form inside options_json.

// CreateTablesTableSQL creates the table registry.
const CreateTablesTableSQL = `
CREATE TABLE IF NOT EXISTS tables (
    name TEXT PRIMARY KEY,
    schema_json TEXT NOT NULL,
    version INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL
)`

// CreateIndexesTableSQL creates the index registry.
// options_json holds the index options, including the "target" descriptor.
const CreateIndexesTableSQL = `
CREATE TABLE IF NOT EXISTS indexes (
    index_id TEXT PRIMARY KEY,
    table_name TEXT NOT NULL,
    index_name TEXT NOT NULL,
    kind TEXT NOT NULL,
    options_json TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (table_name, index_name),
    FOREIGN KEY (table_name) REFERENCES tables(name)
)`

// CreateIndexesTableIndexSQL speeds up per-table index listing.
const CreateIndexesTableIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_indexes_table ON indexes(table_name)`

// CreateTableVersionsTableSQL creates the schema history. Each table has one
// row per registered version; tables.version mirrors the latest one.
const CreateTableVersionsTableSQL = `
CREATE TABLE IF NOT EXISTS table_versions (
    table_name TEXT NOT NULL,
    version INTEGER NOT NULL,
    schema_json TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (table_name, version)
)`

// AllSchemaSQL returns all SQL statements needed to initialize the manifest catalog.
func AllSchemaSQL() []string {
	return []string{
		CreateTablesTableSQL,
		CreateIndexesTableSQL,
		CreateIndexesTableIndexSQL,
		CreateTableVersionsTableSQL,
	}
}
