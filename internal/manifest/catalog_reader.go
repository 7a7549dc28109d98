package manifest

import (
	"context"

	"github.com/arkilian/sindex/internal/index/target"
	"github.com/arkilian/sindex/internal/schema"
	"github.com/arkilian/sindex/pkg/types"
)

// CatalogReader is the read-only interface used by the HTTP handlers and the CLI.
// SQLiteCatalog implements this interface.
type CatalogReader interface {
	// GetTable returns the resolved schema of a table.
	GetTable(ctx context.Context, name string) (*schema.Table, error)

	// ListIndexes returns the indexes of a table ordered by name.
	ListIndexes(ctx context.Context, table string) ([]*types.IndexMetadata, error)

	// ResolveIndex decodes the stored target of an index against the current table schema.
	ResolveIndex(ctx context.Context, table, name string) (*target.Description, error)
}

var _ CatalogReader = (*SQLiteCatalog)(nil)
var _ Catalog = (*SQLiteCatalog)(nil)
