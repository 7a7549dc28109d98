package http

import (
	"net/http"
	"time"

	"github.com/arkilian/sindex/internal/manifest"
	"github.com/arkilian/sindex/internal/observability"
)

// Services are the dependencies of the HTTP API. Schemas and Snapshots may be
// nil, in which case their endpoints are not registered.
type Services struct {
	Catalog   manifest.Catalog
	Schemas   SchemaRegistry
	Snapshots Snapshotter
	Stats     *observability.TargetStats
}

// NewRouter registers every endpoint on a new ServeMux. Each handler is
// wrapped with mw, which may be nil.
func NewRouter(s Services, mw func(http.Handler) http.Handler) *http.ServeMux {
	if mw == nil {
		mw = func(h http.Handler) http.Handler { return h }
	}
	if s.Stats == nil {
		s.Stats = observability.NewTargetStats(time.Hour)
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/targets/decode", mw(NewDecodeHandler(s.Catalog, s.Stats)))
	mux.Handle("/v1/targets/encode", mw(NewEncodeHandler()))
	mux.Handle("/v1/targets/classify", mw(NewClassifyHandler()))
	mux.Handle("/v1/tables", mw(NewTablesHandler(s.Catalog)))
	mux.Handle("/v1/indexes", mw(NewIndexesHandler(s.Catalog)))
	mux.Handle("/v1/indexes/resolve", mw(NewResolveHandler(s.Catalog, s.Stats)))
	mux.Handle("/v1/stats", mw(NewStatsHandler(s.Stats)))

	if s.Schemas != nil {
		mux.Handle("/v1/tables/schema", mw(NewSchemaHandler(s.Schemas)))
	}
	if s.Snapshots != nil {
		mux.Handle("/v1/snapshots", mw(NewSnapshotHandler(s.Snapshots)))
	}
	return mux
}
