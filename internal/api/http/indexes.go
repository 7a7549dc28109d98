package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/arkilian/sindex/internal/index/target"
	"github.com/arkilian/sindex/internal/manifest"
	"github.com/arkilian/sindex/internal/observability"
	"github.com/arkilian/sindex/pkg/types"
)

// CreateIndexRequest represents an index creation request. Either Targets or
// Target must be set; Targets elements follow the encode request format.
type CreateIndexRequest struct {
	Table   string            `json:"table"`
	Name    string            `json:"name"`
	Kind    types.IndexKind   `json:"kind,omitempty"`
	Targets []json.RawMessage `json:"targets,omitempty"`
	Target  string            `json:"target,omitempty"`
	Mode    string            `json:"mode,omitempty"`
	Options map[string]string `json:"options,omitempty"`
}

// IndexResponse describes one index.
type IndexResponse struct {
	types.IndexMetadata
	Local     bool   `json:"local"`
	RequestID string `json:"request_id,omitempty"`
}

// IndexesResponse lists the indexes of a table.
type IndexesResponse struct {
	Indexes   []IndexResponse `json:"indexes"`
	RequestID string          `json:"request_id"`
}

func newIndexResponse(im *types.IndexMetadata, requestID string) IndexResponse {
	raw, _ := im.Target()
	return IndexResponse{
		IndexMetadata: *im,
		Local:         target.IsLocal(raw),
		RequestID:     requestID,
	}
}

// IndexesHandler handles GET, POST and DELETE /v1/indexes requests.
type IndexesHandler struct {
	catalog manifest.Catalog
}

// NewIndexesHandler creates a new indexes handler.
func NewIndexesHandler(catalog manifest.Catalog) *IndexesHandler {
	return &IndexesHandler{catalog: catalog}
}

// ServeHTTP handles the indexes HTTP request.
func (h *IndexesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	q := r.URL.Query()

	switch r.Method {
	case http.MethodGet:
		table := q.Get("table")
		if table == "" {
			writeError(w, http.StatusBadRequest, "table is required", requestID)
			return
		}

		var (
			indexes []*types.IndexMetadata
			err     error
		)
		if q.Get("local") == "true" {
			indexes, err = h.catalog.LocalIndexes(r.Context(), table)
		} else {
			indexes, err = h.catalog.ListIndexes(r.Context(), table)
		}
		if err != nil {
			writeServiceError(w, err, requestID)
			return
		}

		resp := IndexesResponse{Indexes: make([]IndexResponse, 0, len(indexes)), RequestID: requestID}
		for _, im := range indexes {
			resp.Indexes = append(resp.Indexes, newIndexResponse(im, ""))
		}
		writeJSON(w, http.StatusOK, resp)

	case http.MethodPost:
		var req CreateIndexRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
			return
		}
		if req.Table == "" || req.Name == "" {
			writeError(w, http.StatusBadRequest, "table and name are required", requestID)
			return
		}

		refs, err := parseRefs(req.Targets)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), requestID)
			return
		}
		var mode target.Mode
		if req.Mode != "" {
			if mode, err = target.ParseMode(req.Mode); err != nil {
				writeError(w, http.StatusBadRequest, err.Error(), requestID)
				return
			}
		}

		im, err := h.catalog.CreateIndex(r.Context(), manifest.IndexSpec{
			Table:   req.Table,
			Name:    req.Name,
			Kind:    req.Kind,
			Targets: refs,
			Target:  req.Target,
			Mode:    mode,
			Options: req.Options,
		})
		if err != nil {
			writeServiceError(w, err, requestID)
			return
		}
		writeJSON(w, http.StatusCreated, newIndexResponse(im, requestID))

	case http.MethodDelete:
		table, name := q.Get("table"), q.Get("name")
		if table == "" || name == "" {
			writeError(w, http.StatusBadRequest, "table and name are required", requestID)
			return
		}
		if err := h.catalog.DropIndex(r.Context(), table, name); err != nil {
			writeServiceError(w, err, requestID)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
	}
}

// ResolveHandler handles GET /v1/indexes/resolve requests.
type ResolveHandler struct {
	catalog manifest.CatalogReader
	stats   *observability.TargetStats
}

// NewResolveHandler creates a new resolve handler. stats may be nil.
func NewResolveHandler(catalog manifest.CatalogReader, stats *observability.TargetStats) *ResolveHandler {
	return &ResolveHandler{catalog: catalog, stats: stats}
}

// ServeHTTP handles the resolve HTTP request.
func (h *ResolveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	table, name := r.URL.Query().Get("table"), r.URL.Query().Get("name")
	if table == "" || name == "" {
		writeError(w, http.StatusBadRequest, "table and name are required", requestID)
		return
	}

	desc, err := h.catalog.ResolveIndex(r.Context(), table, name)
	if err != nil {
		writeServiceError(w, err, requestID)
		return
	}
	if h.stats != nil {
		h.stats.RecordDescription(table, desc)
	}
	writeJSON(w, http.StatusOK, newDescriptionResponse(desc, requestID))
}
