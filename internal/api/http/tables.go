package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/arkilian/sindex/internal/manifest"
	"github.com/arkilian/sindex/pkg/types"
)

// SchemaRegistry records schema changes of existing tables.
type SchemaRegistry interface {
	RegisterSchema(ctx context.Context, s *types.TableSchema) (int, error)
	InvalidIndexes(ctx context.Context, table string) (map[string]error, error)
}

// TablesResponse lists table names.
type TablesResponse struct {
	Tables    []string `json:"tables"`
	RequestID string   `json:"request_id"`
}

// TableResponse describes one table.
type TableResponse struct {
	Name      string            `json:"name"`
	Version   int               `json:"version"`
	Columns   []types.ColumnDef `json:"columns"`
	RequestID string            `json:"request_id"`
}

// TablesHandler handles GET and POST /v1/tables requests.
type TablesHandler struct {
	catalog manifest.Catalog
}

// NewTablesHandler creates a new tables handler.
func NewTablesHandler(catalog manifest.Catalog) *TablesHandler {
	return &TablesHandler{catalog: catalog}
}

// ServeHTTP handles the tables HTTP request.
func (h *TablesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	switch r.Method {
	case http.MethodGet:
		if name := r.URL.Query().Get("name"); name != "" {
			table, err := h.catalog.GetTable(r.Context(), name)
			if err != nil {
				writeServiceError(w, err, requestID)
				return
			}
			writeJSON(w, http.StatusOK, TableResponse{
				Name:      table.Name(),
				Version:   table.Version(),
				Columns:   table.Columns(),
				RequestID: requestID,
			})
			return
		}

		names, err := h.catalog.ListTables(r.Context())
		if err != nil {
			writeServiceError(w, err, requestID)
			return
		}
		if names == nil {
			names = []string{}
		}
		writeJSON(w, http.StatusOK, TablesResponse{Tables: names, RequestID: requestID})

	case http.MethodPost:
		var s types.TableSchema
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
			return
		}
		if err := h.catalog.CreateTable(r.Context(), &s); err != nil {
			writeServiceError(w, err, requestID)
			return
		}
		table, err := h.catalog.GetTable(r.Context(), s.Name)
		if err != nil {
			writeServiceError(w, err, requestID)
			return
		}
		writeJSON(w, http.StatusCreated, TableResponse{
			Name:      table.Name(),
			Version:   table.Version(),
			Columns:   table.Columns(),
			RequestID: requestID,
		})

	case http.MethodDelete:
		name := r.URL.Query().Get("name")
		if name == "" {
			writeError(w, http.StatusBadRequest, "name is required", requestID)
			return
		}
		if err := h.catalog.DropTable(r.Context(), name); err != nil {
			writeServiceError(w, err, requestID)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
	}
}

// SchemaResponse reports the outcome of a schema change.
type SchemaResponse struct {
	Table          string            `json:"table"`
	Version        int               `json:"version"`
	InvalidIndexes map[string]string `json:"invalid_indexes"`
	RequestID      string            `json:"request_id"`
}

// SchemaHandler handles PUT /v1/tables/schema requests.
type SchemaHandler struct {
	registry SchemaRegistry
}

// NewSchemaHandler creates a new schema handler.
func NewSchemaHandler(registry SchemaRegistry) *SchemaHandler {
	return &SchemaHandler{registry: registry}
}

// ServeHTTP handles the schema HTTP request.
func (h *SchemaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var s types.TableSchema
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}

	version, err := h.registry.RegisterSchema(r.Context(), &s)
	if err != nil {
		writeServiceError(w, err, requestID)
		return
	}

	invalid, err := h.registry.InvalidIndexes(r.Context(), s.Name)
	if err != nil {
		writeServiceError(w, err, requestID)
		return
	}
	messages := make(map[string]string, len(invalid))
	for name, ierr := range invalid {
		messages[name] = ierr.Error()
	}

	writeJSON(w, http.StatusOK, SchemaResponse{
		Table:          s.Name,
		Version:        version,
		InvalidIndexes: messages,
		RequestID:      requestID,
	})
}
