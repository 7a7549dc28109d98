package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	serrors "github.com/arkilian/sindex/internal/errors"
	"github.com/arkilian/sindex/internal/index/target"
	"github.com/arkilian/sindex/internal/manifest"
	"github.com/arkilian/sindex/internal/observability"
	"github.com/arkilian/sindex/pkg/types"
)

// DecodeRequest represents a target decode request.
type DecodeRequest struct {
	Table  string `json:"table"`
	Target string `json:"target"`
}

// ColumnView is a resolved column in a response.
type ColumnView struct {
	Name string           `json:"name"`
	Type string           `json:"type"`
	Kind types.ColumnKind `json:"kind"`
}

// DescriptionResponse is a decoded target.
type DescriptionResponse struct {
	Mode             target.Mode  `json:"mode"`
	PrimaryColumns   []ColumnView `json:"primary_columns"`
	SecondaryColumns []ColumnView `json:"secondary_columns"`
	Local            bool         `json:"local"`
	RequestID        string       `json:"request_id"`
}

func newDescriptionResponse(d *target.Description, requestID string) DescriptionResponse {
	return DescriptionResponse{
		Mode:             d.Mode,
		PrimaryColumns:   columnViews(d.PrimaryColumns),
		SecondaryColumns: columnViews(d.SecondaryColumns),
		Local:            d.IsLocal(),
		RequestID:        requestID,
	}
}

func columnViews(cols []*types.ColumnDef) []ColumnView {
	views := make([]ColumnView, len(cols))
	for i, c := range cols {
		views[i] = ColumnView{Name: c.Name, Type: c.Type, Kind: c.EffectiveKind()}
	}
	return views
}

// DecodeHandler handles POST /v1/targets/decode requests.
type DecodeHandler struct {
	catalog manifest.CatalogReader
	stats   *observability.TargetStats
}

// NewDecodeHandler creates a new decode handler. stats may be nil.
func NewDecodeHandler(catalog manifest.CatalogReader, stats *observability.TargetStats) *DecodeHandler {
	return &DecodeHandler{catalog: catalog, stats: stats}
}

// ServeHTTP handles the decode HTTP request.
func (h *DecodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}
	if req.Table == "" {
		writeError(w, http.StatusBadRequest, "table is required", requestID)
		return
	}

	table, err := h.catalog.GetTable(r.Context(), req.Table)
	if err != nil {
		writeServiceError(w, err, requestID)
		return
	}

	desc, err := target.Decode(table, req.Target)
	if err != nil {
		if h.stats != nil {
			h.stats.RecordFailure(serrors.GetCode(err))
		}
		writeServiceError(w, err, requestID)
		return
	}
	if h.stats != nil {
		h.stats.RecordDescription(req.Table, desc)
	}

	writeJSON(w, http.StatusOK, newDescriptionResponse(desc, requestID))
}

// EncodeRequest represents a target encode request. Each element of Targets
// is either a column name or an array of column names.
type EncodeRequest struct {
	Targets []json.RawMessage `json:"targets"`
}

// EncodeResponse carries the stored form of the targets.
type EncodeResponse struct {
	Target    string `json:"target"`
	Local     bool   `json:"local"`
	RequestID string `json:"request_id"`
}

// EncodeHandler handles POST /v1/targets/encode requests.
type EncodeHandler struct{}

// NewEncodeHandler creates a new encode handler.
func NewEncodeHandler() *EncodeHandler {
	return &EncodeHandler{}
}

// ServeHTTP handles the encode HTTP request.
func (h *EncodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req EncodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}

	refs, err := parseRefs(req.Targets)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	encoded, err := target.Encode(refs)
	if err != nil {
		writeServiceError(w, err, requestID)
		return
	}

	writeJSON(w, http.StatusOK, EncodeResponse{
		Target:    encoded,
		Local:     target.IsLocal(encoded),
		RequestID: requestID,
	})
}

// parseRefs converts request elements into target references.
func parseRefs(raw []json.RawMessage) ([]target.Ref, error) {
	refs := make([]target.Ref, 0, len(raw))
	for i, elem := range raw {
		var name string
		if err := json.Unmarshal(elem, &name); err == nil {
			refs = append(refs, target.Column(name))
			continue
		}
		var names []string
		if err := json.Unmarshal(elem, &names); err == nil {
			refs = append(refs, target.Columns(names...))
			continue
		}
		return nil, fmt.Errorf("targets[%d] must be a column name or an array of column names", i)
	}
	return refs, nil
}

// ClassifyRequest represents a target classification request.
type ClassifyRequest struct {
	Target string `json:"target"`
}

// ClassifyResponse reports the shape of a stored target without resolving it.
type ClassifyResponse struct {
	Local     bool   `json:"local"`
	Column    string `json:"column"`
	RequestID string `json:"request_id"`
}

// ClassifyHandler handles POST /v1/targets/classify requests.
type ClassifyHandler struct{}

// NewClassifyHandler creates a new classify handler.
func NewClassifyHandler() *ClassifyHandler {
	return &ClassifyHandler{}
}

// ServeHTTP handles the classify HTTP request.
func (h *ClassifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}

	writeJSON(w, http.StatusOK, ClassifyResponse{
		Local:     target.IsLocal(req.Target),
		Column:    target.PrimaryColumnName(req.Target),
		RequestID: requestID,
	})
}
