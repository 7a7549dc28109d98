package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/arkilian/sindex/internal/observability"
)

// defaultTopColumns is the number of columns reported by the stats endpoint
// when no limit is given.
const defaultTopColumns = 20

// StatsResponse wraps a target statistics summary.
type StatsResponse struct {
	observability.Summary
	RequestID string `json:"request_id"`
}

// StatsHandler handles GET /v1/stats requests.
type StatsHandler struct {
	stats *observability.TargetStats
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(stats *observability.TargetStats) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// ServeHTTP handles the stats HTTP request.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	n := defaultTopColumns
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", requestID)
			return
		}
		n = parsed
	}

	h.stats.Prune()
	writeJSON(w, http.StatusOK, StatsResponse{Summary: h.stats.Snapshot(n), RequestID: requestID})
}

// Snapshotter writes and lists catalog snapshots.
type Snapshotter interface {
	Write(ctx context.Context) (string, error)
	List(ctx context.Context) ([]string, error)
}

// SnapshotResponse reports a written snapshot.
type SnapshotResponse struct {
	Path      string `json:"path"`
	RequestID string `json:"request_id"`
}

// SnapshotsResponse lists stored snapshots, oldest first.
type SnapshotsResponse struct {
	Snapshots []string `json:"snapshots"`
	RequestID string   `json:"request_id"`
}

// SnapshotHandler handles GET and POST /v1/snapshots requests.
type SnapshotHandler struct {
	snapshotter Snapshotter
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(snapshotter Snapshotter) *SnapshotHandler {
	return &SnapshotHandler{snapshotter: snapshotter}
}

// ServeHTTP handles the snapshot HTTP request.
func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	switch r.Method {
	case http.MethodGet:
		paths, err := h.snapshotter.List(r.Context())
		if err != nil {
			writeServiceError(w, err, requestID)
			return
		}
		if paths == nil {
			paths = []string{}
		}
		writeJSON(w, http.StatusOK, SnapshotsResponse{Snapshots: paths, RequestID: requestID})

	case http.MethodPost:
		path, err := h.snapshotter.Write(r.Context())
		if err != nil {
			writeServiceError(w, err, requestID)
			return
		}
		writeJSON(w, http.StatusCreated, SnapshotResponse{Path: path, RequestID: requestID})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
	}
}
