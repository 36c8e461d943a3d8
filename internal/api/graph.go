package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/SamuelLess/carakube/internal/snapshot"
)

// GraphHandler handles GET /api/graph, serving the published snapshot
// envelope bit-exactly as the UI consumes it.
type GraphHandler struct {
	logger    *zap.Logger
	publisher *snapshot.Publisher
}

// NewGraphHandler creates a GraphHandler.
func NewGraphHandler(p *snapshot.Publisher, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		logger:    logger.Named("graph"),
		publisher: p,
	}
}

// ServeHTTP implements http.Handler.
func (h *GraphHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.publisher.Latest()); err != nil {
		h.logger.Error("Failed to encode snapshot", zap.Error(err))
	}
}
