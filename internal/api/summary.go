package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/SamuelLess/carakube/internal/snapshot"
	"github.com/SamuelLess/carakube/internal/types"
)

// SummaryResponse is the wire format for GET /api/summary: the published
// status plus aggregate counts, without the full node payload.
type SummaryResponse struct {
	Status     types.Status              `json:"status"`
	Message    string                    `json:"message,omitempty"`
	Timestamp  string                    `json:"timestamp,omitempty"`
	TotalNodes int                       `json:"total_nodes"`
	TotalLinks int                       `json:"total_links"`
	NodeTypes  map[types.Kind]int        `json:"node_types,omitempty"`
	Findings   int                       `json:"findings"`
	Severities map[types.Severity]int    `json:"severities,omitempty"`
	ByType     map[types.FindingType]int `json:"findings_by_type,omitempty"`
}

// SummaryHandler handles GET /api/summary.
type SummaryHandler struct {
	logger    *zap.Logger
	publisher *snapshot.Publisher
}

// NewSummaryHandler creates a SummaryHandler.
func NewSummaryHandler(p *snapshot.Publisher, logger *zap.Logger) *SummaryHandler {
	return &SummaryHandler{
		logger:    logger.Named("summary"),
		publisher: p,
	}
}

// ServeHTTP implements http.Handler.
func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := h.publisher.Latest()
	resp := SummaryResponse{
		Status:  snap.Status,
		Message: snap.Message,
	}
	if snap.Data != nil {
		resp.Timestamp = snap.Data.Timestamp.Format(time.RFC3339)
		resp.TotalNodes = snap.Data.Stats.TotalNodes
		resp.TotalLinks = snap.Data.Stats.TotalLinks
		resp.NodeTypes = snap.Data.Stats.NodeTypes
		resp.Severities = make(map[types.Severity]int)
		resp.ByType = make(map[types.FindingType]int)
		for _, n := range snap.Data.Nodes {
			for _, f := range n.GetFindings() {
				resp.Findings++
				resp.Severities[f.Severity]++
				resp.ByType[f.Type]++
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode summary", zap.Error(err))
	}
}
