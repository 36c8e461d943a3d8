package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ScanTrigger requests an out-of-band scan pass.
type ScanTrigger interface {
	TriggerScan() bool
}

// ScanResponse is the wire format for POST /api/scan.
type ScanResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message,omitempty"`
}

// ScanHandler handles POST /api/scan. Requests are rate limited so the
// endpoint cannot be used to hammer the cluster API.
type ScanHandler struct {
	logger    *zap.Logger
	scheduler ScanTrigger
	limiter   *rate.Limiter
}

// NewScanHandler creates a ScanHandler allowing one trigger per 10
// seconds with a burst of 2.
func NewScanHandler(s ScanTrigger, logger *zap.Logger) *ScanHandler {
	return &ScanHandler{
		logger:    logger.Named("scan"),
		scheduler: s,
		limiter:   rate.NewLimiter(rate.Limit(0.1), 2),
	}
}

// ServeHTTP implements http.Handler.
func (h *ScanHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if !h.limiter.Allow() {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(ScanResponse{
			Message: "Scan trigger rate limit exceeded",
		})
		return
	}

	triggered := h.scheduler.TriggerScan()
	resp := ScanResponse{Triggered: triggered}
	if !triggered {
		resp.Message = "Scan already queued"
	}

	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode scan response", zap.Error(err))
	}
}
