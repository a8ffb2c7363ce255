package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/lifelog-api/utils"
	"go.uber.org/zap"
)

// readinessTimeout bounds the store check behind /readyz
const readinessTimeout = 5 * time.Second

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp,omitempty"`
	Checks    map[string]string      `json:"checks,omitempty"`
	Auth      map[string]interface{} `json:"auth,omitempty"`
}

// StoreChecker reports whether the record store can serve requests
type StoreChecker func(ctx context.Context) error

// CacheReporter exposes the signing-key cache state
type CacheReporter interface {
	CacheStats() map[string]interface{}
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	checkStore StoreChecker
	keys       CacheReporter
	logger     *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. keys may be nil when
// token verification is not configured.
func NewHealthHandler(checkStore StoreChecker, keys CacheReporter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checkStore: checkStore,
		keys:       keys,
		logger:     logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only: always 200 while the process serves requests
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]string)
	status := "ready"
	httpStatus := http.StatusOK

	if h.checkStore == nil {
		checks["store"] = "not_initialized"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if err := h.checkStore(ctx); err != nil {
		h.logger.Warn("store health check failed", zap.Error(err))
		checks["store"] = "unhealthy"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "healthy"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if h.keys != nil {
		response.Auth = h.keys.CacheStats()
	}

	if err := utils.WriteJSON(w, httpStatus, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
