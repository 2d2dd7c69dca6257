package http

import (
	"net/http"
	"time"

	"github.com/vitte-ai/vitte-chat/internal/api/respond"
	"github.com/vitte-ai/vitte-chat/internal/health"
)

// HealthHandler reports aggregated service health.
type HealthHandler struct {
	checker *health.ServiceHealthChecker
}

// NewHealthHandler accepts a nil checker; the endpoint then always reports
// healthy, which keeps lightweight test deployments green.
func NewHealthHandler(c *health.ServiceHealthChecker) *HealthHandler {
	return &HealthHandler{checker: c}
}

// Health GET /v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	healthy := h.checker == nil || h.checker.IsHealthy()
	body := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if !healthy {
		body["status"] = "degraded"
		respond.WriteJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	respond.WriteJSON(w, http.StatusOK, body)
}
