// FilePath: api/resources/api.resource.system.go
package resources

import (
	"net/http"
	"time"

	"github.com/floodwatch/hub/internal/floodservice"
)

// SystemHandlers serves the health and system-info endpoints
type SystemHandlers struct {
	service *floodservice.FloodService
}

// @Summary Health check
// @Description Service health including collaborator availability
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *SystemHandlers) Health(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status(r.Context())

	overall := "healthy"
	if !status.StorageConnected {
		overall = "degraded"
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":     overall,
		"timestamp":  time.Now().Format(time.RFC3339),
		"components": status,
	})
}

// @Summary System information
// @Description Effective thresholds, sweep settings and endpoint listing
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system-info [get]
func (h *SystemHandlers) SystemInfo(w http.ResponseWriter, r *http.Request) {
	cfg := h.service.Config()

	payload := map[string]interface{}{
		"service": "FloodWatch Hub",
		"storage_backend": cfg.Storage.Backend,
		"thresholds": map[string]interface{}{
			"water_level_warning_cm":  cfg.Risk.WaterLevelWarning,
			"water_level_danger_cm":   cfg.Risk.WaterLevelDanger,
			"water_level_elevated_cm": cfg.Risk.WaterLevelElevated,
			"alert_risk_threshold":    cfg.Alerting.RiskThreshold,
		},
		"sweep": map[string]interface{}{
			"interval":        cfg.Sweep.Interval.String(),
			"days_back":       cfg.Sweep.DaysBack,
			"history_limit":   cfg.Sweep.HistoryLimit,
			"min_data_points": cfg.Sweep.MinDataPoints,
		},
		"endpoints": []string{
			"POST /api/v1/sensor-data",
			"POST /api/v1/predict",
			"GET /api/v1/history",
			"GET /api/v1/nodes",
			"GET /api/v1/status/{nodeId}",
			"GET /api/v1/analyze-all",
			"GET /api/v1/test-telegram",
			"POST /api/v1/test-alert",
			"GET /api/v1/health",
			"GET /api/v1/system-info",
		},
	}

	if stats, err := h.service.Readings.Statistics(r.Context()); err == nil {
		payload["data"] = stats
	}

	respondWithJSON(w, http.StatusOK, payload)
}
