// FilePath: api/resources/api.resource.predict.go
package resources

import (
	"encoding/json"
	"io"
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"github.com/floodwatch/hub/internal/alerting"
	"github.com/floodwatch/hub/internal/errors"
	"github.com/floodwatch/hub/internal/floodservice"
	"github.com/floodwatch/hub/internal/models"
)

// PredictionHandlers encapsulates the analysis HTTP handlers
type PredictionHandlers struct {
	service *floodservice.FloodService
}

type predictRequest struct {
	NodeID string `json:"node_id"`
}

// @Summary Predict flood risk
// @Description On-demand risk assessment with AI analysis for one node
// @Tags predictions
// @Accept json
// @Produce json
// @Param request body predictRequest false "Node selection; omit to auto-detect"
// @Success 200 {object} floodservice.Prediction
// @Failure 404 {object} errors.APIError
// @Router /predict [post]
func (h *PredictionHandlers) Predict(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	prediction, err := h.service.Predict(r.Context(), req.NodeID)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to build prediction").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, prediction)
}

// @Summary Analyze all nodes
// @Description One sweep pass over every known node, sending alerts as needed
// @Tags predictions
// @Produce json
// @Success 200 {object} floodservice.SweepOutcome
// @Failure 500 {object} errors.APIError
// @Router /analyze-all [get]
func (h *PredictionHandlers) AnalyzeAll(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	outcome, err := h.service.AnalyzeAll(r.Context(), alerting.AlertHistorical)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to analyze nodes").WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, outcome)
}

// @Summary Test the notification channel
// @Description Send a plain test message through the configured transport
// @Tags predictions
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} errors.APIError
// @Router /test-telegram [get]
func (h *PredictionHandlers) TestTelegram(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	if !h.service.Notifier.Configured() {
		respondWithError(w, errors.NewUnavailableError("notification transport not configured", nil).WithRequestID(requestID))
		return
	}

	delivered := h.service.Notifier.Deliver(r.Context(),
		"🔔 <b>FloodWatch test message</b>\n\nThe notification channel is working.")
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": delivered,
		"message": "test message dispatched",
	})
}

type testAlertRequest struct {
	NodeID         string  `json:"node_id"`
	Location       string  `json:"location"`
	WaterLevel     float64 `json:"water_level"`
	RiskPercentage float64 `json:"risk_percentage"`
}

// @Summary Test the alert pipeline
// @Description Push a synthetic alert through the full gate, cooldown included
// @Tags predictions
// @Accept json
// @Produce json
// @Param request body testAlertRequest false "Synthetic alert values"
// @Success 200 {object} map[string]interface{}
// @Router /test-alert [post]
func (h *PredictionHandlers) TestAlert(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	req := testAlertRequest{
		NodeID:         "test_node",
		Location:       "Test Location",
		WaterLevel:     85,
		RiskPercentage: 90,
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	attempted := h.service.Gate.Evaluate(r.Context(), alerting.Alert{
		Type:           alerting.AlertRealTime,
		NodeID:         req.NodeID,
		Location:       req.Location,
		WaterLevel:     req.WaterLevel,
		RainIntensity:  models.RainHeavy,
		FloodRisk:      models.RiskCritical,
		RiskPercentage: req.RiskPercentage,
	})

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": attempted,
		"message": "synthetic alert evaluated",
	})
}
