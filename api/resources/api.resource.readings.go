// FilePath: api/resources/api.resource.readings.go
package resources

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"

	"github.com/floodwatch/hub/internal/errors"
	"github.com/floodwatch/hub/internal/floodservice"
	"github.com/floodwatch/hub/internal/models"
)

// ReadingHandlers encapsulates the sensor-data HTTP handlers
type ReadingHandlers struct {
	service *floodservice.FloodService
}

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

// @Summary Ingest a sensor reading
// @Description Store a reading from a field node and assess flood risk
// @Tags readings
// @Accept json
// @Produce json
// @Param reading body models.SensorReading true "Sensor reading"
// @Success 200 {object} floodservice.IngestResult
// @Failure 400 {object} errors.APIError
// @Router /sensor-data [post]
// @Security DeviceToken
func (h *ReadingHandlers) PostSensorData(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var reading models.SensorReading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if reading.NodeID == "" {
		respondWithError(w, errors.NewValidationError("node_id is required", nil).WithRequestID(requestID))
		return
	}

	result, err := h.service.IngestReading(r.Context(), reading)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to process reading", err).WithRequestID(requestID))
		return
	}

	if !result.Success {
		nuts.L.Warnf("[ReadingHandler] Reading from node %s acknowledged without storage (request %s)",
			reading.NodeID, requestID)
	}
	respondWithJSON(w, http.StatusOK, result)
}

// @Summary Query stored readings
// @Description Reading history for a node, newest first, with chart series and water-level stats
// @Tags readings
// @Produce json
// @Param node_id query string false "Node ID (auto-detected when omitted)"
// @Param limit query int false "Maximum rows to return"
// @Param days_back query int false "Only rows newer than N days"
// @Success 200 {object} floodservice.HistoryResult
// @Failure 404 {object} errors.APIError
// @Failure 500 {object} errors.APIError
// @Router /history [get]
func (h *ReadingHandlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var filters models.ReadingFilters
	if err := queryDecoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	result, err := h.service.History(r.Context(), filters)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to query readings").WithRequestID(requestID))
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
