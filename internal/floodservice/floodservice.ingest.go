// FilePath: internal/floodservice/floodservice.ingest.go

package floodservice

import (
	"context"
	"time"

	"github.com/floodwatch/hub/internal/alerting"
	"github.com/floodwatch/hub/internal/flood"
	"github.com/floodwatch/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const ingestHistoryLimit = 10

// IngestResult is the acknowledgement returned to a sensor node after
// a reading was processed.
type IngestResult struct {
	Success        bool             `json:"success"`
	Message        string           `json:"message"`
	DataID         string           `json:"data_id,omitempty"`
	Timestamp      string           `json:"timestamp,omitempty"`
	RiskLevel      models.FloodRisk `json:"risk_level,omitempty"`
	RiskPercentage float64          `json:"risk_percentage,omitempty"`
	AlertTriggered bool             `json:"alert_triggered"`
	Durable        bool             `json:"durable"`
}

// IngestReading stores a sensor reading, assesses the resulting flood
// risk and dispatches an alert in the background when the assessment
// crosses the alert trigger. Ingestion always acknowledges: storage
// failures are reported in the result rather than as an error, so a
// field device never has to interpret HTTP failure modes.
func (s *FloodService) IngestReading(ctx context.Context, reading models.SensorReading) (IngestResult, error) {
	reading.Normalize(time.Now())

	stored, err := s.Readings.Store(ctx, &reading)
	if err != nil {
		nuts.L.Errorf("[FloodService] Failed to store reading from node %s: %v", reading.NodeID, err)
		return IngestResult{
			Success: false,
			Message: "Failed to store data",
		}, nil
	}

	intensity := flood.ClassifyRainIntensity(reading.PiezoValue, reading.RainSensorValue)

	history, err := s.nodeHistory(ctx, reading.NodeID, ingestHistoryLimit, 0)
	if err != nil {
		nuts.L.Warnf("[FloodService] History lookup failed for node %s, assessing without trend: %v", reading.NodeID, err)
		history = nil
	}

	assessment := s.Engine.Assess(reading.UltrasonicValue, intensity, history)

	triggered := s.Gate.ShouldAlert(assessment.RiskPercentage, assessment.FloodRisk, reading.UltrasonicValue)
	if triggered {
		alert := alerting.Alert{
			Type:           alerting.AlertRealTime,
			NodeID:         reading.NodeID,
			Location:       reading.Location,
			WaterLevel:     reading.UltrasonicValue,
			RainIntensity:  intensity,
			FloodRisk:      assessment.FloodRisk,
			RiskPercentage: assessment.RiskPercentage,
		}
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			s.Gate.Evaluate(bgCtx, alert)
		}()
	}

	return IngestResult{
		Success:        true,
		Message:        "Data received and stored successfully",
		DataID:         stored.DataID,
		Timestamp:      stored.Timestamp,
		RiskLevel:      assessment.FloodRisk,
		RiskPercentage: assessment.RiskPercentage,
		AlertTriggered: triggered,
		Durable:        stored.Durable,
	}, nil
}

// nodeHistory returns readings for a node, newest first, for trend
// analysis.
func (s *FloodService) nodeHistory(ctx context.Context, nodeID string, limit, daysBack int) ([]models.SensorReading, error) {
	return s.Readings.Query(ctx, models.ReadingFilters{
		NodeID:   nodeID,
		Limit:    limit,
		DaysBack: daysBack,
	})
}
