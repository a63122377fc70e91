// FilePath: internal/floodservice/floodservice.predict.go

package floodservice

import (
	"context"
	"fmt"

	"github.com/floodwatch/hub/internal/analysis"
	"github.com/floodwatch/hub/internal/errors"
	"github.com/floodwatch/hub/internal/flood"
	"github.com/floodwatch/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Prediction is the full on-demand assessment for a single node.
type Prediction struct {
	NodeID             string               `json:"node_id"`
	Location           string               `json:"location"`
	CurrentWaterLevel  float64              `json:"current_water_level"`
	RainIntensity      models.RainIntensity `json:"rain_intensity"`
	IsRaining          bool                 `json:"is_raining"`
	FloodRisk          models.FloodRisk     `json:"flood_risk"`
	RiskPercentage     float64              `json:"risk_percentage"`
	WaterStatus        string               `json:"water_status"`
	PredictionSummary  string               `json:"prediction_summary"`
	RecommendedActions []string             `json:"recommended_actions"`
	AIAnalysis         string               `json:"ai_analysis"`
	AIProvider         string               `json:"ai_provider"`
	DataPointsUsed     int                  `json:"data_points_used"`
	Timestamp          string               `json:"timestamp"`
}

// Predict assesses the latest reading of a node, including the AI (or
// fallback) analysis text and recommended actions. When nodeID is
// empty, the node with the most recent data is picked automatically.
func (s *FloodService) Predict(ctx context.Context, nodeID string) (*Prediction, error) {
	if nodeID == "" {
		detected, err := s.detectNode(ctx)
		if err != nil {
			return nil, err
		}
		nodeID = detected
		nuts.L.Infof("[FloodService] No node requested, auto-detected %s", nodeID)
	}

	latest, err := s.Readings.Query(ctx, models.ReadingFilters{NodeID: nodeID, Limit: 1})
	if err != nil {
		return nil, errors.NewStorageError("failed to read latest data", err)
	}
	if len(latest) == 0 {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no data found for node %s", nodeID), nil)
	}
	reading := latest[0]

	history, err := s.nodeHistory(ctx, nodeID, s.cfg.Sweep.HistoryLimit, s.cfg.Sweep.DaysBack)
	if err != nil {
		nuts.L.Warnf("[FloodService] History lookup failed for node %s, assessing without trend: %v", nodeID, err)
		history = nil
	}

	intensity := flood.ClassifyRainIntensity(reading.PiezoValue, reading.RainSensorValue)
	assessment := s.Engine.Assess(reading.UltrasonicValue, intensity, history)

	aiText, provider := s.Summarizer.Analyze(ctx, analysis.Input{
		WaterLevel:     reading.UltrasonicValue,
		RainIntensity:  intensity,
		FloodRisk:      assessment.FloodRisk,
		RiskPercentage: assessment.RiskPercentage,
		History:        history,
		WarningLevel:   s.cfg.Risk.WaterLevelWarning,
		DangerLevel:    s.cfg.Risk.WaterLevelDanger,
	})

	return &Prediction{
		NodeID:             nodeID,
		Location:           reading.Location,
		CurrentWaterLevel:  reading.UltrasonicValue,
		RainIntensity:      intensity,
		IsRaining:          flood.IsRaining(reading.RainSensorValue),
		FloodRisk:          assessment.FloodRisk,
		RiskPercentage:     assessment.RiskPercentage,
		WaterStatus:        assessment.WaterStatus,
		PredictionSummary:  predictionSummary(assessment),
		RecommendedActions: flood.RecommendedActions(assessment.FloodRisk),
		AIAnalysis:         aiText,
		AIProvider:         provider,
		DataPointsUsed:     len(history),
		Timestamp:          reading.Timestamp,
	}, nil
}

// detectNode returns the node with the most data available.
func (s *FloodService) detectNode(ctx context.Context) (string, error) {
	stats, err := s.Readings.Statistics(ctx)
	if err != nil {
		return "", errors.NewStorageError("failed to inspect stored data", err)
	}
	if len(stats.Nodes) == 0 {
		return "", errors.NewNotFoundError("no node_id provided and no sensor data available", nil)
	}
	return stats.Nodes[0], nil
}

func predictionSummary(a models.RiskAssessment) string {
	return fmt.Sprintf("Flood risk is %s (%.1f%%). Water status: %s.",
		a.FloodRisk, a.RiskPercentage, a.WaterStatus)
}
