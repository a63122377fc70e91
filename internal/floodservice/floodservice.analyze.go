// FilePath: internal/floodservice/floodservice.analyze.go

package floodservice

import (
	"context"

	"github.com/floodwatch/hub/internal/alerting"
	"github.com/floodwatch/hub/internal/flood"
	"github.com/floodwatch/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// SweepOutcome reports one full pass over every known node.
type SweepOutcome struct {
	TotalNodes int                      `json:"total_nodes"`
	Analyzed   int                      `json:"analyzed"`
	AlertsSent int                      `json:"alerts_sent"`
	Results    []models.SweepNodeResult `json:"results"`
}

// AnalyzeAll assesses every known node from its recent history and
// pushes alerts through the gate with the given alert type. Nodes
// without enough data points are skipped; a per-node failure is
// recorded in its result and never aborts the sweep.
func (s *FloodService) AnalyzeAll(ctx context.Context, alertType alerting.AlertType) (*SweepOutcome, error) {
	stats, err := s.Readings.Statistics(ctx)
	if err != nil {
		return nil, err
	}

	outcome := &SweepOutcome{
		TotalNodes: len(stats.Nodes),
		Results:    make([]models.SweepNodeResult, 0, len(stats.Nodes)),
	}

	for _, nodeID := range stats.Nodes {
		result := s.analyzeNode(ctx, nodeID, alertType)
		outcome.Results = append(outcome.Results, result)
		if result.Error == "" {
			outcome.Analyzed++
		}
		if result.ShouldAlert {
			outcome.AlertsSent++
		}
	}

	nuts.L.Infof("[FloodService] Sweep complete: %d/%d nodes analyzed, %d alerts dispatched",
		outcome.Analyzed, outcome.TotalNodes, outcome.AlertsSent)
	return outcome, nil
}

func (s *FloodService) analyzeNode(ctx context.Context, nodeID string, alertType alerting.AlertType) models.SweepNodeResult {
	history, err := s.nodeHistory(ctx, nodeID, s.cfg.Sweep.HistoryLimit, s.cfg.Sweep.DaysBack)
	if err != nil {
		nuts.L.Errorf("[FloodService] Sweep query failed for node %s: %v", nodeID, err)
		return models.SweepNodeResult{NodeID: nodeID, Error: "query failed"}
	}
	if len(history) < s.cfg.Sweep.MinDataPoints {
		nuts.L.Debugf("[FloodService] Node %s has %d data points, below sweep minimum %d",
			nodeID, len(history), s.cfg.Sweep.MinDataPoints)
		return models.SweepNodeResult{
			NodeID:     nodeID,
			DataPoints: len(history),
			Error:      "insufficient data",
		}
	}

	latest := history[0]
	intensity := flood.ClassifyRainIntensity(latest.PiezoValue, latest.RainSensorValue)
	assessment := s.Engine.Assess(latest.UltrasonicValue, intensity, history)

	shouldAlert := s.Gate.ShouldAlert(assessment.RiskPercentage, assessment.FloodRisk, latest.UltrasonicValue)
	if shouldAlert {
		s.Gate.Evaluate(ctx, alerting.Alert{
			Type:           alertType,
			NodeID:         nodeID,
			Location:       latest.Location,
			WaterLevel:     latest.UltrasonicValue,
			RainIntensity:  intensity,
			FloodRisk:      assessment.FloodRisk,
			RiskPercentage: assessment.RiskPercentage,
		})
	}

	return models.SweepNodeResult{
		NodeID:         nodeID,
		Location:       latest.Location,
		WaterLevel:     latest.UltrasonicValue,
		RainIntensity:  intensity,
		FloodRisk:      assessment.FloodRisk,
		RiskPercentage: assessment.RiskPercentage,
		WaterStatus:    assessment.WaterStatus,
		ShouldAlert:    shouldAlert,
		DataPoints:     len(history),
	}
}
