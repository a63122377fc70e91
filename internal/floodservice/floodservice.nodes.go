// FilePath: internal/floodservice/floodservice.nodes.go

package floodservice

import (
	"context"
	"fmt"
	"sort"

	"github.com/floodwatch/hub/internal/errors"
	"github.com/floodwatch/hub/internal/flood"
	"github.com/floodwatch/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// NodeDetail is the full status report for a single node.
type NodeDetail struct {
	NodeID         string               `json:"node_id"`
	Location       string               `json:"location"`
	Status         models.NodeStatus    `json:"status"`
	LastSeen       string               `json:"last_seen"`
	LastSeenAgo    string               `json:"last_seen_ago"`
	WaterLevel     float64              `json:"water_level"`
	RainIntensity  models.RainIntensity `json:"rain_intensity"`
	IsRaining      bool                 `json:"is_raining"`
	FloodRisk      models.FloodRisk     `json:"flood_risk"`
	RiskPercentage float64              `json:"risk_percentage"`
	WaterStatus    string               `json:"water_status"`
	DataPoints     int                  `json:"data_points"`
}

// NodesOverview is the dashboard listing of every known node.
type NodesOverview struct {
	Count   int                   `json:"count"`
	Nodes   []models.NodeOverview `json:"nodes"`
	Summary models.NodeSummary    `json:"summary"`
}

// NodeStatus builds the detailed status report for one node from its
// recent readings.
func (s *FloodService) NodeStatus(ctx context.Context, nodeID string) (*NodeDetail, error) {
	history, err := s.nodeHistory(ctx, nodeID, ingestHistoryLimit, 0)
	if err != nil {
		return nil, errors.NewStorageError("failed to read node data", err)
	}
	if len(history) == 0 {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no data found for node %s", nodeID), nil)
	}
	latest := history[0]

	status, ago := s.Liveness.Status(latest.Timestamp)
	intensity := flood.ClassifyRainIntensity(latest.PiezoValue, latest.RainSensorValue)
	assessment := s.Engine.Assess(latest.UltrasonicValue, intensity, history)

	return &NodeDetail{
		NodeID:         nodeID,
		Location:       latest.Location,
		Status:         status,
		LastSeen:       latest.Timestamp,
		LastSeenAgo:    ago,
		WaterLevel:     latest.UltrasonicValue,
		RainIntensity:  intensity,
		IsRaining:      flood.IsRaining(latest.RainSensorValue),
		FloodRisk:      assessment.FloodRisk,
		RiskPercentage: assessment.RiskPercentage,
		WaterStatus:    assessment.WaterStatus,
		DataPoints:     len(history),
	}, nil
}

// AllNodes lists every known node with liveness and a current risk
// snapshot, online nodes first.
func (s *FloodService) AllNodes(ctx context.Context) (*NodesOverview, error) {
	stats, err := s.Readings.Statistics(ctx)
	if err != nil {
		return nil, errors.NewStorageError("failed to inspect stored data", err)
	}

	overview := &NodesOverview{Nodes: make([]models.NodeOverview, 0, len(stats.Nodes))}
	for _, nodeID := range stats.Nodes {
		snap, ok := stats.LatestReadings[nodeID]
		if !ok {
			nuts.L.Warnf("[FloodService] Node %s listed without a latest reading, skipping", nodeID)
			continue
		}

		latest, err := s.Readings.Query(ctx, models.ReadingFilters{NodeID: nodeID, Limit: 1})
		if err != nil || len(latest) == 0 {
			nuts.L.Warnf("[FloodService] Latest reading lookup failed for node %s: %v", nodeID, err)
			continue
		}
		reading := latest[0]

		status, ago := s.Liveness.Status(reading.Timestamp)
		intensity := flood.ClassifyRainIntensity(reading.PiezoValue, reading.RainSensorValue)
		assessment := s.Engine.Assess(reading.UltrasonicValue, intensity, nil)

		overview.Nodes = append(overview.Nodes, models.NodeOverview{
			NodeID:         nodeID,
			Location:       snap.Location,
			Status:         status,
			LastSeen:       reading.Timestamp,
			LastSeenAgo:    ago,
			WaterLevel:     reading.UltrasonicValue,
			RainIntensity:  intensity,
			FloodRisk:      assessment.FloodRisk,
			RiskPercentage: assessment.RiskPercentage,
			IsOnline:       status == models.NodeOnline,
		})

		switch status {
		case models.NodeOnline:
			overview.Summary.Online++
		case models.NodeIdle:
			overview.Summary.Idle++
		default:
			overview.Summary.Offline++
		}
	}

	sort.SliceStable(overview.Nodes, func(i, j int) bool {
		return statusRank(overview.Nodes[i].Status) < statusRank(overview.Nodes[j].Status)
	})

	overview.Count = len(overview.Nodes)
	overview.Summary.Total = len(overview.Nodes)
	return overview, nil
}

func statusRank(s models.NodeStatus) int {
	switch s {
	case models.NodeOnline:
		return 0
	case models.NodeIdle:
		return 1
	default:
		return 2
	}
}
