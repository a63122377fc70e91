// FilePath: internal/floodservice/floodservice.history.go

package floodservice

import (
	"context"

	"github.com/floodwatch/hub/internal/errors"
	"github.com/floodwatch/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// ChartSeries holds the reading history as parallel arrays in
// chronological order, ready for dashboard plotting.
type ChartSeries struct {
	Timestamps  []string  `json:"timestamps"`
	WaterLevels []float64 `json:"water_levels"`
	RainValues  []float64 `json:"rain_values"`
	PiezoValues []float64 `json:"piezo_values"`
}

// WaterStats summarizes the water level over the returned window.
type WaterStats struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// HistoryResult is the reading history for one node plus derived
// chart series and summary statistics.
type HistoryResult struct {
	NodeID   string                 `json:"node_id"`
	Count    int                    `json:"count"`
	Readings []models.SensorReading `json:"readings"`
	Chart    ChartSeries            `json:"chart"`
	Stats    WaterStats             `json:"stats"`
}

// History returns the stored readings for a node, newest first, with
// chart series and water-level statistics. When no node is given the
// node with the most recent data is picked automatically.
func (s *FloodService) History(ctx context.Context, filters models.ReadingFilters) (*HistoryResult, error) {
	if filters.NodeID == "" {
		detected, err := s.detectNode(ctx)
		if err != nil {
			return nil, err
		}
		filters.NodeID = detected
		nuts.L.Infof("[FloodService] No node requested for history, auto-detected %s", filters.NodeID)
	}
	if filters.Limit <= 0 {
		filters.Limit = 100
	}

	readings, err := s.Readings.Query(ctx, filters)
	if err != nil {
		return nil, errors.NewStorageError("failed to query readings", err)
	}

	result := &HistoryResult{
		NodeID:   filters.NodeID,
		Count:    len(readings),
		Readings: readings,
		Chart:    buildChartSeries(readings),
	}
	if len(readings) > 0 {
		result.Stats = buildWaterStats(readings)
	}
	return result, nil
}

// buildChartSeries converts the newest-first query order into
// chronological parallel arrays.
func buildChartSeries(readings []models.SensorReading) ChartSeries {
	n := len(readings)
	series := ChartSeries{
		Timestamps:  make([]string, n),
		WaterLevels: make([]float64, n),
		RainValues:  make([]float64, n),
		PiezoValues: make([]float64, n),
	}
	for i, r := range readings {
		j := n - 1 - i
		series.Timestamps[j] = r.Timestamp
		series.WaterLevels[j] = r.UltrasonicValue
		series.RainValues[j] = r.RainSensorValue
		series.PiezoValues[j] = r.PiezoValue
	}
	return series
}

func buildWaterStats(readings []models.SensorReading) WaterStats {
	stats := WaterStats{Min: readings[0].UltrasonicValue, Max: readings[0].UltrasonicValue}
	var sum float64
	for _, r := range readings {
		level := r.UltrasonicValue
		sum += level
		if level < stats.Min {
			stats.Min = level
		}
		if level > stats.Max {
			stats.Max = level
		}
	}
	stats.Average = sum / float64(len(readings))
	return stats
}
