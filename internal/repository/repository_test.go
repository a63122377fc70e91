package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch/hub/internal/models"
)

// Timestamps are stored as zone-less local wall-clock strings, so the
// anchor instant is local too.
var statsNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

func reading(node string, ago time.Duration, waterLevel float64) models.SensorReading {
	return models.SensorReading{
		DataID:          models.NewDataID(node, statsNow.Add(-ago)),
		NodeID:          node,
		UltrasonicValue: waterLevel,
		Location:        "Riverside",
		Timestamp:       statsNow.Add(-ago).Format("2006-01-02 15:04:05"),
	}
}

func TestSortNewestFirst(t *testing.T) {
	readings := []models.SensorReading{
		reading("node_1", 3*time.Hour, 10),
		reading("node_1", time.Hour, 30),
		{NodeID: "node_1", Timestamp: "garbage"},
		reading("node_1", 2*time.Hour, 20),
	}

	SortNewestFirst(readings)

	assert.Equal(t, 30.0, readings[0].UltrasonicValue)
	assert.Equal(t, 20.0, readings[1].UltrasonicValue)
	assert.Equal(t, 10.0, readings[2].UltrasonicValue)
	assert.Equal(t, "garbage", readings[3].Timestamp, "unparseable rows sort last")
}

func TestFilterReadings(t *testing.T) {
	readings := []models.SensorReading{
		reading("node_1", time.Hour, 30),
		reading("node_2", 2*time.Hour, 25),
		reading("node_1", 26*time.Hour, 20),
		reading("node_1", 5*24*time.Hour, 10),
	}

	t.Run("node filter", func(t *testing.T) {
		got := FilterReadings(readings, models.ReadingFilters{NodeID: "node_2"}, statsNow)
		require.Len(t, got, 1)
		assert.Equal(t, 25.0, got[0].UltrasonicValue)
	})

	t.Run("days back", func(t *testing.T) {
		got := FilterReadings(readings, models.ReadingFilters{DaysBack: 1}, statsNow)
		assert.Len(t, got, 2)
	})

	t.Run("limit", func(t *testing.T) {
		got := FilterReadings(readings, models.ReadingFilters{NodeID: "node_1", Limit: 2}, statsNow)
		require.Len(t, got, 2)
		assert.Equal(t, 30.0, got[0].UltrasonicValue)
		assert.Equal(t, 20.0, got[1].UltrasonicValue)
	})

	t.Run("no filters returns all", func(t *testing.T) {
		assert.Len(t, FilterReadings(readings, models.ReadingFilters{}, statsNow), 4)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		FilterReadings(readings, models.ReadingFilters{NodeID: "node_2", Limit: 1}, statsNow)
		assert.Equal(t, "node_1", readings[0].NodeID)
	})
}

func TestBuildStatistics(t *testing.T) {
	readings := []models.SensorReading{
		reading("node_1", time.Hour, 30),
		reading("node_2", 2*time.Hour, 25),
		reading("node_1", 25*time.Hour, 20),
		reading("node_1", 49*time.Hour, 10),
	}

	stats := BuildStatistics(readings)

	assert.Equal(t, 4, stats.TotalRecords)
	assert.Equal(t, 2, stats.NodesFound)
	assert.Equal(t, []string{"node_1", "node_2"}, stats.Nodes)

	// First row per node in a newest-first snapshot is its latest.
	snap := stats.LatestReadings["node_1"]
	assert.Equal(t, 30.0, snap.WaterLevel)
	assert.Equal(t, 3, snap.DataPoints)
	assert.Equal(t, 1, stats.LatestReadings["node_2"].DataPoints)

	assert.Equal(t, 2, stats.DateRange.DaysCovered)
}

func TestBuildStatistics_Empty(t *testing.T) {
	stats := BuildStatistics(nil)

	assert.Equal(t, 0, stats.TotalRecords)
	assert.Empty(t, stats.Nodes)
	assert.NotNil(t, stats.LatestReadings)
	assert.Equal(t, models.DateRange{}, stats.DateRange)
}
