// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/floodwatch/hub/internal/liveness"
	"github.com/floodwatch/hub/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
	// ErrUnavailable indicates the storage backend is unreachable
	ErrUnavailable = errors.New("storage backend unavailable")
)

// ReadingRepository defines the interface for the append-only reading
// store.
type ReadingRepository interface {
	// Store appends one reading. The result distinguishes a durable
	// write from a local-echo fallback success.
	Store(ctx context.Context, reading *models.SensorReading) (*models.Stored, error)
	// Query returns readings newest first, skipping malformed rows.
	Query(ctx context.Context, filters models.ReadingFilters) ([]models.SensorReading, error)
	// Statistics aggregates counts, node list, per-node latest
	// reading and the covered date range.
	Statistics(ctx context.Context) (*models.DataStatistics, error)
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// SortNewestFirst orders readings by parsed timestamp, newest first.
// Rows whose timestamp does not parse sort last. Stable, so the order
// is deterministic for a given snapshot.
func SortNewestFirst(readings []models.SensorReading) {
	sort.SliceStable(readings, func(i, j int) bool {
		ti, erri := liveness.ParseTimestamp(readings[i].Timestamp)
		tj, errj := liveness.ParseTimestamp(readings[j].Timestamp)
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return ti.After(tj)
	})
}

// FilterReadings applies node and days-back filters and the limit to
// an already sorted slice.
func FilterReadings(readings []models.SensorReading, filters models.ReadingFilters, now time.Time) []models.SensorReading {
	out := readings[:0:0]
	var cutoff time.Time
	if filters.DaysBack > 0 {
		cutoff = now.AddDate(0, 0, -filters.DaysBack)
	}

	for _, r := range readings {
		if filters.NodeID != "" && r.NodeID != filters.NodeID {
			continue
		}
		if !cutoff.IsZero() {
			ts, err := liveness.ParseTimestamp(r.Timestamp)
			if err != nil || ts.Before(cutoff) {
				continue
			}
		}
		out = append(out, r)
	}

	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out
}

// BuildStatistics derives store statistics from a newest-first
// reading snapshot.
func BuildStatistics(readings []models.SensorReading) *models.DataStatistics {
	stats := &models.DataStatistics{
		Nodes:          []string{},
		LatestReadings: make(map[string]models.NodeSnapshot),
	}
	if len(readings) == 0 {
		return stats
	}

	var earliest, latest time.Time
	perNode := make(map[string]int)

	for _, r := range readings {
		stats.TotalRecords++
		perNode[r.NodeID]++

		ts, err := liveness.ParseTimestamp(r.Timestamp)
		if err == nil {
			if earliest.IsZero() || ts.Before(earliest) {
				earliest = ts
			}
			if latest.IsZero() || ts.After(latest) {
				latest = ts
			}
		}

		// Readings arrive newest first, so the first row per node is
		// its latest.
		if _, seen := stats.LatestReadings[r.NodeID]; !seen {
			stats.Nodes = append(stats.Nodes, r.NodeID)
			stats.LatestReadings[r.NodeID] = models.NodeSnapshot{
				Timestamp:  r.Timestamp,
				WaterLevel: r.UltrasonicValue,
				Location:   r.Location,
			}
		}
	}

	for node, snap := range stats.LatestReadings {
		snap.DataPoints = perNode[node]
		stats.LatestReadings[node] = snap
	}

	stats.NodesFound = len(stats.Nodes)
	if !earliest.IsZero() && !latest.IsZero() {
		stats.DateRange = models.DateRange{
			Earliest:    earliest.Format("2006-01-02T15:04:05"),
			Latest:      latest.Format("2006-01-02T15:04:05"),
			DaysCovered: int(latest.Sub(earliest).Hours() / 24),
		}
	}
	return stats
}
