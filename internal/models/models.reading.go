// FilePath: internal/models/models.reading.go
package models

import (
	"fmt"
	"time"
)

// RainIntensity is the ordinal rain classification derived from the
// two rain-related sensor values. It is recomputed on every
// evaluation and never stored as a column.
type RainIntensity string

const (
	RainNone     RainIntensity = "none"
	RainLight    RainIntensity = "light"
	RainModerate RainIntensity = "moderate"
	RainHeavy    RainIntensity = "heavy"
	RainExtreme  RainIntensity = "extreme"
)

// FloodRisk is the presentation banding over the risk percentage.
// The percentage is the canonical score.
type FloodRisk string

const (
	RiskLow      FloodRisk = "low"
	RiskModerate FloodRisk = "moderate"
	RiskHigh     FloodRisk = "high"
	RiskCritical FloodRisk = "critical"
)

// NodeStatus is the transient liveness classification of a node,
// derived from the recency of its last report.
type NodeStatus string

const (
	NodeOnline  NodeStatus = "online"
	NodeIdle    NodeStatus = "idle"
	NodeOffline NodeStatus = "offline"
)

// SensorReading is one measurement reported by an IoT node. Persisted
// as an append-only flat row; column order matters for storage
// backend compatibility:
// data_id, node_id, piezo_value, ultrasonic_value, rain_sensor_value, location, timestamp
type SensorReading struct {
	DataID          string  `json:"data_id" db:"data_id"`
	NodeID          string  `json:"node_id" db:"node_id"`
	PiezoValue      float64 `json:"piezo_value" db:"piezo_value"`
	UltrasonicValue float64 `json:"ultrasonic_value" db:"ultrasonic_value"`
	RainSensorValue float64 `json:"rain_sensor_value" db:"rain_sensor_value"`
	Location        string  `json:"location" db:"location"`
	Timestamp       string  `json:"timestamp" db:"timestamp"`
}

// Normalize applies the defaulting rules for optional fields once, at
// the storage boundary.
func (r *SensorReading) Normalize(now time.Time) {
	if r.Location == "" {
		r.Location = "Unknown"
	}
	if r.Timestamp == "" {
		r.Timestamp = now.Format("2006-01-02T15:04:05")
	}
	if r.DataID == "" {
		r.DataID = NewDataID(r.NodeID, now)
	}
}

// NewDataID builds the generated row identifier: node id plus the
// ingestion timestamp, second resolution.
func NewDataID(nodeID string, at time.Time) string {
	return fmt.Sprintf("%s_%s", nodeID, at.Format("20060102150405"))
}

// Stored is the result of an append to the reading store. Durable is
// false when the backend was unreachable and the write was only
// echoed locally (documented fallback mode).
type Stored struct {
	DataID    string `json:"data_id"`
	Timestamp string `json:"timestamp"`
	Durable   bool   `json:"durable"`
}
