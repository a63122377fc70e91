// FilePath: internal/models/models.composite.go
package models

// RiskAssessment is the Risk Engine's output for one node.
type RiskAssessment struct {
	FloodRisk      FloodRisk `json:"flood_risk"`
	RiskPercentage float64   `json:"risk_percentage"`
	WaterStatus    string    `json:"water_status"`
}

// NodeSnapshot summarizes the latest known reading of a node.
type NodeSnapshot struct {
	Timestamp  string  `json:"timestamp"`
	WaterLevel float64 `json:"water_level"`
	Location   string  `json:"location"`
	DataPoints int     `json:"data_points"`
}

// DateRange describes the temporal span of stored data.
type DateRange struct {
	Earliest    string `json:"earliest,omitempty"`
	Latest      string `json:"latest,omitempty"`
	DaysCovered int    `json:"days_covered"`
}

// DataStatistics aggregates what the reading store currently holds.
type DataStatistics struct {
	TotalRecords   int                     `json:"total_records"`
	NodesFound     int                     `json:"nodes_found"`
	Nodes          []string                `json:"nodes"`
	DateRange      DateRange               `json:"date_range"`
	LatestReadings map[string]NodeSnapshot `json:"latest_readings"`
}

// NodeOverview is one entry of the all-nodes dashboard listing.
type NodeOverview struct {
	NodeID         string        `json:"node_id"`
	Location       string        `json:"location"`
	Status         NodeStatus    `json:"status"`
	LastSeen       string        `json:"last_seen"`
	LastSeenAgo    string        `json:"last_seen_ago"`
	WaterLevel     float64       `json:"water_level"`
	RainIntensity  RainIntensity `json:"rain_intensity"`
	FloodRisk      FloodRisk     `json:"flood_risk"`
	RiskPercentage float64       `json:"risk_percentage"`
	IsOnline       bool          `json:"is_online"`
}

// NodeSummary counts nodes per liveness state.
type NodeSummary struct {
	Online  int `json:"online"`
	Idle    int `json:"idle"`
	Offline int `json:"offline"`
	Total   int `json:"total"`
}

// SweepNodeResult is the outcome of evaluating a single node during a
// full sweep.
type SweepNodeResult struct {
	NodeID         string        `json:"node_id"`
	Location       string        `json:"location,omitempty"`
	WaterLevel     float64       `json:"water_level"`
	RainIntensity  RainIntensity `json:"rain_intensity,omitempty"`
	FloodRisk      FloodRisk     `json:"flood_risk,omitempty"`
	RiskPercentage float64       `json:"risk_percentage"`
	WaterStatus    string        `json:"water_status,omitempty"`
	ShouldAlert    bool          `json:"should_alert"`
	DataPoints     int           `json:"data_points"`
	Error          string        `json:"error,omitempty"`
}
