// FilePath: internal/flood/risk.go
package flood

import (
	"github.com/floodwatch/hub/internal/config"
	"github.com/floodwatch/hub/internal/models"
)

// trendWindow is how many of the most recent history points the trend
// comparison considers.
const trendWindow = 5

// minTrendPoints is the minimum history length before any trend
// adjustment applies.
const minTrendPoints = 3

// Engine computes flood risk from a water level, a rain intensity and
// an optional recent-history window. The multiplicative formula is
// canonical: water-level band base, times an intensity factor, times
// a trend factor, clamped to [0,100].
type Engine struct {
	cfg config.RiskConfig
}

// NewEngine creates a risk engine with the given constants.
func NewEngine(cfg config.RiskConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Assess computes the risk assessment for the current conditions.
// History is ordered newest first, as returned by the reading store;
// a window shorter than three points skips the trend adjustment.
func (e *Engine) Assess(waterLevel float64, intensity models.RainIntensity, history []models.SensorReading) models.RiskAssessment {
	risk, status := e.baseRisk(waterLevel)
	risk *= intensityFactor(intensity)

	if trend, ok := waterLevelTrend(history); ok {
		switch {
		case trend > e.cfg.TrendRapidRiseCm:
			risk *= e.cfg.TrendRapidFactor
			status += " (RISING RAPIDLY)"
		case trend > e.cfg.TrendRiseCm:
			risk *= e.cfg.TrendRiseFactor
			status += " (RISING)"
		case trend < e.cfg.TrendRecedeCm:
			risk *= e.cfg.TrendRecedeFactor
			status += " (RECEDING)"
		}
	}

	risk = clamp(risk, 0, 100)

	return models.RiskAssessment{
		FloodRisk:      e.Categorize(risk),
		RiskPercentage: risk,
		WaterStatus:    status,
	}
}

// Categorize maps a clamped risk percentage to its presentation band.
func (e *Engine) Categorize(riskPercentage float64) models.FloodRisk {
	switch {
	case riskPercentage >= e.cfg.BandCritical:
		return models.RiskCritical
	case riskPercentage >= e.cfg.BandHigh:
		return models.RiskHigh
	case riskPercentage >= e.cfg.BandModerate:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

func (e *Engine) baseRisk(waterLevel float64) (float64, string) {
	switch {
	case waterLevel >= e.cfg.WaterLevelDanger:
		return e.cfg.BaseRiskDanger, "DANGER"
	case waterLevel >= e.cfg.WaterLevelWarning:
		return e.cfg.BaseRiskWarning, "WARNING"
	case waterLevel > e.cfg.WaterLevelElevated:
		return e.cfg.BaseRiskElevated, "ELEVATED"
	default:
		return e.cfg.BaseRiskNormal, "NORMAL"
	}
}

func intensityFactor(intensity models.RainIntensity) float64 {
	switch intensity {
	case models.RainLight:
		return 1.1
	case models.RainModerate:
		return 1.3
	case models.RainHeavy:
		return 1.7
	case models.RainExtreme:
		return 2.0
	default:
		return 1.0
	}
}

// waterLevelTrend compares the earliest against the latest water
// level within the most recent slice of history. Returns false when
// the window is too short for a trend.
func waterLevelTrend(history []models.SensorReading) (float64, bool) {
	if len(history) < minTrendPoints {
		return 0, false
	}

	// History arrives newest first; the trend reads oldest to newest
	// over the last few points.
	recent := history
	if len(recent) > trendWindow {
		recent = recent[:trendWindow]
	}

	newest := recent[0].UltrasonicValue
	oldest := recent[len(recent)-1].UltrasonicValue
	return newest - oldest, true
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
