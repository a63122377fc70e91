package flood

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/floodwatch/hub/internal/config"
	"github.com/floodwatch/hub/internal/models"
)

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		WaterLevelWarning:  50,
		WaterLevelDanger:   80,
		WaterLevelElevated: 30,

		BaseRiskDanger:   85,
		BaseRiskWarning:  60,
		BaseRiskElevated: 40,
		BaseRiskNormal:   20,

		TrendRapidRiseCm:  15,
		TrendRiseCm:       8,
		TrendRecedeCm:     -5,
		TrendRapidFactor:  1.4,
		TrendRiseFactor:   1.2,
		TrendRecedeFactor: 0.8,

		BandCritical: 80,
		BandHigh:     60,
		BandModerate: 40,
	}
}

// levels builds a newest-first history from newest-first water levels.
func levels(values ...float64) []models.SensorReading {
	out := make([]models.SensorReading, len(values))
	for i, v := range values {
		out[i] = models.SensorReading{NodeID: "node_1", UltrasonicValue: v}
	}
	return out
}

func TestAssess_BaseBands(t *testing.T) {
	e := NewEngine(testRiskConfig())

	tests := []struct {
		name       string
		waterLevel float64
		wantRisk   float64
		wantStatus string
	}{
		{"normal", 10, 20, "NORMAL"},
		{"elevated boundary is exclusive", 30, 20, "NORMAL"},
		{"elevated", 30.1, 40, "ELEVATED"},
		{"warning boundary is inclusive", 50, 60, "WARNING"},
		{"danger boundary is inclusive", 80, 85, "DANGER"},
		{"above danger", 120, 85, "DANGER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Assess(tt.waterLevel, models.RainNone, nil)
			assert.Equal(t, tt.wantRisk, got.RiskPercentage)
			assert.Equal(t, tt.wantStatus, got.WaterStatus)
		})
	}
}

func TestAssess_IntensityMultiplier(t *testing.T) {
	e := NewEngine(testRiskConfig())

	// WARNING base of 60 times each intensity factor.
	assert.Equal(t, 60.0, e.Assess(50, models.RainNone, nil).RiskPercentage)
	assert.InDelta(t, 66.0, e.Assess(50, models.RainLight, nil).RiskPercentage, 1e-9)
	assert.InDelta(t, 78.0, e.Assess(50, models.RainModerate, nil).RiskPercentage, 1e-9)
	assert.InDelta(t, 100.0, e.Assess(50, models.RainHeavy, nil).RiskPercentage, 1e-9) // 102 clamped
	assert.InDelta(t, 100.0, e.Assess(50, models.RainExtreme, nil).RiskPercentage, 1e-9)
}

func TestAssess_TrendAdjustment(t *testing.T) {
	e := NewEngine(testRiskConfig())

	t.Run("rising rapidly", func(t *testing.T) {
		got := e.Assess(40, models.RainNone, levels(40, 30, 20))
		assert.InDelta(t, 56.0, got.RiskPercentage, 1e-9) // 40 * 1.4
		assert.Equal(t, "ELEVATED (RISING RAPIDLY)", got.WaterStatus)
	})

	t.Run("rising", func(t *testing.T) {
		got := e.Assess(40, models.RainNone, levels(40, 35, 30))
		assert.InDelta(t, 48.0, got.RiskPercentage, 1e-9) // 40 * 1.2
		assert.Equal(t, "ELEVATED (RISING)", got.WaterStatus)
	})

	t.Run("receding", func(t *testing.T) {
		got := e.Assess(40, models.RainNone, levels(40, 45, 50))
		assert.InDelta(t, 32.0, got.RiskPercentage, 1e-9) // 40 * 0.8
		assert.Equal(t, "ELEVATED (RECEDING)", got.WaterStatus)
	})

	t.Run("flat window has no adjustment", func(t *testing.T) {
		got := e.Assess(40, models.RainNone, levels(40, 41, 40))
		assert.Equal(t, 40.0, got.RiskPercentage)
		assert.Equal(t, "ELEVATED", got.WaterStatus)
	})

	t.Run("trend boundary is strictly greater", func(t *testing.T) {
		// Delta of exactly 15 takes the plain rise branch, exactly 8
		// takes no branch.
		rapid := e.Assess(40, models.RainNone, levels(40, 30, 25))
		assert.Equal(t, "ELEVATED (RISING)", rapid.WaterStatus)

		flat := e.Assess(40, models.RainNone, levels(40, 36, 32))
		assert.Equal(t, "ELEVATED", flat.WaterStatus)
	})

	t.Run("two points are not a trend", func(t *testing.T) {
		got := e.Assess(40, models.RainNone, levels(40, 10))
		assert.Equal(t, 40.0, got.RiskPercentage)
		assert.Equal(t, "ELEVATED", got.WaterStatus)
	})

	t.Run("window is capped at five points", func(t *testing.T) {
		// The sixth, much lower point must not influence the trend.
		got := e.Assess(40, models.RainNone, levels(40, 40, 40, 40, 40, 1))
		assert.Equal(t, 40.0, got.RiskPercentage)
		assert.Equal(t, "ELEVATED", got.WaterStatus)
	})
}

func TestAssess_ClampAndBands(t *testing.T) {
	e := NewEngine(testRiskConfig())

	// Danger base, extreme rain, rapid rise: 85 * 2.0 * 1.4 clamps to 100.
	got := e.Assess(95, models.RainExtreme, levels(95, 70, 50))
	assert.Equal(t, 100.0, got.RiskPercentage)
	assert.Equal(t, models.RiskCritical, got.FloodRisk)

	// Danger always lands in at least the high band.
	plain := e.Assess(80, models.RainNone, nil)
	assert.Contains(t, []models.FloodRisk{models.RiskHigh, models.RiskCritical}, plain.FloodRisk)
}

func TestAssess_Deterministic(t *testing.T) {
	e := NewEngine(testRiskConfig())
	history := levels(55, 48, 40, 33, 31)

	first := e.Assess(55, models.RainModerate, history)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Assess(55, models.RainModerate, history))
	}
}

func TestCategorize(t *testing.T) {
	e := NewEngine(testRiskConfig())

	assert.Equal(t, models.RiskLow, e.Categorize(0))
	assert.Equal(t, models.RiskLow, e.Categorize(39.9))
	assert.Equal(t, models.RiskModerate, e.Categorize(40))
	assert.Equal(t, models.RiskHigh, e.Categorize(60))
	assert.Equal(t, models.RiskCritical, e.Categorize(80))
	assert.Equal(t, models.RiskCritical, e.Categorize(100))
}

func TestRecommendedActions(t *testing.T) {
	critical := RecommendedActions(models.RiskCritical)
	assert.Equal(t, "IMMEDIATE EVACUATION REQUIRED", critical[0])
	assert.Len(t, critical, 5)

	// Mutating the returned slice must not corrupt the table.
	critical[0] = "mutated"
	assert.Equal(t, "IMMEDIATE EVACUATION REQUIRED", RecommendedActions(models.RiskCritical)[0])

	assert.Equal(t, []string{"Continue monitoring"}, RecommendedActions(models.FloodRisk("bogus")))
}

func TestTopActions(t *testing.T) {
	assert.Len(t, TopActions(models.RiskHigh, 3), 3)
	assert.Len(t, TopActions(models.RiskLow, 10), 3)
}
