// FilePath: internal/flood/classify.go

// Package flood holds the deterministic rules core: rain intensity
// classification, flood risk scoring and the recommended-action
// lookup. Everything in here is a pure function over its inputs.
package flood

import (
	"github.com/floodwatch/hub/internal/models"
)

// ClassifyRainIntensity maps the two rain-related sensor values to an
// ordinal category by banding their average. Out-of-range values are
// not an error; they classify by the out-of-range average.
func ClassifyRainIntensity(piezoValue, rainSensorValue float64) models.RainIntensity {
	avg := (piezoValue + rainSensorValue) / 2

	switch {
	case avg < 10:
		return models.RainNone
	case avg < 30:
		return models.RainLight
	case avg < 50:
		return models.RainModerate
	case avg < 75:
		return models.RainHeavy
	default:
		return models.RainExtreme
	}
}

// IsRaining reports whether the rain detection value indicates active
// rainfall.
func IsRaining(rainSensorValue float64) bool {
	return rainSensorValue > 10
}
