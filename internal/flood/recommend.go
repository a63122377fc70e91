// FilePath: internal/flood/recommend.go
package flood

import (
	"github.com/floodwatch/hub/internal/models"
)

// recommendedActions is static content. Order is meaningful: earlier
// entries are higher priority and callers may truncate to the top N.
var recommendedActions = map[models.FloodRisk][]string{
	models.RiskLow: {
		"Continue normal monitoring",
		"Ensure drainage systems are clear",
		"Review emergency preparedness plan",
	},
	models.RiskModerate: {
		"Increase monitoring frequency",
		"Alert local authorities",
		"Check flood barriers and sandbags availability",
		"Prepare emergency evacuation routes",
	},
	models.RiskHigh: {
		"Activate flood warning systems",
		"Deploy flood barriers if available",
		"Begin evacuation of low-lying areas",
		"Contact emergency services",
		"Move valuable items to higher ground",
	},
	models.RiskCritical: {
		"IMMEDIATE EVACUATION REQUIRED",
		"Emergency services on high alert",
		"All residents must move to higher ground",
		"Avoid all flood-affected areas",
		"Do not attempt to cross flooded roads",
	},
}

// RecommendedActions returns the ordered action list for a risk
// category.
func RecommendedActions(risk models.FloodRisk) []string {
	actions, ok := recommendedActions[risk]
	if !ok {
		return []string{"Continue monitoring"}
	}
	out := make([]string, len(actions))
	copy(out, actions)
	return out
}

// TopActions returns at most n of the highest-priority actions.
func TopActions(risk models.FloodRisk, n int) []string {
	actions := RecommendedActions(risk)
	if len(actions) > n {
		actions = actions[:n]
	}
	return actions
}
