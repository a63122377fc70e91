// FilePath: internal/alerting/gate.go

// Package alerting decides whether a qualifying risk condition turns
// into an outbound notification, applying a per-node cooldown so one
// flooding node cannot spam the channel.
package alerting

import (
	"context"
	"fmt"
	"strings"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/floodwatch/hub/internal/config"
	"github.com/floodwatch/hub/internal/flood"
	"github.com/floodwatch/hub/internal/models"
)

// AlertType distinguishes live-stream alerts from periodic sweep
// alerts; each carries its own cooldown window.
type AlertType string

const (
	AlertRealTime   AlertType = "real_time"
	AlertHistorical AlertType = "historical"
)

// Alert is one candidate notification.
type Alert struct {
	NodeID         string
	Location       string
	WaterLevel     float64
	RainIntensity  models.RainIntensity
	FloodRisk      models.FloodRisk
	RiskPercentage float64
	Type           AlertType
}

// Gate owns the alert decision: trigger set, cooldown, delivery.
type Gate struct {
	cfg          config.AlertingConfig
	warningLevel float64
	cooldowns    CooldownStore
	notifier     Notifier
	events       *nuts.EventEmitter
	now          func() time.Time
}

// NewGate creates an alert gate over the given cooldown store and
// notification transport.
func NewGate(cfg config.AlertingConfig, warningLevel float64, cooldowns CooldownStore, notifier Notifier) *Gate {
	return &Gate{
		cfg:          cfg,
		warningLevel: warningLevel,
		cooldowns:    cooldowns,
		notifier:     notifier,
		events:       nuts.NewEventEmitter(),
		now:          time.Now,
	}
}

// ShouldAlert is the OR-combined trigger set: any one condition is
// sufficient.
func (g *Gate) ShouldAlert(riskPercentage float64, risk models.FloodRisk, waterLevel float64) bool {
	return riskPercentage >= g.cfg.RiskThreshold ||
		risk == models.RiskHigh || risk == models.RiskCritical ||
		waterLevel >= g.warningLevel
}

// Evaluate runs the full gate for one alert: trigger set, then
// cooldown, then delivery. Returns true when a delivery attempt was
// made. The cooldown is consumed before delivery; a failed delivery
// does not roll it back (at most one attempt per window, not
// guaranteed delivery).
func (g *Gate) Evaluate(ctx context.Context, alert Alert) bool {
	if !g.ShouldAlert(alert.RiskPercentage, alert.FloodRisk, alert.WaterLevel) {
		return false
	}

	if !g.notifier.Configured() {
		nuts.L.Warnf("[AlertGate] Notification transport not configured, skipping alert for node %s", alert.NodeID)
		return false
	}

	window := g.cfg.Cooldown
	if alert.Type == AlertHistorical {
		window = g.cfg.HistoricalCooldown
	}

	ok, err := g.cooldowns.TryAcquire(ctx, alert.NodeID, window)
	if err != nil {
		nuts.L.Errorf("[AlertGate] Cooldown store error for node %s: %v", alert.NodeID, err)
		return false
	}
	if !ok {
		nuts.L.Infof("[AlertGate] Cooldown active for node %s", alert.NodeID)
		g.events.Emit("alert.suppressed", alert.NodeID)
		return false
	}

	delivered := g.notifier.Deliver(ctx, g.formatMessage(alert))
	if delivered {
		nuts.L.Infof("[AlertGate] %s alert sent for node %s", alert.Type, alert.NodeID)
		g.events.Emit("alert.sent", alert.NodeID)
	} else {
		nuts.L.Warnf("[AlertGate] Delivery failed for node %s (cooldown stands)", alert.NodeID)
		g.events.Emit("alert.failed", alert.NodeID)
	}
	return true
}

// OnAlert registers a callback for gate events: "alert.sent",
// "alert.suppressed", "alert.failed".
func (g *Gate) OnAlert(event string, handler func(nodeID string)) {
	g.events.On(event, "alert_handler", func(nodeID string) {
		handler(nodeID)
	})
}

func (g *Gate) formatMessage(alert Alert) string {
	title := "REAL-TIME FLOOD ALERT"
	source := "Live sensor data"
	sourceEmoji := "🚨"
	if alert.Type == AlertHistorical {
		title = "PREDICTIVE FLOOD ALERT"
		source = "Historical data analysis"
		sourceEmoji = "📊"
	}

	urgency := "⚠️"
	switch alert.FloodRisk {
	case models.RiskCritical:
		urgency = "🚨🚨🚨"
	case models.RiskHigh:
		urgency = "🚨🚨"
	}

	actions := flood.TopActions(alert.FloodRisk, 3)
	var actionLines []string
	for _, a := range actions {
		actionLines = append(actionLines, "• "+a)
	}

	return fmt.Sprintf(`%s <b>%s</b> %s

%s <b>Source:</b> %s
📍 <b>Node:</b> %s
📌 <b>Location:</b> %s

💧 <b>Water Level:</b> <b>%.1f cm</b>
🌧️ <b>Rain Intensity:</b> %s

<b>Risk Level: %s (%.1f%%)</b>

<b>Recommended Actions:</b>
%s

<i>⏰ Alert Time: %s</i>`,
		urgency, title, urgency,
		sourceEmoji, source,
		alert.NodeID,
		alert.Location,
		alert.WaterLevel,
		alert.RainIntensity,
		strings.ToUpper(string(alert.FloodRisk)), alert.RiskPercentage,
		strings.Join(actionLines, "\n"),
		g.now().Format("2006-01-02 15:04:05"))
}
