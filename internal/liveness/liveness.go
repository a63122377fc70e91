// FilePath: internal/liveness/liveness.go

// Package liveness derives a node's online/idle/offline state from
// the recency of its last report. The state has no persisted
// identity; it is recomputed on every query.
package liveness

import (
	"fmt"
	"strings"
	"time"

	"github.com/floodwatch/hub/internal/config"
	"github.com/floodwatch/hub/internal/models"
)

// timestampFormats are the textual layouts tolerated when parsing a
// stored last-seen value.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05.999999",
	time.RFC3339,
}

// Evaluator classifies last-seen timestamps against configured
// online/idle boundaries.
type Evaluator struct {
	cfg config.LivenessConfig
	now func() time.Time
}

// NewEvaluator creates an evaluator using wall-clock time.
func NewEvaluator(cfg config.LivenessConfig) *Evaluator {
	return &Evaluator{cfg: cfg, now: time.Now}
}

// NewEvaluatorAt creates an evaluator with an injected clock, for
// deterministic tests.
func NewEvaluatorAt(cfg config.LivenessConfig, now func() time.Time) *Evaluator {
	return &Evaluator{cfg: cfg, now: now}
}

// Status returns the liveness state for a last-seen timestamp plus a
// human-readable elapsed string. An empty or unparseable timestamp
// yields offline and never an error.
func (e *Evaluator) Status(lastSeen string) (models.NodeStatus, string) {
	if lastSeen == "" {
		return models.NodeOffline, "Never"
	}

	seen, err := ParseTimestamp(lastSeen)
	if err != nil {
		return models.NodeOffline, "Unknown"
	}

	elapsed := e.now().Sub(seen)
	if elapsed < 0 {
		elapsed = 0
	}

	var status models.NodeStatus
	switch {
	case elapsed <= e.cfg.OnlineWithin:
		status = models.NodeOnline
	case elapsed <= e.cfg.IdleWithin:
		status = models.NodeIdle
	default:
		status = models.NodeOffline
	}

	return status, FormatElapsed(elapsed)
}

// ParseTimestamp parses a stored timestamp, tolerating the common
// textual layouts the store has accumulated. Readings are stamped
// with the local wall clock and no zone, so zone-less layouts must
// resolve in local time or every elapsed computation shifts by the
// host's UTC offset.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampFormats {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	// Last resort for Z-suffixed values with nonstandard precision.
	if t, err := time.Parse("2006-01-02T15:04:05.999999999Z07:00", strings.Replace(value, " ", "T", 1)); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

// FormatElapsed renders a duration as a truncated "time ago" string:
// seconds under a minute, minutes under an hour, hours under a day,
// days beyond that.
func FormatElapsed(d time.Duration) string {
	seconds := int64(d.Seconds())
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	default:
		return fmt.Sprintf("%dd ago", seconds/86400)
	}
}
