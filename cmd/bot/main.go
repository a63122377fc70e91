// FilePath: cmd/bot/main.go

// Interactive Telegram bot over the hub API. Subscribers get flood
// alerts pushed from a polling loop; commands expose status,
// prediction and history queries in chat.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	nuts "github.com/vaudience/go-nuts"
)

const (
	defaultRiskThreshold = 50.0
	defaultCooldown      = 15 * time.Minute
	longPollSeconds      = 30
)

// update is one inbound Telegram update, reduced to the fields the
// bot reads.
type update struct {
	UpdateID int64 `json:"update_id"`
	Message  struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			FirstName string `json:"first_name"`
		} `json:"from"`
	} `json:"message"`
}

// telegramClient is a minimal bot API wrapper: send plus long-poll.
type telegramClient struct {
	client *resty.Client
}

func newTelegramClient(apiBase, token string) *telegramClient {
	return &telegramClient{
		client: resty.New().
			SetBaseURL(fmt.Sprintf("%s/bot%s", apiBase, token)).
			SetTimeout((longPollSeconds + 10) * time.Second),
	}
}

func (t *telegramClient) sendMessage(ctx context.Context, chatID int64, text string) bool {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"chat_id":    chatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		Post("/sendMessage")
	if err != nil {
		nuts.L.Errorf("[Bot] sendMessage failed: %v", err)
		return false
	}
	if resp.StatusCode() != 200 {
		nuts.L.Warnf("[Bot] sendMessage rejected with status %d", resp.StatusCode())
		return false
	}
	return true
}

func (t *telegramClient) getUpdates(ctx context.Context, offset int64) ([]update, error) {
	var out struct {
		Result []update `json:"result"`
	}
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParam("offset", fmt.Sprintf("%d", offset)).
		SetQueryParam("timeout", fmt.Sprintf("%d", longPollSeconds)).
		SetResult(&out).
		Get("/getUpdates")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("getUpdates status %d", resp.StatusCode())
	}
	return out.Result, nil
}

// hubClient queries the hub's HTTP API.
type hubClient struct {
	client *resty.Client
}

func newHubClient(baseURL string) *hubClient {
	return &hubClient{client: resty.New().SetBaseURL(baseURL).SetTimeout(30 * time.Second)}
}

type healthInfo struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Components struct {
		StorageConnected   bool `json:"storage_connected"`
		TelegramConfigured bool `json:"telegram_configured"`
		GeminiAvailable    bool `json:"gemini_available"`
	} `json:"components"`
}

type prediction struct {
	NodeID             string   `json:"node_id"`
	CurrentWaterLevel  float64  `json:"current_water_level"`
	RainIntensity      string   `json:"rain_intensity"`
	IsRaining          bool     `json:"is_raining"`
	FloodRisk          string   `json:"flood_risk"`
	RiskPercentage     float64  `json:"risk_percentage"`
	PredictionSummary  string   `json:"prediction_summary"`
	AIAnalysis         string   `json:"ai_analysis"`
	RecommendedActions []string `json:"recommended_actions"`
	Timestamp          string   `json:"timestamp"`
}

type historyInfo struct {
	NodeID   string `json:"node_id"`
	Count    int    `json:"count"`
	Readings []struct {
		UltrasonicValue float64 `json:"ultrasonic_value"`
		RainSensorValue float64 `json:"rain_sensor_value"`
		Timestamp       string  `json:"timestamp"`
	} `json:"readings"`
}

func (h *hubClient) health(ctx context.Context) (*healthInfo, error) {
	var out healthInfo
	resp, err := h.client.R().SetContext(ctx).SetResult(&out).Get("/api/v1/health")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("health status %d", resp.StatusCode())
	}
	return &out, nil
}

func (h *hubClient) predict(ctx context.Context, nodeID string) (*prediction, error) {
	body := map[string]string{}
	if nodeID != "" {
		body["node_id"] = nodeID
	}
	var out prediction
	resp, err := h.client.R().SetContext(ctx).SetBody(body).SetResult(&out).Post("/api/v1/predict")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("predict status %d", resp.StatusCode())
	}
	return &out, nil
}

func (h *hubClient) history(ctx context.Context, nodeID string, limit int) (*historyInfo, error) {
	req := h.client.R().SetContext(ctx).SetQueryParam("limit", fmt.Sprintf("%d", limit))
	if nodeID != "" {
		req.SetQueryParam("node_id", nodeID)
	}
	var out historyInfo
	resp, err := req.SetResult(&out).Get("/api/v1/history")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("history status %d", resp.StatusCode())
	}
	return &out, nil
}

// bot wires the two clients together with subscriber state and a
// per-node alert cooldown mirroring the hub's own gate discipline.
type bot struct {
	tg            *telegramClient
	hub           *hubClient
	riskThreshold float64
	cooldown      time.Duration
	now           func() time.Time

	mu          sync.Mutex
	subscribers map[int64]struct{}
	lastAlert   map[string]time.Time
}

func newBot(tg *telegramClient, hub *hubClient) *bot {
	return &bot{
		tg:            tg,
		hub:           hub,
		riskThreshold: defaultRiskThreshold,
		cooldown:      defaultCooldown,
		now:           time.Now,
		subscribers:   make(map[int64]struct{}),
		lastAlert:     make(map[string]time.Time),
	}
}

func (b *bot) subscribe(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[chatID] = struct{}{}
}

func (b *bot) unsubscribe(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, chatID)
}

func (b *bot) subscriberIDs() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int64, 0, len(b.subscribers))
	for id := range b.subscribers {
		out = append(out, id)
	}
	return out
}

// handleCommand dispatches one chat command and returns the reply
// text. Unknown input gets a help hint rather than silence.
func (b *bot) handleCommand(ctx context.Context, chatID int64, userName, text string) string {
	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) == 0 {
		return ""
	}
	command := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch command {
	case "/start":
		b.subscribe(chatID)
		return welcomeText(userName, b.riskThreshold)
	case "/unsubscribe":
		b.unsubscribe(chatID)
		return "👋 <b>Unsubscribed</b>\n\nYou will no longer receive flood alerts.\nUse /start to subscribe again anytime."
	case "/status":
		health, err := b.hub.health(ctx)
		if err != nil {
			return "❌ Unable to reach the monitoring system. Please try again later."
		}
		return statusText(health)
	case "/predict":
		p, err := b.hub.predict(ctx, arg)
		if err != nil {
			return "❌ <b>Unable to Generate Prediction</b>\n\nNo sensor data available. Try /status to check system health."
		}
		return predictionText(p)
	case "/history":
		h, err := b.hub.history(ctx, arg, 5)
		if err != nil || h.Count == 0 {
			return "📭 No historical data available."
		}
		return historyText(h)
	case "/help":
		return helpText(b.riskThreshold)
	default:
		return "❓ Unknown command. Use /help to see available commands."
	}
}

func (b *bot) handleUpdate(ctx context.Context, u update) {
	chatID := u.Message.Chat.ID
	if chatID == 0 || u.Message.Text == "" {
		return
	}
	name := u.Message.From.FirstName
	if name == "" {
		name = "User"
	}
	if reply := b.handleCommand(ctx, chatID, name, u.Message.Text); reply != "" {
		b.tg.sendMessage(ctx, chatID, reply)
	}
}

// checkAndAlert pulls the current prediction and pushes it to every
// subscriber when it crosses the alert bar, at most once per node per
// cooldown window.
func (b *bot) checkAndAlert(ctx context.Context) {
	p, err := b.hub.predict(ctx, "")
	if err != nil {
		nuts.L.Warnf("[Bot] Alert check failed: %v", err)
		return
	}

	severe := p.FloodRisk == "high" || p.FloodRisk == "critical"
	if p.RiskPercentage < b.riskThreshold || !severe {
		return
	}
	if !b.tryAcquireCooldown(p.NodeID) {
		return
	}

	text := alertText(p)
	sent := 0
	for _, chatID := range b.subscriberIDs() {
		if b.tg.sendMessage(ctx, chatID, text) {
			sent++
		}
	}
	nuts.L.Infof("[Bot] Flood alert for node %s delivered to %d subscribers", p.NodeID, sent)
}

func (b *bot) tryAcquireCooldown(nodeID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	if last, ok := b.lastAlert[nodeID]; ok && now.Sub(last) < b.cooldown {
		return false
	}
	b.lastAlert[nodeID] = now
	return true
}

func (b *bot) pollLoop(ctx context.Context) {
	var offset int64
	for ctx.Err() == nil {
		updates, err := b.tg.getUpdates(ctx, offset+1)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			nuts.L.Errorf("[Bot] getUpdates failed: %v", err)
			sleepCtx(ctx, 5*time.Second)
			continue
		}
		for _, u := range updates {
			if u.UpdateID > offset {
				offset = u.UpdateID
			}
			b.handleUpdate(ctx, u)
		}
	}
}

func (b *bot) alertLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.checkAndAlert(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func welcomeText(userName string, threshold float64) string {
	return fmt.Sprintf(`🌊 <b>FloodWatch</b>

Welcome, %s! 👋

You are now subscribed to flood alerts. I will notify you when:
⚠️ Flood risk exceeds %.0f%%
🌧️ Heavy rain is detected
🚨 Critical water levels are reached

<b>Available Commands:</b>
/status - Check system status
/predict - Get flood prediction
/history - View recent sensor readings
/help - Show this help message
/unsubscribe - Stop receiving alerts

Stay safe! 🏠`, userName, threshold)
}

func helpText(threshold float64) string {
	return fmt.Sprintf(`📖 <b>Help - Available Commands</b>

/start - Subscribe to flood alerts
/status - Check system status
/predict - Get flood prediction
/predict [node_id] - Predict for a specific node
/history - View recent sensor readings
/history [node_id] - History for a specific node
/unsubscribe - Stop receiving alerts
/help - Show this message

You'll receive automatic alerts when flood risk exceeds %.0f%%.`, threshold)
}

func statusText(h *healthInfo) string {
	mark := func(up bool) string {
		if up {
			return "✅"
		}
		return "⚠️"
	}
	overall := mark(h.Status == "healthy")
	return fmt.Sprintf(`%s <b>System Status: %s</b>

<b>Components:</b>
• Storage: %s
• Telegram: %s
• AI Analysis: %s

<i>Last updated: %s</i>`,
		overall, h.Status,
		mark(h.Components.StorageConnected),
		mark(h.Components.TelegramConfigured),
		mark(h.Components.GeminiAvailable),
		h.Timestamp)
}

func predictionText(p *prediction) string {
	riskEmoji := map[string]string{
		"low":      "🟢",
		"moderate": "🟡",
		"high":     "🟠",
		"critical": "🔴",
	}[p.FloodRisk]
	if riskEmoji == "" {
		riskEmoji = "⚪"
	}

	raining := "No"
	if p.IsRaining {
		raining = "Yes"
	}

	var actionLines []string
	for i, a := range p.RecommendedActions {
		if i == 5 {
			break
		}
		actionLines = append(actionLines, "• "+a)
	}

	return fmt.Sprintf(`%s <b>Flood Prediction Report</b>

📍 <b>Node:</b> %s
💧 <b>Water Level:</b> %.1f cm
🌧️ <b>Rain Intensity:</b> %s
☔ <b>Is Raining:</b> %s

<b>Risk Assessment:</b>
%s %s (%.1f%%)

<b>Summary:</b>
%s

<b>AI Analysis:</b>
%s

<b>Recommended Actions:</b>
%s

<i>Generated: %s</i>`,
		riskEmoji,
		p.NodeID,
		p.CurrentWaterLevel,
		p.RainIntensity,
		raining,
		riskEmoji, strings.ToUpper(p.FloodRisk), p.RiskPercentage,
		p.PredictionSummary,
		p.AIAnalysis,
		strings.Join(actionLines, "\n"),
		p.Timestamp)
}

func historyText(h *historyInfo) string {
	var lines []string
	for i, r := range h.Readings {
		if i == 5 {
			break
		}
		lines = append(lines, fmt.Sprintf("• Water: %.1fcm | Rain: %.0f%%", r.UltrasonicValue, r.RainSensorValue))
	}
	return fmt.Sprintf(`📊 <b>Recent Sensor Readings - %s</b>

%s

<i>Showing last %d readings</i>`, h.NodeID, strings.Join(lines, "\n"), len(lines))
}

func alertText(p *prediction) string {
	emoji := "⚠️"
	if p.FloodRisk == "critical" {
		emoji = "🚨"
	}

	var actionLines []string
	for i, a := range p.RecommendedActions {
		if i == 3 {
			break
		}
		actionLines = append(actionLines, "• "+a)
	}

	analysis := p.AIAnalysis
	if analysis == "" {
		analysis = "Stay alert and monitor conditions."
	}

	return fmt.Sprintf(`%s <b>FLOOD ALERT</b> %s

📍 <b>Node:</b> %s
💧 <b>Water Level:</b> %.1f cm
🌧️ <b>Rain:</b> %s

<b>Risk Level: %s (%.1f%%)</b>

<b>Immediate Actions:</b>
%s

<b>AI Analysis:</b>
%s

<i>Stay safe and follow local authority guidelines!</i>`,
		emoji, emoji,
		p.NodeID,
		p.CurrentWaterLevel,
		p.RainIntensity,
		strings.ToUpper(p.FloodRisk), p.RiskPercentage,
		strings.Join(actionLines, "\n"),
		analysis)
}

func main() {
	var (
		target        = flag.String("target", envOr("BACKEND_API_URL", "http://localhost:8000"), "hub base URL")
		token         = flag.String("token", os.Getenv("TELEGRAM_BOT_TOKEN"), "Telegram bot token")
		telegramAPI   = flag.String("telegram-api", "https://api.telegram.org", "Telegram API base URL")
		alertInterval = flag.Duration("alert-interval", time.Minute, "how often to check for alert conditions")
	)
	flag.Parse()

	if *token == "" {
		nuts.L.Errorf("[Bot] No Telegram bot token (flag -token or TELEGRAM_BOT_TOKEN)")
		os.Exit(1)
	}

	b := newBot(newTelegramClient(*telegramAPI, *token), newHubClient(*target))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := b.hub.health(ctx); err != nil {
		nuts.L.Warnf("[Bot] Hub not reachable yet, will keep retrying: %v", err)
	} else {
		nuts.L.Infof("[Bot] Connected to hub at %s", *target)
	}

	nuts.L.Infof("[Bot] Starting interactive bot, alert check every %s", *alertInterval)
	go b.alertLoop(ctx, *alertInterval)
	b.pollLoop(ctx)
	nuts.L.Infof("[Bot] Stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
