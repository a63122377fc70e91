// FilePath: internal/alerting/telegram.go
package alerting

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	nuts "github.com/vaudience/go-nuts"

	"github.com/floodwatch/hub/internal/config"
)

// Notifier is the outbound notification transport. Deliver reports
// success as a boolean and never panics on transport failure.
type Notifier interface {
	Configured() bool
	Deliver(ctx context.Context, text string) bool
}

// TelegramNotifier pushes messages to a Telegram channel via the bot
// API.
type TelegramNotifier struct {
	cfg    config.TelegramConfig
	client *resty.Client
}

// NewTelegramNotifier creates a notifier. Missing token or channel id
// leaves it permanently unconfigured.
func NewTelegramNotifier(cfg config.TelegramConfig) *TelegramNotifier {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)
	return &TelegramNotifier{cfg: cfg, client: client}
}

// Configured reports whether both bot token and channel id are set.
func (t *TelegramNotifier) Configured() bool {
	return t.cfg.BotToken != "" && t.cfg.ChannelID != ""
}

// Deliver sends one HTML-formatted message to the configured channel.
func (t *TelegramNotifier) Deliver(ctx context.Context, text string) bool {
	if !t.Configured() {
		return false
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"chat_id":    t.cfg.ChannelID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", t.cfg.BotToken))
	if err != nil {
		nuts.L.Errorf("[Telegram] Send error: %v", err)
		return false
	}
	if !resp.IsSuccess() {
		nuts.L.Errorf("[Telegram] Send failed: %d - %s", resp.StatusCode(), resp.String())
		return false
	}
	return true
}
