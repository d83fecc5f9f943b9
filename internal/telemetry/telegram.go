package telemetry

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"breakout-algo-trader/internal/model"

	"go.uber.org/zap"
)

// TelegramNotifier delivers notifications through the Telegram bot API.
// An empty token disables it, so wiring stays unconditional in main.
type TelegramNotifier struct {
	token   string
	chatID  string
	enabled bool
	client  *http.Client
	logger  *zap.Logger
}

func NewTelegramNotifier(token, chatID string, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		enabled: token != "" && chatID != "",
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger.With(zap.String("sink", "telegram")),
	}
}

// Record is a no-op; telegram carries the human-readable messages only.
func (t *TelegramNotifier) Record(event model.Event) {}

func (t *TelegramNotifier) Notify(message string) {
	if !t.enabled {
		return
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	resp, err := t.client.PostForm(endpoint, url.Values{
		"chat_id": {t.chatID},
		"text":    {message},
	})
	if err != nil {
		t.logger.Error("Failed to send telegram message", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		t.logger.Error("Telegram returned error status", zap.Int("status", resp.StatusCode))
		return
	}
	t.logger.Debug("Telegram message sent", zap.String("message", message))
}
