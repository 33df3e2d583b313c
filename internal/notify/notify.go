// Package notify delivers operator notifications.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/safar/go-storefront/internal/config"
)

// Telegram sends notifications as Telegram messages. The destination is a
// numeric chat id.
type Telegram struct {
	api *tgbotapi.BotAPI
}

// NewTelegram connects to the Bot API. An empty endpoint means the public
// Telegram API; otherwise it uses the "https://host/bot%s/%s" form. Every
// request is bounded by cfg.Timeout.
func NewTelegram(cfg config.NotifyConfig, endpoint string) (*Telegram, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	client := &http.Client{Timeout: cfg.Timeout}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &Telegram{api: api}, nil
}

func (t *Telegram) Notify(ctx context.Context, destination, message string) error {
	chatID, err := strconv.ParseInt(destination, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", destination, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := t.api.Send(tgbotapi.NewMessage(chatID, message)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// LogNotifier writes notifications to the log. It is used when no
// messaging backend is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, destination, message string) error {
	n.Logger.InfoContext(ctx, "notification", "destination", destination, "message", message)
	return nil
}
