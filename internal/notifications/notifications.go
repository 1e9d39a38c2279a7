// Package notifications delivers run summaries to operators. Delivery is
// best-effort: the pipeline logs a failed notification and carries on, it
// never fails a run over one.
package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gavel/internal/config"
	"gavel/internal/logging"
)

// Service publishes operator-facing messages.
type Service interface {
	// Publish sends an HTML-formatted message.
	Publish(ctx context.Context, message string) error
}

// NewFromConfig returns a Telegram-backed service when Telegram is enabled,
// otherwise a no-op service.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) Service {
	tg := cfg.Notifications.Telegram
	if !tg.Enabled {
		return NewNop()
	}
	return NewTelegram(tg.BotToken, tg.ChatID,
		time.Duration(tg.RequestTimeout)*time.Second, logger)
}

const telegramAPIBase = "https://api.telegram.org"

// Telegram sends messages through the Bot API.
type Telegram struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
	logger  *slog.Logger
}

// NewTelegram builds a Telegram service.
func NewTelegram(token, chatID string, timeout time.Duration, logger *slog.Logger) *Telegram {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Telegram{
		baseURL: telegramAPIBase,
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "notifications"),
	}
}

// WithBaseURL overrides the API endpoint (for testing).
func (t *Telegram) WithBaseURL(baseURL string) *Telegram {
	t.baseURL = strings.TrimRight(baseURL, "/")
	return t
}

// Publish sends one message via sendMessage with HTML parse mode.
func (t *Telegram) Publish(ctx context.Context, message string) error {
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", message)
	form.Set("parse_mode", "HTML")

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send telegram message: status %s: %s",
			resp.Status, strings.TrimSpace(string(body)))
	}

	t.logger.Info("telegram notification sent")
	return nil
}

type nop struct{}

// NewNop returns a Service that discards every message.
func NewNop() Service {
	return nop{}
}

func (nop) Publish(context.Context, string) error {
	return nil
}
