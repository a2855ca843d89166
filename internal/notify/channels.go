package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"condor-sentinel/internal/config"
)

// TerminalChannel prints notifications to stdout.
type TerminalChannel struct {
	warn  *color.Color
	title *color.Color
}

// NewTerminalChannel creates a terminal notification channel.
func NewTerminalChannel() *TerminalChannel {
	return &TerminalChannel{
		warn:  color.New(color.FgYellow),
		title: color.New(color.Bold),
	}
}

// Name implements Channel.
func (t *TerminalChannel) Name() string { return "terminal" }

// Send implements Channel.
func (t *TerminalChannel) Send(_ context.Context, n Notification) error {
	t.title.Fprintf(os.Stdout, "[%s] %s\n", n.Timestamp.Format("15:04:05"), n.Title)
	if n.Message != "" {
		t.warn.Fprintf(os.Stdout, "  %s\n", n.Message)
	}
	return nil
}

// WebhookChannel posts notifications as JSON to a configured URL.
type WebhookChannel struct {
	cfg    config.WebhookConfig
	client *http.Client
}

// NewWebhookChannel creates a webhook notification channel.
func NewWebhookChannel(cfg config.WebhookConfig) *WebhookChannel {
	return &WebhookChannel{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements Channel.
func (w *WebhookChannel) Name() string { return "webhook" }

// Send implements Channel.
func (w *WebhookChannel) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// TelegramChannel sends notifications through the Telegram bot API.
type TelegramChannel struct {
	cfg    config.TelegramConfig
	client *http.Client
}

// NewTelegramChannel creates a Telegram notification channel.
func NewTelegramChannel(cfg config.TelegramConfig) *TelegramChannel {
	return &TelegramChannel{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements Channel.
func (t *TelegramChannel) Name() string { return "telegram" }

// Send implements Channel.
func (t *TelegramChannel) Send(ctx context.Context, n Notification) error {
	text := n.Title
	if n.Message != "" {
		text += "\n" + n.Message
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.cfg.BotToken)
	form := url.Values{}
	form.Set("chat_id", t.cfg.ChatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}
