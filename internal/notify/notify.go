// Package notify provides notification channels for monitor alerts.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"condor-sentinel/internal/config"
	apperrors "condor-sentinel/internal/errors"
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Channel defines the interface for a single notification channel.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// Notification represents a notification message.
type Notification struct {
	Kind      string                 `json:"kind"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// MultiNotifier fans a notification out to every configured channel.
type MultiNotifier struct {
	mu       sync.RWMutex
	channels []Channel
}

// NewMultiNotifier creates a notifier with the channels the configuration
// enables.
func NewMultiNotifier(cfg config.NotificationConfig) *MultiNotifier {
	mn := &MultiNotifier{}
	if !cfg.Enabled {
		return mn
	}
	if cfg.Terminal {
		mn.channels = append(mn.channels, NewTerminalChannel())
	}
	if cfg.Webhook.Enabled {
		mn.channels = append(mn.channels, NewWebhookChannel(cfg.Webhook))
	}
	if cfg.Telegram.Enabled {
		mn.channels = append(mn.channels, NewTelegramChannel(cfg.Telegram))
	}
	return mn
}

// AddChannel adds a notification channel.
func (mn *MultiNotifier) AddChannel(ch Channel) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels = append(mn.channels, ch)
}

// Send delivers the notification to every channel. Per-channel failures
// are collected into a single AlertError; delivery to the remaining
// channels still happens.
func (mn *MultiNotifier) Send(ctx context.Context, n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	mn.mu.RLock()
	channels := mn.channels
	mn.mu.RUnlock()

	var errs []string
	for _, ch := range channels {
		if err := ch.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
		}
	}
	if len(errs) > 0 {
		return apperrors.NewAlertError("multi", n.Kind, fmt.Errorf("%s", strings.Join(errs, "; ")))
	}
	return nil
}
