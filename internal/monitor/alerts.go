package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"condor-sentinel/internal/notify"
)

// AlertManager rate limits outgoing alerts: at most one alert per
// distinct event kind within the cooldown window. Events arriving inside
// an active cooldown are dropped, not queued.
type AlertManager struct {
	mu        sync.Mutex
	notifier  notify.Notifier
	cooldown  time.Duration
	lastSent  map[string]time.Time
	dropped   int64
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAlertManager creates an alert manager over the given notifier.
func NewAlertManager(notifier notify.Notifier, cooldown time.Duration, logger zerolog.Logger) *AlertManager {
	return &AlertManager{
		notifier: notifier,
		cooldown: cooldown,
		lastSent: make(map[string]time.Time),
		logger:   logger,
		now:      time.Now,
	}
}

// Notify dispatches an alert for the event unless its kind is inside an
// active cooldown. It reports whether the alert was dispatched. Delivery
// failures are logged and never propagate: an undeliverable alert must
// not block the monitor cycle.
func (m *AlertManager) Notify(ctx context.Context, event ChangeEvent) bool {
	key := event.Key()

	m.mu.Lock()
	now := m.now()
	if last, ok := m.lastSent[key]; ok && now.Sub(last) < m.cooldown {
		m.dropped++
		m.mu.Unlock()
		return false
	}
	m.lastSent[key] = now
	m.mu.Unlock()

	err := m.notifier.Send(ctx, notify.Notification{
		Kind:      key,
		Title:     string(event.Kind),
		Message:   event.Message,
		Timestamp: event.Timestamp,
	})
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("kind", key).
			Msg("Alert delivery failed")
	}
	return true
}

// Dropped returns the number of events dropped by the cooldown.
func (m *AlertManager) Dropped() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}
