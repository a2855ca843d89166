// Package models provides domain models for the condor sentinel.
package models

import (
	"time"
)

// ImpactLevel represents the market impact level of an economic event.
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "LOW"
	ImpactMedium ImpactLevel = "MEDIUM"
	ImpactHigh   ImpactLevel = "HIGH"
)

// EconomicEvent represents a scheduled economic calendar entry.
type EconomicEvent struct {
	Name        string      `json:"name"`
	Currency    string      `json:"currency"`
	Impact      ImpactLevel `json:"impact"`
	ScheduledAt time.Time   `json:"scheduled_at"`
}

// MarketSnapshot represents the market state at a single point in time.
// A snapshot is immutable once constructed; components copy, never mutate.
//
// Events carries the economic calendar for the snapshot's date. A nil
// slice means calendar data is unavailable (historical replay); an empty
// non-nil slice means the calendar is known and has no entries.
type MarketSnapshot struct {
	Timestamp       time.Time       `json:"timestamp"`
	SpotOpen        float64         `json:"spot_open"`
	SpotCurrent     float64         `json:"spot_current"`
	VolatilityIndex float64         `json:"volatility_index"`
	MA20            float64         `json:"ma20"`
	PrevDayHigh     float64         `json:"prev_day_high"`
	PrevDayLow      float64         `json:"prev_day_low"`
	Events          []EconomicEvent `json:"events,omitempty"`
}

// IntradayChangePercent returns the percentage move from open to current.
func (s MarketSnapshot) IntradayChangePercent() float64 {
	if s.SpotOpen == 0 {
		return 0
	}
	return (s.SpotCurrent - s.SpotOpen) / s.SpotOpen * 100
}

// HasCalendar reports whether calendar data is present for this snapshot.
func (s MarketSnapshot) HasCalendar() bool {
	return s.Events != nil
}
