// Package monitor provides the polling monitor daemon, its state change
// detection and rate-limited alerting.
package monitor

import (
	"fmt"
	"math"
	"time"

	"condor-sentinel/internal/models"
)

// ChangeKind identifies a kind of detected state change.
type ChangeKind string

const (
	// VerdictFlipped fires when the overall decision changed between
	// consecutive checks.
	VerdictFlipped ChangeKind = "VERDICT_FLIPPED"
	// RuleStatusChanged fires once per rule whose status changed.
	RuleStatusChanged ChangeKind = "RULE_STATUS_CHANGED"
	// PriceMove fires when spot moved more than the configured
	// percentage since the previous check.
	PriceMove ChangeKind = "PRICE_MOVE"
)

// ChangeEvent represents one detected change between consecutive checks.
type ChangeEvent struct {
	Kind      ChangeKind `json:"kind"`
	RuleID    string     `json:"rule_id,omitempty"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

// Key returns the identity used for alert rate limiting. Rule status
// events are keyed per rule so one noisy rule cannot silence the others.
func (e ChangeEvent) Key() string {
	if e.RuleID != "" {
		return string(e.Kind) + ":" + e.RuleID
	}
	return string(e.Kind)
}

// Detector compares consecutive verdicts and snapshots. Detection is
// stateless: everything it needs is in its two arguments.
type Detector struct {
	priceMovePct float64
}

// NewDetector creates a detector that flags spot moves larger than
// priceMovePct percent between consecutive checks.
func NewDetector(priceMovePct float64) *Detector {
	return &Detector{priceMovePct: priceMovePct}
}

// Compare produces zero or more change events between the previous and
// current check.
func (d *Detector) Compare(prev, curr models.Verdict, prevSnap, currSnap models.MarketSnapshot) []ChangeEvent {
	var events []ChangeEvent

	if prev.Overall != curr.Overall {
		events = append(events, ChangeEvent{
			Kind:      VerdictFlipped,
			Message:   fmt.Sprintf("verdict flipped %s -> %s", prev.Overall, curr.Overall),
			Timestamp: curr.Timestamp,
		})
	}

	for _, r := range curr.Rules {
		prevRule, ok := prev.Rule(r.ID)
		if !ok || prevRule.Status == r.Status {
			continue
		}
		events = append(events, ChangeEvent{
			Kind:      RuleStatusChanged,
			RuleID:    r.ID,
			Message:   fmt.Sprintf("rule %s changed %s -> %s: %s", r.ID, prevRule.Status, r.Status, r.Message),
			Timestamp: curr.Timestamp,
		})
	}

	if prevSnap.SpotCurrent > 0 {
		movePct := (currSnap.SpotCurrent - prevSnap.SpotCurrent) / prevSnap.SpotCurrent * 100
		if math.Abs(movePct) > d.priceMovePct {
			events = append(events, ChangeEvent{
				Kind:      PriceMove,
				Message:   fmt.Sprintf("spot moved %+.2f%% since last check (%.2f -> %.2f)", movePct, prevSnap.SpotCurrent, currSnap.SpotCurrent),
				Timestamp: curr.Timestamp,
			})
		}
	}

	return events
}
