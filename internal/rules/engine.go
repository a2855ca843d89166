// Package rules provides the deterministic entry rule engine.
package rules

import (
	"fmt"
	"math"

	"condor-sentinel/internal/condor"
	"condor-sentinel/internal/config"
	apperrors "condor-sentinel/internal/errors"
	"condor-sentinel/internal/models"
)

// Engine evaluates entry rules against market snapshots. It holds no
// mutable state; Evaluate is deterministic and reentrant.
type Engine struct {
	thresholds config.Thresholds
}

// NewEngine creates a rule engine with the given validated thresholds.
func NewEngine(t config.Thresholds) *Engine {
	return &Engine{thresholds: t}
}

// Evaluate runs every applicable rule against the snapshot and derives
// the overall decision. Rules run in fixed order and all of them run
// regardless of earlier failures, so two identical snapshots always yield
// identical verdicts. When the decision is GO the verdict carries the
// strikes computed from the current spot.
//
// A malformed snapshot yields a DataError and no verdict.
func (e *Engine) Evaluate(snap models.MarketSnapshot, includeAdditional bool) (models.Verdict, error) {
	if err := validateSnapshot(snap, includeAdditional); err != nil {
		return models.Verdict{}, err
	}

	rules := []models.RuleResult{
		e.intradayChange(snap),
		e.economicCalendar(snap),
		e.volatility(snap),
	}
	if includeAdditional {
		rules = append(rules,
			e.maDeviation(snap),
			e.prevDayRange(snap),
		)
	}

	overall := models.Go
	for _, r := range rules {
		if r.Blocking() {
			overall = models.NoGo
			break
		}
	}

	verdict := models.Verdict{
		Overall:   overall,
		Rules:     rules,
		Timestamp: snap.Timestamp,
	}

	if overall == models.Go {
		strikes, err := condor.ComputeStrikes(
			snap.SpotCurrent,
			e.thresholds.OTMPercent,
			e.thresholds.WingWidth,
			e.thresholds.StrikeRoundingUnit,
		)
		if err != nil {
			return models.Verdict{}, err
		}
		verdict.Strikes = &strikes
	}

	return verdict, nil
}

func validateSnapshot(snap models.MarketSnapshot, includeAdditional bool) error {
	if snap.SpotOpen <= 0 {
		return apperrors.NewDataError("spot_open", "missing or non-positive", nil)
	}
	if snap.SpotCurrent <= 0 {
		return apperrors.NewDataError("spot_current", "missing or non-positive", nil)
	}
	if !includeAdditional {
		return nil
	}
	if snap.MA20 <= 0 {
		return apperrors.NewDataError("ma20", "missing or non-positive", nil)
	}
	if snap.PrevDayLow <= 0 || snap.PrevDayHigh < snap.PrevDayLow {
		return apperrors.NewDataError("prev_day_range", "missing or inverted", nil)
	}
	return nil
}

// intradayChange blocks entry when the move from open exceeds the limit.
func (e *Engine) intradayChange(snap models.MarketSnapshot) models.RuleResult {
	pct := snap.IntradayChangePercent()
	if math.Abs(pct) > e.thresholds.IntradayChangeMax {
		return models.RuleResult{
			ID:      models.RuleIntradayChange,
			Status:  models.RuleFail,
			Message: fmt.Sprintf("intraday move %+.2f%% exceeds limit %.2f%%", pct, e.thresholds.IntradayChangeMax),
		}
	}
	return models.RuleResult{
		ID:      models.RuleIntradayChange,
		Status:  models.RulePass,
		Message: fmt.Sprintf("intraday move %+.2f%% within limit %.2f%%", pct, e.thresholds.IntradayChangeMax),
	}
}

// economicCalendar blocks entry when a high-impact event in the watch
// currency is scheduled for the snapshot's date. Marked NOT_APPLICABLE
// when calendar data is absent, e.g. during historical replay.
func (e *Engine) economicCalendar(snap models.MarketSnapshot) models.RuleResult {
	if !snap.HasCalendar() {
		return models.RuleResult{
			ID:      models.RuleEconomicCalendar,
			Status:  models.RuleNotApplicable,
			Message: "calendar data unavailable",
		}
	}

	day := snap.Timestamp.Format("2006-01-02")
	for _, ev := range snap.Events {
		if ev.Impact != models.ImpactHigh {
			continue
		}
		if ev.Currency != e.thresholds.WatchCurrency {
			continue
		}
		if ev.ScheduledAt.Format("2006-01-02") != day {
			continue
		}
		return models.RuleResult{
			ID:      models.RuleEconomicCalendar,
			Status:  models.RuleFail,
			Message: fmt.Sprintf("high-impact %s event today: %s", ev.Currency, ev.Name),
		}
	}
	return models.RuleResult{
		ID:      models.RuleEconomicCalendar,
		Status:  models.RulePass,
		Message: "no high-impact events scheduled today",
	}
}

// volatility warns on an elevated volatility index. It never blocks.
func (e *Engine) volatility(snap models.MarketSnapshot) models.RuleResult {
	if snap.VolatilityIndex > e.thresholds.VolatilityWarn {
		return models.RuleResult{
			ID:      models.RuleVolatility,
			Status:  models.RuleWarn,
			Message: fmt.Sprintf("volatility index %.2f above %.2f", snap.VolatilityIndex, e.thresholds.VolatilityWarn),
		}
	}
	return models.RuleResult{
		ID:      models.RuleVolatility,
		Status:  models.RulePass,
		Message: fmt.Sprintf("volatility index %.2f within range", snap.VolatilityIndex),
	}
}

// maDeviation blocks entry when spot has stretched too far from its
// 20-day moving average.
func (e *Engine) maDeviation(snap models.MarketSnapshot) models.RuleResult {
	deviation := (snap.SpotCurrent - snap.MA20) / snap.MA20 * 100
	if math.Abs(deviation) > e.thresholds.MADeviationMax {
		return models.RuleResult{
			ID:      models.RuleMADeviation,
			Status:  models.RuleFail,
			Message: fmt.Sprintf("MA20 deviation %+.2f%% exceeds limit %.2f%%", deviation, e.thresholds.MADeviationMax),
		}
	}
	return models.RuleResult{
		ID:      models.RuleMADeviation,
		Status:  models.RulePass,
		Message: fmt.Sprintf("MA20 deviation %+.2f%% within limit %.2f%%", deviation, e.thresholds.MADeviationMax),
	}
}

// prevDayRange blocks entry after an unusually wide previous session.
func (e *Engine) prevDayRange(snap models.MarketSnapshot) models.RuleResult {
	rangePct := (snap.PrevDayHigh - snap.PrevDayLow) / snap.PrevDayLow * 100
	if rangePct > e.thresholds.PrevDayRangeMax {
		return models.RuleResult{
			ID:      models.RulePrevDayRange,
			Status:  models.RuleFail,
			Message: fmt.Sprintf("previous day range %.2f%% exceeds limit %.2f%%", rangePct, e.thresholds.PrevDayRangeMax),
		}
	}
	return models.RuleResult{
		ID:      models.RulePrevDayRange,
		Status:  models.RulePass,
		Message: fmt.Sprintf("previous day range %.2f%% within limit %.2f%%", rangePct, e.thresholds.PrevDayRangeMax),
	}
}
