// Package backtest provides historical replay of the entry rules and
// structure economics over daily snapshots.
package backtest

import (
	"condor-sentinel/internal/condor"
	"condor-sentinel/internal/config"
	apperrors "condor-sentinel/internal/errors"
	"condor-sentinel/internal/models"
	"condor-sentinel/internal/rules"
)

// DayResult represents the outcome of one replayed session.
type DayResult struct {
	Date          string          `json:"date"`
	Overall       models.Overall  `json:"overall"`
	Strikes       *models.Strikes `json:"strikes,omitempty"`
	PnL           float64         `json:"pnl"`
	CumulativePnL float64         `json:"cumulative_pnl"`
}

// Report aggregates a full backtest run.
type Report struct {
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	TotalDays   int         `json:"total_days"`
	TradedDays  int         `json:"traded_days"`
	Wins        int         `json:"wins"`
	Losses      int         `json:"losses"`
	TotalPnL    float64     `json:"total_pnl"`
	WinRate     float64     `json:"win_rate"`
	AvgPnL      float64     `json:"avg_pnl"`
	MaxDrawdown float64     `json:"max_drawdown"`
	BestDay     float64     `json:"best_day"`
	WorstDay    float64     `json:"worst_day"`
	Days        []DayResult `json:"days"`
}

// Simulator replays historical snapshots through the rule engine and the
// structure economics. A run carries no mutable state beyond its returned
// report: the same input sequence always reproduces the same output.
type Simulator struct {
	thresholds config.Thresholds
	engine     *rules.Engine
}

// NewSimulator creates a simulator with the given validated thresholds.
func NewSimulator(t config.Thresholds) *Simulator {
	return &Simulator{thresholds: t, engine: rules.NewEngine(t)}
}

// Run replays the snapshots in order. Each day is processed
// independently: the calendar rule is NOT_APPLICABLE (no historical
// calendar data), a GO day opens a structure at the day's open and
// settles it at that day's close, the 0DTE expiry. The credit received
// per structure is fixed for the whole run.
func (s *Simulator) Run(snapshots []models.MarketSnapshot, credit float64) (*Report, error) {
	report := &Report{Days: make([]DayResult, 0, len(snapshots))}

	var cumulative, peak, maxDrawdown float64
	first := true

	for _, snap := range snapshots {
		// Strip any calendar entries so the calendar rule reports
		// NOT_APPLICABLE, the defined historical-replay behavior.
		snap.Events = nil

		date := snap.Timestamp.Format("2006-01-02")
		verdict, err := s.engine.Evaluate(snap, true)
		if err != nil {
			return nil, apperrors.Wrapf(err, "evaluating %s", date)
		}

		day := DayResult{Date: date, Overall: verdict.Overall}

		if verdict.Overall == models.Go {
			// The structure is entered at the session open and expires at
			// the close carried in SpotCurrent.
			strikes, err := condor.ComputeStrikes(
				snap.SpotOpen,
				s.thresholds.OTMPercent,
				s.thresholds.WingWidth,
				s.thresholds.StrikeRoundingUnit,
			)
			if err != nil {
				return nil, apperrors.Wrapf(err, "computing strikes for %s", date)
			}
			pnl := condor.Settle(strikes, credit, snap.SpotCurrent, s.thresholds.PointMultiplier)

			day.Strikes = &strikes
			day.PnL = pnl

			report.TradedDays++
			report.TotalPnL += pnl
			cumulative += pnl
			if pnl >= 0 {
				report.Wins++
			} else {
				report.Losses++
			}
			if first || pnl > report.BestDay {
				report.BestDay = pnl
			}
			if first || pnl < report.WorstDay {
				report.WorstDay = pnl
			}
			first = false

			if cumulative > peak {
				peak = cumulative
			}
			if dd := peak - cumulative; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}

		day.CumulativePnL = cumulative
		report.Days = append(report.Days, day)
		report.TotalDays++

		if report.StartDate == "" {
			report.StartDate = date
		}
		report.EndDate = date
	}

	report.MaxDrawdown = maxDrawdown
	if report.TradedDays > 0 {
		report.WinRate = float64(report.Wins) / float64(report.TradedDays) * 100
		report.AvgPnL = report.TotalPnL / float64(report.TradedDays)
	}

	return report, nil
}
