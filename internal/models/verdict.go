package models

import "time"

// RuleStatus represents the outcome of a single entry rule.
type RuleStatus string

const (
	RulePass          RuleStatus = "PASS"
	RuleFail          RuleStatus = "FAIL"
	RuleWarn          RuleStatus = "WARN"
	RuleNotApplicable RuleStatus = "NOT_APPLICABLE"
)

// Rule identifiers, in fixed evaluation order.
const (
	RuleIntradayChange   = "intraday_change"
	RuleEconomicCalendar = "economic_calendar"
	RuleVolatility       = "volatility"
	RuleMADeviation      = "ma_deviation"
	RulePrevDayRange     = "prev_day_range"
)

// RuleResult represents the evaluated outcome of one rule.
type RuleResult struct {
	ID      string     `json:"id"`
	Status  RuleStatus `json:"status"`
	Message string     `json:"message"`
}

// Blocking reports whether this result blocks entry. Only FAIL blocks;
// WARN and NOT_APPLICABLE never do.
func (r RuleResult) Blocking() bool {
	return r.Status == RuleFail
}

// Overall represents the overall entry decision.
type Overall string

const (
	Go   Overall = "GO"
	NoGo Overall = "NO_GO"
)

// Strikes represents the four legs of an iron condor.
type Strikes struct {
	ShortCall float64 `json:"short_call"`
	ShortPut  float64 `json:"short_put"`
	LongCall  float64 `json:"long_call"`
	LongPut   float64 `json:"long_put"`
}

// WingWidth returns the point distance between a short strike and its
// protective long strike. Both wings are equal by construction.
func (s Strikes) WingWidth() float64 {
	return s.LongCall - s.ShortCall
}

// Verdict represents the result of evaluating all entry rules against a
// market snapshot. Rules holds every evaluated rule in fixed order.
// Invariant: Overall == GO iff no rule has status FAIL.
type Verdict struct {
	Overall   Overall      `json:"overall"`
	Rules     []RuleResult `json:"rules"`
	Strikes   *Strikes     `json:"strikes,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// Rule returns the result for the given rule ID, if present.
func (v Verdict) Rule(id string) (RuleResult, bool) {
	for _, r := range v.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return RuleResult{}, false
}

// Clone returns a deep copy of the verdict.
func (v Verdict) Clone() Verdict {
	out := v
	out.Rules = make([]RuleResult, len(v.Rules))
	copy(out.Rules, v.Rules)
	if v.Strikes != nil {
		s := *v.Strikes
		out.Strikes = &s
	}
	return out
}
