package models

// TradeStatus represents the lifecycle state of a trade. A trade is
// created OPEN and transitions to SETTLED exactly once.
type TradeStatus string

const (
	TradeOpen    TradeStatus = "OPEN"
	TradeSettled TradeStatus = "SETTLED"
)

// Trade represents one 0DTE iron condor structure in a shadow portfolio.
type Trade struct {
	ID              string      `json:"id"`
	EntryDate       string      `json:"entry_date"` // YYYY-MM-DD
	Strikes         Strikes     `json:"strikes"`
	CreditReceived  float64     `json:"credit"`
	Status          TradeStatus `json:"status"`
	SettlementPrice float64     `json:"settlement_price,omitempty"`
	SettlementDate  string      `json:"settlement_date,omitempty"`
	PnL             float64     `json:"pnl,omitempty"`
}

// PortfolioName identifies one of the two shadow portfolios.
type PortfolioName string

const (
	// PortfolioAlwaysTrade enters a structure every trading day,
	// unconditionally.
	PortfolioAlwaysTrade PortfolioName = "AlwaysTrade"
	// PortfolioFiltered enters only on days the rule engine says GO.
	PortfolioFiltered PortfolioName = "Filtered"
)

// PortfolioState represents a shadow portfolio. Trades are held in
// insertion order, which is chronological. At most one trade is OPEN at
// any time: 0DTE structures cannot overlap.
type PortfolioState struct {
	Name          PortfolioName `json:"name"`
	Trades        []Trade       `json:"trades"`
	CumulativePnL float64       `json:"cumulative_pnl"`
	Wins          int           `json:"wins"`
	Losses        int           `json:"losses"`
}

// OpenTrade returns the index of the unique OPEN trade, or -1.
func (p *PortfolioState) OpenTrade() int {
	for i := range p.Trades {
		if p.Trades[i].Status == TradeOpen {
			return i
		}
	}
	return -1
}

// SettledOn reports whether a trade has already been settled on the
// given date.
func (p *PortfolioState) SettledOn(date string) bool {
	for i := range p.Trades {
		if p.Trades[i].Status == TradeSettled && p.Trades[i].SettlementDate == date {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the portfolio state.
func (p *PortfolioState) Clone() *PortfolioState {
	out := *p
	out.Trades = make([]Trade, len(p.Trades))
	copy(out.Trades, p.Trades)
	return &out
}

// MonitorStatus represents the daemon lifecycle state.
type MonitorStatus string

const (
	MonitorStopped MonitorStatus = "STOPPED"
	MonitorRunning MonitorStatus = "RUNNING"
)

// MonitorHistoryLimit bounds the verdict history kept by the daemon.
// The oldest verdict is evicted first when the limit is exceeded.
const MonitorHistoryLimit = 100

// MonitorState represents the observable state of the monitor daemon.
type MonitorState struct {
	Status       MonitorStatus `json:"status"`
	LastVerdict  *Verdict      `json:"last_verdict,omitempty"`
	History      []Verdict     `json:"history"`
	Checks       int64         `json:"checks"`
	StateChanges int64         `json:"state_changes"`
	Errors       int64         `json:"errors"`
}

// Clone returns a deep copy of the monitor state.
func (m *MonitorState) Clone() *MonitorState {
	out := *m
	if m.LastVerdict != nil {
		v := m.LastVerdict.Clone()
		out.LastVerdict = &v
	}
	out.History = make([]Verdict, 0, len(m.History))
	for _, v := range m.History {
		out.History = append(out.History, v.Clone())
	}
	return &out
}
