package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"condor-sentinel/internal/condor"
	apperrors "condor-sentinel/internal/errors"
	"condor-sentinel/internal/models"
)

// Ledger owns the two shadow portfolios for the process lifetime. The
// AlwaysTrade portfolio receives an entry every trading day; the Filtered
// portfolio only on GO days. Both settle through the same economics, so
// the only variable between them is participation.
//
// All operations are safe for concurrent use.
type Ledger struct {
	mu              sync.RWMutex
	portfolios      map[models.PortfolioName]*models.PortfolioState
	repo            Repository
	pointMultiplier float64
	logger          zerolog.Logger
	saveFailures    int64
}

// New creates a ledger backed by the given repository, restoring any
// previously saved portfolio state.
func New(ctx context.Context, repo Repository, pointMultiplier float64, logger zerolog.Logger) (*Ledger, error) {
	l := &Ledger{
		portfolios:      make(map[models.PortfolioName]*models.PortfolioState),
		repo:            repo,
		pointMultiplier: pointMultiplier,
		logger:          logger,
	}
	for _, name := range []models.PortfolioName{models.PortfolioAlwaysTrade, models.PortfolioFiltered} {
		state, err := repo.Load(ctx, name)
		if err != nil {
			return nil, apperrors.Wrapf(err, "loading portfolio %s", name)
		}
		if state == nil {
			state = &models.PortfolioState{Name: name}
		}
		l.portfolios[name] = state
	}
	return l, nil
}

// RecordTradeEntry appends an OPEN trade to the named portfolio. A
// portfolio can hold at most one open position; a second entry before
// settlement is a SettlementError. An empty trade ID is assigned.
func (l *Ledger) RecordTradeEntry(ctx context.Context, name models.PortfolioName, trade models.Trade) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.portfolio(name)
	if err != nil {
		return err
	}
	if state.OpenTrade() >= 0 {
		return apperrors.NewSettlementError(string(name), trade.EntryDate, apperrors.ErrOpenTradeExists)
	}

	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	trade.Status = models.TradeOpen
	trade.SettlementPrice = 0
	trade.SettlementDate = ""
	trade.PnL = 0

	state.Trades = append(state.Trades, trade)

	l.logger.Info().
		Str("portfolio", string(name)).
		Str("trade_id", trade.ID).
		Str("entry_date", trade.EntryDate).
		Float64("credit", trade.CreditReceived).
		Msg("Trade entered")

	l.save(ctx, state)
	return nil
}

// SettleOpenTrade locates the unique OPEN trade of the named portfolio,
// computes its P&L at the settlement price, marks it SETTLED and updates
// the portfolio aggregates. Settling with no open trade, or twice for the
// same date, is a SettlementError.
func (l *Ledger) SettleOpenTrade(ctx context.Context, name models.PortfolioName, settlementPrice float64, date string) (models.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.portfolio(name)
	if err != nil {
		return models.Trade{}, err
	}
	if state.SettledOn(date) {
		return models.Trade{}, apperrors.NewSettlementError(string(name), date, apperrors.ErrAlreadySettled)
	}
	idx := state.OpenTrade()
	if idx < 0 {
		return models.Trade{}, apperrors.NewSettlementError(string(name), date, apperrors.ErrNoOpenTrade)
	}

	trade := &state.Trades[idx]
	trade.Status = models.TradeSettled
	trade.SettlementPrice = settlementPrice
	trade.SettlementDate = date
	trade.PnL = condor.Settle(trade.Strikes, trade.CreditReceived, settlementPrice, l.pointMultiplier)

	state.CumulativePnL += trade.PnL
	if trade.PnL >= 0 {
		state.Wins++
	} else {
		state.Losses++
	}

	l.logger.Info().
		Str("portfolio", string(name)).
		Str("trade_id", trade.ID).
		Str("date", date).
		Float64("settlement_price", settlementPrice).
		Float64("pnl", trade.PnL).
		Msg("Trade settled")

	l.save(ctx, state)
	return *trade, nil
}

// FilterEdge returns Filtered cumulative P&L minus AlwaysTrade cumulative
// P&L. Purely derived; never mutates state.
func (l *Ledger) FilterEdge() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.portfolios[models.PortfolioFiltered].CumulativePnL -
		l.portfolios[models.PortfolioAlwaysTrade].CumulativePnL
}

// Portfolio returns a deep copy of the named portfolio's state.
func (l *Ledger) Portfolio(name models.PortfolioName) (*models.PortfolioState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	state, err := l.portfolio(name)
	if err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// SaveFailures returns the number of repository saves that have failed
// since the ledger was created. Failed saves never roll back in-memory
// state; they are logged and counted here.
func (l *Ledger) SaveFailures() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.saveFailures
}

func (l *Ledger) portfolio(name models.PortfolioName) (*models.PortfolioState, error) {
	state, ok := l.portfolios[name]
	if !ok {
		return nil, apperrors.NewValidationError("portfolio", name, "unknown portfolio")
	}
	return state, nil
}

// save hands the current state to the repository. The in-memory copy is
// the source of truth for the running process; a failed save is reported
// and the mutation stands.
func (l *Ledger) save(ctx context.Context, state *models.PortfolioState) {
	if err := l.repo.Save(ctx, state.Clone()); err != nil {
		l.saveFailures++
		l.logger.Error().
			Err(err).
			Str("portfolio", string(state.Name)).
			Msg("Portfolio save failed; in-memory state retained")
	}
}
