package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	apperrors "condor-sentinel/internal/errors"
	"condor-sentinel/internal/models"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := New(context.Background(), NewMemoryRepository(), 10, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func sampleTrade(date string) models.Trade {
	return models.Trade{
		EntryDate: date,
		Strikes: models.Strikes{
			ShortCall: 5175, ShortPut: 5073,
			LongCall: 5225, LongPut: 5023,
		},
		CreditReceived: 2.50,
	}
}

func TestRecordTradeEntry_AssignsIDAndOpens(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if err := l.RecordTradeEntry(ctx, models.PortfolioAlwaysTrade, sampleTrade("2024-03-15")); err != nil {
		t.Fatalf("RecordTradeEntry: %v", err)
	}

	state, err := l.Portfolio(models.PortfolioAlwaysTrade)
	if err != nil {
		t.Fatalf("Portfolio: %v", err)
	}
	if len(state.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(state.Trades))
	}
	got := state.Trades[0]
	if got.ID == "" {
		t.Error("trade ID not assigned")
	}
	if got.Status != models.TradeOpen {
		t.Errorf("status = %s, want OPEN", got.Status)
	}
}

func TestRecordTradeEntry_SecondOpenRejected(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if err := l.RecordTradeEntry(ctx, models.PortfolioFiltered, sampleTrade("2024-03-15")); err != nil {
		t.Fatalf("first entry: %v", err)
	}
	err := l.RecordTradeEntry(ctx, models.PortfolioFiltered, sampleTrade("2024-03-15"))
	if !apperrors.Is(err, apperrors.ErrOpenTradeExists) {
		t.Errorf("error = %v, want ErrOpenTradeExists", err)
	}

	// The other portfolio is unaffected.
	if err := l.RecordTradeEntry(ctx, models.PortfolioAlwaysTrade, sampleTrade("2024-03-15")); err != nil {
		t.Errorf("AlwaysTrade entry blocked by Filtered position: %v", err)
	}
}

func TestSettleOpenTrade(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if err := l.RecordTradeEntry(ctx, models.PortfolioAlwaysTrade, sampleTrade("2024-03-15")); err != nil {
		t.Fatalf("RecordTradeEntry: %v", err)
	}

	// Settles inside the short strikes: full credit kept.
	trade, err := l.SettleOpenTrade(ctx, models.PortfolioAlwaysTrade, 5124.32, "2024-03-15")
	if err != nil {
		t.Fatalf("SettleOpenTrade: %v", err)
	}
	if trade.Status != models.TradeSettled {
		t.Errorf("status = %s, want SETTLED", trade.Status)
	}
	if trade.PnL != 25.0 {
		t.Errorf("pnl = %v, want 25.0", trade.PnL)
	}
	if trade.SettlementDate != "2024-03-15" {
		t.Errorf("settlement date = %q", trade.SettlementDate)
	}

	state, _ := l.Portfolio(models.PortfolioAlwaysTrade)
	if state.Wins != 1 || state.Losses != 0 {
		t.Errorf("wins/losses = %d/%d, want 1/0", state.Wins, state.Losses)
	}
	if state.CumulativePnL != 25.0 {
		t.Errorf("cumulative = %v, want 25.0", state.CumulativePnL)
	}
}

func TestSettleOpenTrade_NoOpenTrade(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.SettleOpenTrade(context.Background(), models.PortfolioFiltered, 5100, "2024-03-15")
	if !apperrors.Is(err, apperrors.ErrNoOpenTrade) {
		t.Errorf("error = %v, want ErrNoOpenTrade", err)
	}
}

func TestSettleOpenTrade_SameDateTwice(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if err := l.RecordTradeEntry(ctx, models.PortfolioAlwaysTrade, sampleTrade("2024-03-15")); err != nil {
		t.Fatalf("RecordTradeEntry: %v", err)
	}
	if _, err := l.SettleOpenTrade(ctx, models.PortfolioAlwaysTrade, 5100, "2024-03-15"); err != nil {
		t.Fatalf("first settlement: %v", err)
	}

	_, err := l.SettleOpenTrade(ctx, models.PortfolioAlwaysTrade, 5100, "2024-03-15")
	if !apperrors.Is(err, apperrors.ErrAlreadySettled) {
		t.Errorf("error = %v, want ErrAlreadySettled", err)
	}
}

func TestSettleOpenTrade_LossCounted(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if err := l.RecordTradeEntry(ctx, models.PortfolioAlwaysTrade, sampleTrade("2024-03-15")); err != nil {
		t.Fatalf("RecordTradeEntry: %v", err)
	}
	trade, err := l.SettleOpenTrade(ctx, models.PortfolioAlwaysTrade, 5300, "2024-03-15")
	if err != nil {
		t.Fatalf("SettleOpenTrade: %v", err)
	}
	if trade.PnL != -475.0 {
		t.Errorf("pnl = %v, want -475.0", trade.PnL)
	}
	state, _ := l.Portfolio(models.PortfolioAlwaysTrade)
	if state.Wins != 0 || state.Losses != 1 {
		t.Errorf("wins/losses = %d/%d, want 0/1", state.Wins, state.Losses)
	}
}

// Over any sequence of trading days, the filter edge equals the sum of
// AlwaysTrade losses avoided minus AlwaysTrade gains missed on NO_GO days.
func TestFilterEdge_Accounting(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	days := []struct {
		date       string
		settlement float64
		filteredIn bool
	}{
		{"2024-03-11", 5124.32, true},  // both win +25
		{"2024-03-12", 5300.00, false}, // AlwaysTrade loses 475, Filtered out
		{"2024-03-13", 5100.00, true},  // both win +25
		{"2024-03-14", 5040.00, false}, // AlwaysTrade loses inside wing, Filtered out
		{"2024-03-15", 5150.00, false}, // AlwaysTrade wins, Filtered misses it
	}

	var wantEdge float64
	for _, day := range days {
		if err := l.RecordTradeEntry(ctx, models.PortfolioAlwaysTrade, sampleTrade(day.date)); err != nil {
			t.Fatalf("%s AlwaysTrade entry: %v", day.date, err)
		}
		if day.filteredIn {
			if err := l.RecordTradeEntry(ctx, models.PortfolioFiltered, sampleTrade(day.date)); err != nil {
				t.Fatalf("%s Filtered entry: %v", day.date, err)
			}
		}

		always, err := l.SettleOpenTrade(ctx, models.PortfolioAlwaysTrade, day.settlement, day.date)
		if err != nil {
			t.Fatalf("%s AlwaysTrade settle: %v", day.date, err)
		}
		if day.filteredIn {
			filtered, err := l.SettleOpenTrade(ctx, models.PortfolioFiltered, day.settlement, day.date)
			if err != nil {
				t.Fatalf("%s Filtered settle: %v", day.date, err)
			}
			wantEdge += filtered.PnL - always.PnL
		} else {
			wantEdge -= always.PnL
		}
	}

	if got := l.FilterEdge(); got != wantEdge {
		t.Errorf("FilterEdge = %v, want %v", got, wantEdge)
	}
}

func TestNew_RestoresPersistedState(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first, err := New(ctx, repo, 10, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.RecordTradeEntry(ctx, models.PortfolioAlwaysTrade, sampleTrade("2024-03-15")); err != nil {
		t.Fatalf("RecordTradeEntry: %v", err)
	}
	if _, err := first.SettleOpenTrade(ctx, models.PortfolioAlwaysTrade, 5100, "2024-03-15"); err != nil {
		t.Fatalf("SettleOpenTrade: %v", err)
	}

	second, err := New(ctx, repo, 10, zerolog.Nop())
	if err != nil {
		t.Fatalf("New (restore): %v", err)
	}
	state, _ := second.Portfolio(models.PortfolioAlwaysTrade)
	if state.CumulativePnL != 25.0 || state.Wins != 1 {
		t.Errorf("restored state: pnl=%v wins=%d, want 25.0/1", state.CumulativePnL, state.Wins)
	}
	// The restored process can settle the next day but not the same day.
	if err := second.RecordTradeEntry(ctx, models.PortfolioAlwaysTrade, sampleTrade("2024-03-16")); err != nil {
		t.Fatalf("next-day entry: %v", err)
	}
	_, err = second.SettleOpenTrade(ctx, models.PortfolioAlwaysTrade, 5100, "2024-03-15")
	if !apperrors.Is(err, apperrors.ErrAlreadySettled) {
		t.Errorf("error = %v, want ErrAlreadySettled after restore", err)
	}
}

type failingRepo struct {
	loadErr error
	saveErr error
}

func (r *failingRepo) Load(context.Context, models.PortfolioName) (*models.PortfolioState, error) {
	return nil, r.loadErr
}

func (r *failingRepo) Save(context.Context, *models.PortfolioState) error {
	return r.saveErr
}

func TestSaveFailure_StateRetained(t *testing.T) {
	repo := &failingRepo{saveErr: fmt.Errorf("disk full")}
	ctx := context.Background()

	l, err := New(ctx, repo, 10, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := l.RecordTradeEntry(ctx, models.PortfolioAlwaysTrade, sampleTrade("2024-03-15")); err != nil {
		t.Fatalf("RecordTradeEntry: %v", err)
	}
	if _, err := l.SettleOpenTrade(ctx, models.PortfolioAlwaysTrade, 5100, "2024-03-15"); err != nil {
		t.Fatalf("SettleOpenTrade: %v", err)
	}

	// Both mutations succeeded in memory despite failed saves.
	state, _ := l.Portfolio(models.PortfolioAlwaysTrade)
	if state.CumulativePnL != 25.0 {
		t.Errorf("cumulative = %v, want 25.0", state.CumulativePnL)
	}
	if got := l.SaveFailures(); got != 2 {
		t.Errorf("SaveFailures = %d, want 2", got)
	}
}

func TestNew_LoadFailurePropagates(t *testing.T) {
	repo := &failingRepo{loadErr: fmt.Errorf("corrupt database")}
	_, err := New(context.Background(), repo, 10, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestPortfolio_ReturnsDeepCopy(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if err := l.RecordTradeEntry(ctx, models.PortfolioAlwaysTrade, sampleTrade("2024-03-15")); err != nil {
		t.Fatalf("RecordTradeEntry: %v", err)
	}

	state, _ := l.Portfolio(models.PortfolioAlwaysTrade)
	state.Trades[0].CreditReceived = 999
	state.CumulativePnL = 12345

	fresh, _ := l.Portfolio(models.PortfolioAlwaysTrade)
	if fresh.Trades[0].CreditReceived == 999 || fresh.CumulativePnL == 12345 {
		t.Error("mutating returned state leaked into the ledger")
	}
}
