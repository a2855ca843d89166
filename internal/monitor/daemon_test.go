package monitor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"condor-sentinel/internal/config"
	apperrors "condor-sentinel/internal/errors"
	"condor-sentinel/internal/ledger"
	"condor-sentinel/internal/models"
)

// scriptedProvider replays a fixed sequence of snapshots, repeating the
// last one when the script runs out.
type scriptedProvider struct {
	mu    sync.Mutex
	snaps []models.MarketSnapshot
	errs  []error
	calls int
}

func (p *scriptedProvider) Snapshot(context.Context) (models.MarketSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return models.MarketSnapshot{}, p.errs[i]
	}
	if i >= len(p.snaps) {
		i = len(p.snaps) - 1
	}
	return p.snaps[i], nil
}

func daemonThresholds() config.Thresholds {
	return config.Thresholds{
		VolatilityWarn:     22.0,
		IntradayChangeMax:  1.0,
		OTMPercent:         1.0,
		WingWidth:          50,
		MADeviationMax:     2.0,
		PrevDayRangeMax:    2.0,
		StrikeRoundingUnit: 1,
		PointMultiplier:    10,
		WatchCurrency:      "USD",
		CreditReceived:     2.5,
	}
}

func daemonConfig() config.MonitorConfig {
	return config.MonitorConfig{
		Interval:      time.Minute,
		FetchTimeout:  time.Second,
		AlertCooldown: 5 * time.Minute,
		PriceMovePct:  0.5,
		ExtendedRules: true,
	}
}

func calmSnap(date string, spot float64) models.MarketSnapshot {
	ts, _ := time.Parse("2006-01-02", date)
	return models.MarketSnapshot{
		Timestamp:       ts.Add(15 * time.Hour),
		SpotOpen:        spot,
		SpotCurrent:     spot,
		VolatilityIndex: 18.0,
		MA20:            spot,
		PrevDayHigh:     spot * 1.005,
		PrevDayLow:      spot * 0.995,
		Events:          []models.EconomicEvent{},
	}
}

func newTestDaemon(t *testing.T, p *scriptedProvider, withLedger bool) (*Daemon, *recordingNotifier, *ledger.Ledger) {
	t.Helper()
	sink := &recordingNotifier{}
	alerts := NewAlertManager(sink, 5*time.Minute, zerolog.Nop())

	var book *ledger.Ledger
	if withLedger {
		var err error
		book, err = ledger.New(context.Background(), ledger.NewMemoryRepository(), 10, zerolog.Nop())
		if err != nil {
			t.Fatalf("ledger.New: %v", err)
		}
	}
	return New(daemonConfig(), daemonThresholds(), p, alerts, book, zerolog.Nop()), sink, book
}

func TestDaemon_Lifecycle(t *testing.T) {
	p := &scriptedProvider{snaps: []models.MarketSnapshot{calmSnap("2024-03-15", 5100)}}
	d, _, _ := newTestDaemon(t, p, false)

	if d.Status() != models.MonitorStopped {
		t.Fatalf("initial status = %s, want STOPPED", d.Status())
	}
	if err := d.Stop(); !apperrors.Is(err, apperrors.ErrNotRunning) {
		t.Errorf("Stop while stopped = %v, want ErrNotRunning", err)
	}

	if err := d.Start(time.Minute); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if d.Status() != models.MonitorRunning {
		t.Errorf("status after Start = %s, want RUNNING", d.Status())
	}
	if err := d.Start(time.Minute); !apperrors.Is(err, apperrors.ErrAlreadyRunning) {
		t.Errorf("second Start = %v, want ErrAlreadyRunning", err)
	}

	if err := d.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if d.Status() != models.MonitorStopped {
		t.Errorf("status after Stop = %s, want STOPPED", d.Status())
	}

	// A stopped daemon can be restarted.
	if err := d.Start(time.Minute); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := d.Stop(); err != nil {
		t.Fatalf("Stop after restart: %v", err)
	}

	// The immediate check on each Start ran at least twice.
	if state := d.State(); state.Checks < 2 {
		t.Errorf("checks = %d, want >= 2", state.Checks)
	}
}

func TestDaemon_FetchFailureCountedAndRecovered(t *testing.T) {
	snap := calmSnap("2024-03-15", 5100)
	p := &scriptedProvider{
		snaps: []models.MarketSnapshot{snap, snap, snap},
		errs:  []error{nil, fmt.Errorf("feed timeout"), nil},
	}
	d, _, _ := newTestDaemon(t, p, false)

	d.cycle()
	d.cycle() // fails
	d.cycle()

	state := d.State()
	if state.Checks != 2 {
		t.Errorf("checks = %d, want 2 (failed cycle not counted)", state.Checks)
	}
	if state.Errors != 1 {
		t.Errorf("errors = %d, want 1", state.Errors)
	}
	// The last good verdict survived the failed cycle.
	if state.LastVerdict == nil {
		t.Error("last verdict lost after transient failure")
	}
}

func TestDaemon_DetectsFlipAndAlerts(t *testing.T) {
	calm := calmSnap("2024-03-15", 5100)
	spiked := calm
	spiked.SpotCurrent = calm.SpotOpen * 1.02

	p := &scriptedProvider{snaps: []models.MarketSnapshot{calm, spiked}}
	d, sink, _ := newTestDaemon(t, p, false)

	d.cycle()
	d.cycle()

	state := d.State()
	if state.LastVerdict.Overall != models.NoGo {
		t.Errorf("last verdict = %s, want NO_GO", state.LastVerdict.Overall)
	}
	if state.StateChanges == 0 {
		t.Error("flip produced no state changes")
	}
	// Flip, intraday rule change and the >0.5% price move all alert.
	if sink.count() < 3 {
		t.Errorf("notifier received %d alerts, want >= 3", sink.count())
	}
}

func TestDaemon_HistoryBounded(t *testing.T) {
	p := &scriptedProvider{snaps: []models.MarketSnapshot{calmSnap("2024-03-15", 5100)}}
	d, _, _ := newTestDaemon(t, p, false)

	for i := 0; i < models.MonitorHistoryLimit+25; i++ {
		d.cycle()
	}

	state := d.State()
	if len(state.History) != models.MonitorHistoryLimit {
		t.Errorf("history length = %d, want %d", len(state.History), models.MonitorHistoryLimit)
	}
	if state.Checks != int64(models.MonitorHistoryLimit+25) {
		t.Errorf("checks = %d, want %d", state.Checks, models.MonitorHistoryLimit+25)
	}
}

func TestDaemon_StateIsDeepCopy(t *testing.T) {
	p := &scriptedProvider{snaps: []models.MarketSnapshot{calmSnap("2024-03-15", 5100)}}
	d, _, _ := newTestDaemon(t, p, false)

	d.cycle()

	state := d.State()
	state.LastVerdict.Overall = models.NoGo
	state.History[0].Rules[0].Status = models.RuleFail

	fresh := d.State()
	if fresh.LastVerdict.Overall != models.Go {
		t.Error("mutating returned state leaked into the daemon")
	}
	if fresh.History[0].Rules[0].Status == models.RuleFail {
		t.Error("mutating returned history leaked into the daemon")
	}
}

func TestDaemon_DailyShadowEntries(t *testing.T) {
	calm := calmSnap("2024-03-15", 5100)
	p := &scriptedProvider{snaps: []models.MarketSnapshot{calm}}
	d, _, book := newTestDaemon(t, p, true)

	d.cycle()
	d.cycle() // same day, no second entry

	always, _ := book.Portfolio(models.PortfolioAlwaysTrade)
	filtered, _ := book.Portfolio(models.PortfolioFiltered)
	if len(always.Trades) != 1 {
		t.Errorf("AlwaysTrade trades = %d, want 1", len(always.Trades))
	}
	// GO day: Filtered participates too.
	if len(filtered.Trades) != 1 {
		t.Errorf("Filtered trades = %d, want 1", len(filtered.Trades))
	}
	if always.Trades[0].CreditReceived != 2.5 {
		t.Errorf("credit = %v, want 2.5", always.Trades[0].CreditReceived)
	}
}

func TestDaemon_NoGoDayOnlyAlwaysTrade(t *testing.T) {
	spiked := calmSnap("2024-03-15", 5100)
	spiked.SpotCurrent = spiked.SpotOpen * 1.02

	p := &scriptedProvider{snaps: []models.MarketSnapshot{spiked}}
	d, _, book := newTestDaemon(t, p, true)

	d.cycle()

	always, _ := book.Portfolio(models.PortfolioAlwaysTrade)
	filtered, _ := book.Portfolio(models.PortfolioFiltered)
	if len(always.Trades) != 1 {
		t.Errorf("AlwaysTrade trades = %d, want 1", len(always.Trades))
	}
	if len(filtered.Trades) != 0 {
		t.Errorf("Filtered trades = %d, want 0 on NO_GO day", len(filtered.Trades))
	}
	// The NO_GO verdict carries no strikes; the AlwaysTrade entry still got some.
	if always.Trades[0].Strikes == (models.Strikes{}) {
		t.Error("AlwaysTrade entry has empty strikes")
	}
}

func TestDaemon_SettleDay(t *testing.T) {
	calm := calmSnap("2024-03-15", 5100)
	p := &scriptedProvider{snaps: []models.MarketSnapshot{calm}}
	d, _, book := newTestDaemon(t, p, true)

	d.cycle()

	if err := d.SettleDay(context.Background(), 5105, "2024-03-15"); err != nil {
		t.Fatalf("SettleDay: %v", err)
	}

	always, _ := book.Portfolio(models.PortfolioAlwaysTrade)
	filtered, _ := book.Portfolio(models.PortfolioFiltered)
	if always.CumulativePnL != 25.0 || filtered.CumulativePnL != 25.0 {
		t.Errorf("pnl = %v/%v, want 25.0/25.0", always.CumulativePnL, filtered.CumulativePnL)
	}
	if book.FilterEdge() != 0 {
		t.Errorf("filter edge = %v, want 0 when both participate", book.FilterEdge())
	}
}

func TestDaemon_SettleDayToleratesEmptyFilteredBook(t *testing.T) {
	spiked := calmSnap("2024-03-15", 5100)
	spiked.SpotCurrent = spiked.SpotOpen * 1.02

	p := &scriptedProvider{snaps: []models.MarketSnapshot{spiked}}
	d, _, book := newTestDaemon(t, p, true)

	d.cycle()

	// Only AlwaysTrade holds a position; the empty Filtered book is fine.
	if err := d.SettleDay(context.Background(), 5100, "2024-03-15"); err != nil {
		t.Fatalf("SettleDay: %v", err)
	}
	always, _ := book.Portfolio(models.PortfolioAlwaysTrade)
	if always.Trades[0].Status != models.TradeSettled {
		t.Errorf("AlwaysTrade status = %s, want SETTLED", always.Trades[0].Status)
	}
}

func TestDaemon_SettleDayWithoutLedger(t *testing.T) {
	p := &scriptedProvider{snaps: []models.MarketSnapshot{calmSnap("2024-03-15", 5100)}}
	d, _, _ := newTestDaemon(t, p, false)

	if err := d.SettleDay(context.Background(), 5100, "2024-03-15"); err != nil {
		t.Errorf("SettleDay without ledger = %v, want nil", err)
	}
}
