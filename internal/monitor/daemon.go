package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"condor-sentinel/internal/condor"
	"condor-sentinel/internal/config"
	apperrors "condor-sentinel/internal/errors"
	"condor-sentinel/internal/ledger"
	"condor-sentinel/internal/logging"
	"condor-sentinel/internal/models"
	"condor-sentinel/internal/provider"
	"condor-sentinel/internal/rules"
)

// Daemon is the polling monitor. While RUNNING it fetches a snapshot
// every interval, evaluates the entry rules, records the verdict in its
// bounded history, detects changes against the previous check and
// dispatches alerts. Fetch failures are transient: the daemon keeps the
// previous verdict, bumps the error counter and tries again next cycle.
//
// The daemon exclusively owns its MonitorState; State returns an atomic
// deep copy so presentation-layer readers never observe a verdict mid
// construction or the history mid truncation.
type Daemon struct {
	cfg      config.MonitorConfig
	provider provider.SnapshotProvider
	engine   *rules.Engine
	detector *Detector
	alerts   *AlertManager
	book     *ledger.Ledger
	logger   zerolog.Logger

	thresholds config.Thresholds

	mu         sync.RWMutex
	state      models.MonitorState
	prevSnap   models.MarketSnapshot
	currentDay string

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a stopped daemon. The ledger is optional; without one the
// daemon only monitors and never records shadow trades.
func New(cfg config.MonitorConfig, thresholds config.Thresholds, p provider.SnapshotProvider,
	alerts *AlertManager, book *ledger.Ledger, logger zerolog.Logger) *Daemon {
	return &Daemon{
		cfg:        cfg,
		provider:   p,
		engine:     rules.NewEngine(thresholds),
		detector:   NewDetector(cfg.PriceMovePct),
		alerts:     alerts,
		book:       book,
		logger:     logger,
		thresholds: thresholds,
		state:      models.MonitorState{Status: models.MonitorStopped},
	}
}

// Start transitions the daemon from STOPPED to RUNNING and launches the
// polling loop at the given interval.
func (d *Daemon) Start(interval time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state.Status == models.MonitorRunning {
		return apperrors.ErrAlreadyRunning
	}
	if interval <= 0 {
		interval = d.cfg.Interval
	}

	d.state.Status = models.MonitorRunning
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})

	go d.run(interval, d.stopCh, d.doneCh)

	d.logger.Info().Dur("interval", interval).Msg("Monitor started")
	return nil
}

// Stop transitions the daemon from RUNNING to STOPPED. Cancellation is
// cooperative: the loop observes the stop signal once per cycle, so Stop
// latency is bounded by the fetch timeout plus loop overhead. Stop
// returns after the loop has exited, leaving the state at its last fully
// committed value.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if d.state.Status != models.MonitorRunning {
		d.mu.Unlock()
		return apperrors.ErrNotRunning
	}
	stopCh, doneCh := d.stopCh, d.doneCh
	d.mu.Unlock()

	close(stopCh)
	<-doneCh

	d.mu.Lock()
	d.state.Status = models.MonitorStopped
	d.mu.Unlock()

	d.logger.Info().Msg("Monitor stopped")
	return nil
}

// Status returns the daemon lifecycle state.
func (d *Daemon) Status() models.MonitorStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.Status
}

// State returns a deep copy of the monitor state.
func (d *Daemon) State() *models.MonitorState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state.Clone()
}

// SettleDay settles the open trade in both shadow portfolios at the
// given settlement price, the defined same-day close for 0DTE
// structures. Settlement errors per portfolio are surfaced together.
func (d *Daemon) SettleDay(ctx context.Context, settlementPrice float64, date string) error {
	if d.book == nil {
		return nil
	}
	var firstErr error
	for _, name := range []models.PortfolioName{models.PortfolioAlwaysTrade, models.PortfolioFiltered} {
		trade, err := d.book.SettleOpenTrade(ctx, name, settlementPrice, date)
		if err == nil {
			logging.LogSettlement(d.logger, name, trade)
			continue
		}
		// The Filtered book legitimately has nothing open on NO_GO
		// days; everything else is a real bookkeeping failure.
		if name == models.PortfolioFiltered && apperrors.Is(err, apperrors.ErrNoOpenTrade) {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		d.logger.Error().Err(err).Str("portfolio", string(name)).Msg("Settlement failed")
	}
	return firstErr
}

func (d *Daemon) run(interval time.Duration, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.cycle()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			d.cycle()
		}
	}
}

// cycle performs one check. The snapshot fetch is the sole suspension
// point and is bounded by the configured timeout.
func (d *Daemon) cycle() {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.FetchTimeout)
	defer cancel()

	snap, err := d.provider.Snapshot(ctx)
	if err != nil {
		d.recordError(err, "snapshot fetch failed")
		return
	}

	verdict, err := d.engine.Evaluate(snap, d.cfg.ExtendedRules)
	if err != nil {
		d.recordError(err, "evaluation failed")
		return
	}

	events := d.commit(snap, verdict)

	for _, ev := range events {
		logging.LogStateChange(d.logger, string(ev.Kind), ev.Message)
		d.alerts.Notify(ctx, ev)
	}

	d.recordDailyEntries(ctx, snap, verdict)
}

// commit atomically applies one successful check to the monitor state
// and returns the detected change events.
func (d *Daemon) commit(snap models.MarketSnapshot, verdict models.Verdict) []ChangeEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	var events []ChangeEvent
	if d.state.LastVerdict != nil {
		events = d.detector.Compare(*d.state.LastVerdict, verdict, d.prevSnap, snap)
	}

	v := verdict.Clone()
	d.state.LastVerdict = &v
	d.state.History = append(d.state.History, verdict.Clone())
	if len(d.state.History) > models.MonitorHistoryLimit {
		d.state.History = d.state.History[len(d.state.History)-models.MonitorHistoryLimit:]
	}
	d.state.Checks++
	d.state.StateChanges += int64(len(events))
	d.prevSnap = snap

	return events
}

func (d *Daemon) recordError(err error, msg string) {
	d.mu.Lock()
	d.state.Errors++
	d.mu.Unlock()
	d.logger.Warn().Err(err).Msg(msg)
}

// recordDailyEntries opens the shadow positions on the first successful
// check of each trading day: AlwaysTrade unconditionally, Filtered only
// when the verdict is GO.
func (d *Daemon) recordDailyEntries(ctx context.Context, snap models.MarketSnapshot, verdict models.Verdict) {
	if d.book == nil {
		return
	}

	day := snap.Timestamp.Format("2006-01-02")
	d.mu.Lock()
	if d.currentDay == day {
		d.mu.Unlock()
		return
	}
	d.currentDay = day
	d.mu.Unlock()

	strikes := verdict.Strikes
	if strikes == nil {
		// NO_GO verdicts carry no strikes; the AlwaysTrade book still
		// needs a structure for the day.
		s, err := condor.ComputeStrikes(snap.SpotCurrent, d.thresholds.OTMPercent,
			d.thresholds.WingWidth, d.thresholds.StrikeRoundingUnit)
		if err != nil {
			d.logger.Error().Err(err).Msg("AlwaysTrade strike computation failed")
			return
		}
		strikes = &s
	}

	trade := models.Trade{
		EntryDate:      day,
		Strikes:        *strikes,
		CreditReceived: d.thresholds.CreditReceived,
	}

	if err := d.book.RecordTradeEntry(ctx, models.PortfolioAlwaysTrade, trade); err != nil {
		d.logger.Warn().Err(err).Msg("AlwaysTrade entry skipped")
	}
	if verdict.Overall == models.Go {
		if err := d.book.RecordTradeEntry(ctx, models.PortfolioFiltered, trade); err != nil {
			d.logger.Warn().Err(err).Msg("Filtered entry skipped")
		}
	}
}
