package provider

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"condor-sentinel/internal/models"
)

// SimProvider generates simulated snapshots with a random walk around a
// base price. Useful for demos and for exercising the monitor loop
// without a live data source.
type SimProvider struct {
	mu         sync.Mutex
	random     *rand.Rand
	basePrice  float64
	volatility float64 // per-tick move as a decimal
	open       float64
	current    float64
	vix        float64
}

// NewSimProvider creates a simulated provider around the given base price.
func NewSimProvider(basePrice float64, seed int64) *SimProvider {
	return &SimProvider{
		random:     rand.New(rand.NewSource(seed)),
		basePrice:  basePrice,
		volatility: 0.001,
		open:       basePrice,
		current:    basePrice,
		vix:        16.0,
	}
}

// Snapshot implements SnapshotProvider.
func (s *SimProvider) Snapshot(_ context.Context) (models.MarketSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	move := (s.random.Float64()*2 - 1) * s.volatility
	s.current *= 1 + move
	s.vix += (s.random.Float64()*2 - 1) * 0.2
	if s.vix < 10 {
		s.vix = 10
	}

	return models.MarketSnapshot{
		Timestamp:       time.Now(),
		SpotOpen:        s.open,
		SpotCurrent:     s.current,
		VolatilityIndex: s.vix,
		MA20:            s.basePrice,
		PrevDayHigh:     s.basePrice * 1.008,
		PrevDayLow:      s.basePrice * 0.994,
		Events:          []models.EconomicEvent{},
	}, nil
}
