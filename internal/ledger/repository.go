// Package ledger provides the dual shadow-portfolio bookkeeping layer.
package ledger

import (
	"context"
	"sync"

	"condor-sentinel/internal/models"
)

// Repository persists portfolio state. The ledger calls Save after every
// mutation; the in-memory state remains authoritative for the running
// process even when Save fails.
type Repository interface {
	// Load returns the stored state for a portfolio, or nil when the
	// portfolio has never been saved.
	Load(ctx context.Context, name models.PortfolioName) (*models.PortfolioState, error)
	// Save stores the full portfolio state.
	Save(ctx context.Context, state *models.PortfolioState) error
}

// MemoryRepository is an in-memory Repository, used in tests and when no
// database path is configured.
type MemoryRepository struct {
	mu     sync.Mutex
	states map[models.PortfolioName]*models.PortfolioState
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{states: make(map[models.PortfolioName]*models.PortfolioState)}
}

// Load implements Repository.
func (r *MemoryRepository) Load(_ context.Context, name models.PortfolioName) (*models.PortfolioState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[name]
	if !ok {
		return nil, nil
	}
	return state.Clone(), nil
}

// Save implements Repository.
func (r *MemoryRepository) Save(_ context.Context, state *models.PortfolioState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.Name] = state.Clone()
	return nil
}
