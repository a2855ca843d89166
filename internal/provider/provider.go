// Package provider supplies market snapshots to the decision core.
package provider

import (
	"context"

	"condor-sentinel/internal/models"
)

// SnapshotProvider produces the market snapshot the rule engine consumes.
// Implementations must honor context cancellation: the monitor daemon
// bounds every fetch with a timeout.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (models.MarketSnapshot, error)
}
