package orchestrator

import (
	"context"
	"time"

	"github.com/yairfalse/peili/types"
)

// Authenticator acquires the store session before the first pass.
type Authenticator interface {
	Authenticate(ctx context.Context) error
}

// SnapshotLoader loads the store's current view of one asset type.
type SnapshotLoader interface {
	Load(ctx context.Context, assetType types.AssetType) (map[string]types.Asset, error)
}

// BatchWriter pushes reconciliation output to the store.
type BatchWriter interface {
	WriteBatch(ctx context.Context, assetType types.AssetType, assets []types.Asset) error
	MarkStale(ctx context.Context, assetType types.AssetType, uniqueIDs []string) error
}

// PassResult records the outcome of one asset type's sync pass.
type PassResult struct {
	AssetType types.AssetType `json:"asset_type"`
	Observed  int             `json:"observed"`
	Written   int             `json:"written"`
	Staled    int             `json:"staled"`
	Duration  time.Duration   `json:"duration"`
	Err       error           `json:"-"`
}

// Failed reports whether this pass ended in an error.
func (p PassResult) Failed() bool { return p.Err != nil }

// SyncReport summarizes one full run across all requested asset types.
type SyncReport struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Passes     []PassResult `json:"passes"`
}

// Failed reports whether any pass in the run failed.
func (r SyncReport) Failed() bool {
	for _, p := range r.Passes {
		if p.Failed() {
			return true
		}
	}
	return false
}

// Totals sums the per-pass counts.
func (r SyncReport) Totals() (observed, written, staled int) {
	for _, p := range r.Passes {
		observed += p.Observed
		written += p.Written
		staled += p.Staled
	}
	return observed, written, staled
}
