// Package reconciler computes the write set and the stale set for one asset
// type by set difference between what the store holds and what the provider
// reports.
package reconciler

import (
	"sort"

	"github.com/yairfalse/peili/types"
)

// Result holds the outcome of one reconciliation pass.
type Result struct {
	// ToWrite is every observed asset, written unconditionally so the
	// store always reflects the latest provider view.
	ToWrite []types.Asset
	// ToMarkStale is the unique ids present in the store but absent from
	// the provider's report.
	ToMarkStale []string
}

// Reconcile compares the store's view against the provider's. Observed
// assets win: all of them go to the write set, and anything the store knows
// that the provider no longer reports gets marked stale. Assets already
// flagged stale in the store are staled again; re-marking is idempotent and
// cheaper than tracking flag state here.
func Reconcile(existing map[string]types.Asset, observed []types.Asset) Result {
	observedIDs := make(map[string]struct{}, len(observed))
	toWrite := make([]types.Asset, 0, len(observed))
	for _, asset := range observed {
		observedIDs[asset.UniqueID] = struct{}{}
		toWrite = append(toWrite, asset)
	}

	var toMarkStale []string
	for id := range existing {
		if _, ok := observedIDs[id]; !ok {
			toMarkStale = append(toMarkStale, id)
		}
	}
	sort.Strings(toMarkStale)

	return Result{
		ToWrite:     toWrite,
		ToMarkStale: toMarkStale,
	}
}
