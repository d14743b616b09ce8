package providers

import (
	"context"
	"fmt"

	"github.com/yairfalse/peili/types"
)

// DefaultPageSize caps one enumeration page against the provider.
const DefaultPageSize = 100

// Enumerator produces one page of normalized assets per call for a single
// asset type. cursor is the opaque continuation token from the previous page;
// an empty next cursor signals completion. Enumerators normalize only: field
// mapping into the Asset shape, never filtering or diffing.
type Enumerator interface {
	AssetType() types.AssetType
	Enumerate(ctx context.Context, cursor string) (assets []types.Asset, next string, err error)
}

// EnumerationError means the provider listing failed mid-page. The type's
// sync must not proceed to reconciliation with a partial observed set.
type EnumerationError struct {
	AssetType types.AssetType
	Err       error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerating %s failed: %v", e.AssetType, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// Collect drains every page of one enumerator into a single observed set.
// Any page failure discards the partial set.
func Collect(ctx context.Context, e Enumerator) ([]types.Asset, error) {
	var all []types.Asset
	cursor := ""

	for {
		assets, next, err := e.Enumerate(ctx, cursor)
		if err != nil {
			return nil, &EnumerationError{AssetType: e.AssetType(), Err: err}
		}
		all = append(all, assets...)

		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

// Registry holds enumerators in sync order.
type Registry struct {
	enumerators []Enumerator
	byType      map[types.AssetType]Enumerator
}

// NewRegistry creates a registry from enumerators, preserving order.
func NewRegistry(enumerators ...Enumerator) *Registry {
	r := &Registry{byType: make(map[types.AssetType]Enumerator, len(enumerators))}
	for _, e := range enumerators {
		r.enumerators = append(r.enumerators, e)
		r.byType[e.AssetType()] = e
	}
	return r
}

// All returns every registered enumerator in registration order.
func (r *Registry) All() []Enumerator {
	return r.enumerators
}

// ForType returns the enumerator for one asset type.
func (r *Registry) ForType(t types.AssetType) (Enumerator, error) {
	e, ok := r.byType[t]
	if !ok {
		return nil, fmt.Errorf("no enumerator registered for asset type %q", t)
	}
	return e, nil
}

// Select returns enumerators for the requested types in request order.
func (r *Registry) Select(requested []types.AssetType) ([]Enumerator, error) {
	if len(requested) == 0 {
		return r.All(), nil
	}
	selected := make([]Enumerator, 0, len(requested))
	for _, t := range requested {
		e, err := r.ForType(t)
		if err != nil {
			return nil, err
		}
		selected = append(selected, e)
	}
	return selected, nil
}
