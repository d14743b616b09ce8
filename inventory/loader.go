package inventory

import (
	"context"
	"net/url"
	"strconv"

	"github.com/yairfalse/peili/types"
)

// DefaultPageSize is the page cap for the store's list-by-type endpoint.
const DefaultPageSize = 100

// Loader builds the current snapshot of one asset type from the inventory
// store, paging until a short or empty page.
type Loader struct {
	client   *Client
	pageSize int
}

// NewLoader creates a loader with the default page size.
func NewLoader(client *Client) *Loader {
	return &Loader{client: client, pageSize: DefaultPageSize}
}

// WithPageSize overrides the page cap (used by tests).
func (l *Loader) WithPageSize(n int) *Loader {
	if n > 0 {
		l.pageSize = n
	}
	return l
}

// Load pages through GET /assets/type/{asset_type} and accumulates every
// record keyed by unique id. Any page failure aborts the load: a partial
// snapshot must never reach reconciliation.
func (l *Loader) Load(ctx context.Context, assetType types.AssetType) (map[string]types.Asset, error) {
	existing := make(map[string]types.Asset)

	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("limit", strconv.Itoa(l.pageSize))

		var assets []types.Asset
		err := l.client.List(ctx, "/assets/type/"+string(assetType), query, &assets)
		if err != nil {
			return nil, &LoadError{AssetType: assetType, Page: page, Err: err}
		}

		for _, a := range assets {
			existing[a.UniqueID] = a
		}

		if len(assets) < l.pageSize {
			return existing, nil
		}
	}
}
