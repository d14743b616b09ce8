package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/peili/types"
)

// pagedStore serves /assets/type/{t} from a fixed asset list, honoring the
// page and limit query parameters the loader sends.
func pagedStore(t *testing.T, assets []types.Asset, failOnPage int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
	})
	mux.HandleFunc("/assets/type/", func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		require.NoError(t, err)
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		require.NoError(t, err)

		if failOnPage > 0 && page == failOnPage {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}

		start := (page - 1) * limit
		if start > len(assets) {
			start = len(assets)
		}
		end := start + limit
		if end > len(assets) {
			end = len(assets)
		}
		_ = json.NewEncoder(w).Encode(assets[start:end])
	})
	return httptest.NewServer(mux)
}

func storedAssets(n int) []types.Asset {
	assets := make([]types.Asset, n)
	for i := range assets {
		assets[i] = types.Asset{
			AssetType: types.AssetNetwork,
			UniqueID:  fmt.Sprintf("vpc-%03d", i),
			Name:      fmt.Sprintf("net-%03d", i),
		}
	}
	return assets
}

func TestLoadPagesUntilShortPage(t *testing.T) {
	// 23 records with page size 10: pages of 10, 10, 3.
	srv := pagedStore(t, storedAssets(23), 0)
	defer srv.Close()

	c := NewClient(srv.URL, "svc", "secret")
	require.NoError(t, c.Authenticate(context.Background()))

	existing, err := NewLoader(c).WithPageSize(10).Load(context.Background(), types.AssetNetwork)
	require.NoError(t, err)

	assert.Len(t, existing, 23)
	assert.Equal(t, "net-007", existing["vpc-007"].Name)
}

func TestLoadExactMultipleFetchesEmptyFinalPage(t *testing.T) {
	// 20 records with page size 10: the third, empty page ends the loop.
	srv := pagedStore(t, storedAssets(20), 0)
	defer srv.Close()

	c := NewClient(srv.URL, "svc", "secret")
	require.NoError(t, c.Authenticate(context.Background()))

	existing, err := NewLoader(c).WithPageSize(10).Load(context.Background(), types.AssetNetwork)
	require.NoError(t, err)
	assert.Len(t, existing, 20)
}

func TestLoadEmptyStore(t *testing.T) {
	srv := pagedStore(t, nil, 0)
	defer srv.Close()

	c := NewClient(srv.URL, "svc", "secret")
	require.NoError(t, c.Authenticate(context.Background()))

	existing, err := NewLoader(c).Load(context.Background(), types.AssetNetwork)
	require.NoError(t, err)
	assert.Empty(t, existing)
}

func TestLoadPageFailureDiscardsPartialSnapshot(t *testing.T) {
	srv := pagedStore(t, storedAssets(25), 2)
	defer srv.Close()

	c := NewClient(srv.URL, "svc", "secret")
	require.NoError(t, c.Authenticate(context.Background()))

	existing, err := NewLoader(c).WithPageSize(10).Load(context.Background(), types.AssetNetwork)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, types.AssetNetwork, loadErr.AssetType)
	assert.Equal(t, 2, loadErr.Page)
	assert.Nil(t, existing)
}
