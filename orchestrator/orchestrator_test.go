package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/peili/providers"
	"github.com/yairfalse/peili/types"
)

type fakeAuth struct {
	err   error
	calls int
}

func (a *fakeAuth) Authenticate(ctx context.Context) error {
	a.calls++
	return a.err
}

type fakeLoader struct {
	snapshots map[types.AssetType]map[string]types.Asset
	errs      map[types.AssetType]error
}

func (l *fakeLoader) Load(ctx context.Context, assetType types.AssetType) (map[string]types.Asset, error) {
	if err := l.errs[assetType]; err != nil {
		return nil, err
	}
	return l.snapshots[assetType], nil
}

type fakeWriter struct {
	written map[types.AssetType][]types.Asset
	staled  map[types.AssetType][]string
	err     error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		written: make(map[types.AssetType][]types.Asset),
		staled:  make(map[types.AssetType][]string),
	}
}

func (w *fakeWriter) WriteBatch(ctx context.Context, assetType types.AssetType, assets []types.Asset) error {
	if w.err != nil {
		return w.err
	}
	w.written[assetType] = append(w.written[assetType], assets...)
	return nil
}

func (w *fakeWriter) MarkStale(ctx context.Context, assetType types.AssetType, uniqueIDs []string) error {
	if w.err != nil {
		return w.err
	}
	w.staled[assetType] = append(w.staled[assetType], uniqueIDs...)
	return nil
}

type fakeEnumerator struct {
	assetType types.AssetType
	assets    []types.Asset
	err       error
}

func (e *fakeEnumerator) AssetType() types.AssetType { return e.assetType }

func (e *fakeEnumerator) Enumerate(ctx context.Context, cursor string) ([]types.Asset, string, error) {
	if e.err != nil {
		return nil, "", e.err
	}
	return e.assets, "", nil
}

func testAsset(assetType types.AssetType, id string) types.Asset {
	return types.Asset{AssetType: assetType, UniqueID: id, Name: id}
}

func TestRunSyncsAllTypes(t *testing.T) {
	auth := &fakeAuth{}
	loader := &fakeLoader{
		snapshots: map[types.AssetType]map[string]types.Asset{
			types.AssetComputeInstance: {
				"i-gone": testAsset(types.AssetComputeInstance, "i-gone"),
			},
		},
	}
	writer := newFakeWriter()

	o := New(auth, loader, writer, []providers.Enumerator{
		&fakeEnumerator{assetType: types.AssetComputeInstance, assets: []types.Asset{
			testAsset(types.AssetComputeInstance, "i-1"),
		}},
		&fakeEnumerator{assetType: types.AssetNetwork, assets: []types.Asset{
			testAsset(types.AssetNetwork, "vpc-1"),
		}},
	})

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, auth.calls)
	assert.False(t, report.Failed())
	require.Len(t, report.Passes, 2)

	assert.Equal(t, types.AssetComputeInstance, report.Passes[0].AssetType)
	assert.Equal(t, 1, report.Passes[0].Observed)
	assert.Equal(t, 1, report.Passes[0].Written)
	assert.Equal(t, 1, report.Passes[0].Staled)
	assert.Equal(t, []string{"i-gone"}, writer.staled[types.AssetComputeInstance])

	assert.Equal(t, types.AssetNetwork, report.Passes[1].AssetType)
	assert.Empty(t, writer.staled[types.AssetNetwork])
}

func TestRunAuthFailureIsFatal(t *testing.T) {
	auth := &fakeAuth{err: errors.New("bad credentials")}
	writer := newFakeWriter()

	o := New(auth, &fakeLoader{}, writer, []providers.Enumerator{
		&fakeEnumerator{assetType: types.AssetComputeInstance},
	})

	report, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, report.Passes)
	assert.Empty(t, writer.written)
}

func TestRunIsolatesTypeFailures(t *testing.T) {
	loader := &fakeLoader{snapshots: map[types.AssetType]map[string]types.Asset{}}
	writer := newFakeWriter()

	o := New(&fakeAuth{}, loader, writer, []providers.Enumerator{
		&fakeEnumerator{assetType: types.AssetNetwork, err: errors.New("throttled")},
		&fakeEnumerator{assetType: types.AssetComputeInstance, assets: []types.Asset{
			testAsset(types.AssetComputeInstance, "i-1"),
		}},
	})

	report, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Failed())
	require.Len(t, report.Passes, 2)
	assert.True(t, report.Passes[0].Failed())
	assert.False(t, report.Passes[1].Failed())
	assert.Len(t, writer.written[types.AssetComputeInstance], 1)
}

func TestRunFailedPassWritesNothing(t *testing.T) {
	loader := &fakeLoader{
		snapshots: map[types.AssetType]map[string]types.Asset{},
		errs: map[types.AssetType]error{
			types.AssetNetwork: errors.New("store down"),
		},
	}
	writer := newFakeWriter()

	o := New(&fakeAuth{}, loader, writer, []providers.Enumerator{
		&fakeEnumerator{assetType: types.AssetNetwork, assets: []types.Asset{
			testAsset(types.AssetNetwork, "vpc-1"),
		}},
	})

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Failed())
	assert.Empty(t, writer.written)
	assert.Empty(t, writer.staled)
}

func TestRunStopsBetweenPassesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(&fakeAuth{}, &fakeLoader{}, newFakeWriter(), []providers.Enumerator{
		&fakeEnumerator{assetType: types.AssetComputeInstance},
	})

	report, err := o.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Passes)
}
