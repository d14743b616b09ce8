package inventory

import (
	"context"

	"github.com/yairfalse/peili/types"
)

const (
	// DefaultBatchSize is deliberately small to bound the blast radius of a
	// bad record and ease debugging.
	DefaultBatchSize = 5
	// DefaultStaleChunkSize is larger since mark-stale payloads are lighter.
	DefaultStaleChunkSize = 50
)

// Writer submits asset records and stale markings to the inventory store in
// bounded chunks, one call per chunk.
type Writer struct {
	client         *Client
	batchSize      int
	staleChunkSize int
}

// NewWriter creates a writer with the default chunk sizes.
func NewWriter(client *Client) *Writer {
	return &Writer{
		client:         client,
		batchSize:      DefaultBatchSize,
		staleChunkSize: DefaultStaleChunkSize,
	}
}

// WithChunkSizes overrides the chunk bounds (used by tests and config).
func (w *Writer) WithChunkSizes(batch, stale int) *Writer {
	if batch > 0 {
		w.batchSize = batch
	}
	if stale > 0 {
		w.staleChunkSize = stale
	}
	return w
}

type batchPayload struct {
	Assets []types.Asset `json:"assets"`
}

// WriteBatch upserts assets through POST /assets/{asset_type}/batch in
// chunks. A failing chunk aborts the remaining ones; the orchestrator decides
// whether the run continues with the next type.
func (w *Writer) WriteBatch(ctx context.Context, assetType types.AssetType, assets []types.Asset) error {
	for i, chunk := range chunkAssets(assets, w.batchSize) {
		payload := batchPayload{Assets: chunk}
		if err := w.client.Post(ctx, "/assets/"+string(assetType)+"/batch", payload, nil); err != nil {
			return &BatchWriteError{AssetType: assetType, Chunk: i, Err: err}
		}
	}
	return nil
}

// MarkStale flags unobserved unique ids through POST /{asset_type}/stale in
// chunks, same failure policy as WriteBatch.
func (w *Writer) MarkStale(ctx context.Context, assetType types.AssetType, uniqueIDs []string) error {
	for i, chunk := range chunkIDs(uniqueIDs, w.staleChunkSize) {
		if err := w.client.Post(ctx, "/"+string(assetType)+"/stale", chunk, nil); err != nil {
			return &BatchWriteError{AssetType: assetType, Chunk: i, Err: err}
		}
	}
	return nil
}

func chunkAssets(assets []types.Asset, size int) [][]types.Asset {
	var chunks [][]types.Asset
	for start := 0; start < len(assets); start += size {
		end := start + size
		if end > len(assets) {
			end = len(assets)
		}
		chunks = append(chunks, assets[start:end])
	}
	return chunks
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
