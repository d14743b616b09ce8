package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"

	"github.com/yairfalse/peili/types"
)

// KeyEnumerator pages through customer-managed KMS keys. ListKeys returns
// bare ids, so each key is described to pick up its state and manager. Keys
// AWS itself manages are skipped, and a failed DescribeKey drops only that
// key from the page.
type KeyEnumerator struct {
	p *Provider
}

func (e *KeyEnumerator) AssetType() types.AssetType { return types.AssetKeyManagementKey }

func (e *KeyEnumerator) Enumerate(ctx context.Context, cursor string) ([]types.Asset, string, error) {
	output, err := e.p.kmsClient.ListKeys(ctx, &kms.ListKeysInput{
		Limit:  awssdk.Int32(pageSize),
		Marker: token(cursor),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list keys: %w", err)
	}

	var assets []types.Asset
	for _, entry := range output.Keys {
		asset, ok := e.describeKey(ctx, awssdk.ToString(entry.KeyId))
		if ok {
			assets = append(assets, asset)
		}
	}

	next := ""
	if output.Truncated {
		next = awssdk.ToString(output.NextMarker)
	}
	return assets, next, nil
}

func (e *KeyEnumerator) describeKey(ctx context.Context, keyID string) (types.Asset, bool) {
	output, err := e.p.kmsClient.DescribeKey(ctx, &kms.DescribeKeyInput{
		KeyId: awssdk.String(keyID),
	})
	if err != nil {
		e.p.logger.LogEnrichmentMiss(ctx, string(types.AssetKeyManagementKey), keyID, "metadata", err)
		return types.Asset{}, false
	}

	metadata := output.KeyMetadata
	if metadata == nil || metadata.KeyManager == kmstypes.KeyManagerTypeAws {
		return types.Asset{}, false
	}

	return types.Asset{
		AssetType:   types.AssetKeyManagementKey,
		UniqueID:    awssdk.ToString(metadata.KeyId),
		Name:        awssdk.ToString(metadata.KeyId),
		Description: awssdk.ToString(metadata.Description),
		Tags:        map[string]string{},
		IsStale:     false,
		Metadata: map[string]any{
			"arn":      awssdk.ToString(metadata.Arn),
			"state":    string(metadata.KeyState),
			"usage":    string(metadata.KeyUsage),
			"enabled":  metadata.Enabled,
			"key_spec": string(metadata.KeySpec),
			"created":  createdAt(metadata.CreationDate),
		},
	}, true
}
