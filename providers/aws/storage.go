package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/yairfalse/peili/types"
)

// defaultBucketRegion is reported when the location lookup fails or returns
// the empty LocationConstraint that S3 uses for us-east-1.
const defaultBucketRegion = "us-east-1"

// BucketEnumerator lists S3 buckets. ListBuckets has no pagination, so the
// whole account is one page with an empty next cursor.
type BucketEnumerator struct {
	p *Provider
}

func (e *BucketEnumerator) AssetType() types.AssetType { return types.AssetObjectStoreBucket }

func (e *BucketEnumerator) Enumerate(ctx context.Context, cursor string) ([]types.Asset, string, error) {
	output, err := e.p.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list buckets: %w", err)
	}

	var assets []types.Asset
	for _, bucket := range output.Buckets {
		name := awssdk.ToString(bucket.Name)
		assets = append(assets, types.Asset{
			AssetType:   types.AssetObjectStoreBucket,
			UniqueID:    name,
			Name:        name,
			Description: fmt.Sprintf("Object store bucket %s", name),
			Tags:        map[string]string{},
			IsStale:     false,
			Metadata: map[string]any{
				"region": e.bucketRegion(ctx, name),
			},
		})
	}

	return assets, "", nil
}

// bucketRegion resolves a bucket's region. A lookup failure for one bucket
// must not abort enumeration of the others: it is logged and the region
// defaults.
func (e *BucketEnumerator) bucketRegion(ctx context.Context, name string) string {
	output, err := e.p.s3Client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
		Bucket: awssdk.String(name),
	})
	if err != nil {
		e.p.logger.LogEnrichmentMiss(ctx, string(types.AssetObjectStoreBucket), name, "region", err)
		return defaultBucketRegion
	}
	if output.LocationConstraint == "" {
		return defaultBucketRegion
	}
	return string(output.LocationConstraint)
}
