package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/yairfalse/peili/types"
)

// InstanceEnumerator pages through EC2 instances.
type InstanceEnumerator struct {
	p *Provider
}

func (e *InstanceEnumerator) AssetType() types.AssetType { return types.AssetComputeInstance }

func (e *InstanceEnumerator) Enumerate(ctx context.Context, cursor string) ([]types.Asset, string, error) {
	output, err := e.p.ec2Client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		MaxResults: awssdk.Int32(pageSize),
		NextToken:  token(cursor),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to describe instances: %w", err)
	}

	var assets []types.Asset
	for _, reservation := range output.Reservations {
		for _, instance := range reservation.Instances {
			assets = append(assets, buildInstanceAsset(instance))
		}
	}

	return assets, awssdk.ToString(output.NextToken), nil
}

// buildInstanceAsset normalizes one EC2 instance. Network cross-references go
// into metadata so downstream consumers can build relationship graphs without
// re-querying the provider.
func buildInstanceAsset(instance ec2types.Instance) types.Asset {
	tags := convertEC2Tags(instance.Tags)
	uniqueID := awssdk.ToString(instance.InstanceId)

	var state string
	if instance.State != nil {
		state = string(instance.State.Name)
	}

	var availabilityZone string
	if instance.Placement != nil {
		availabilityZone = awssdk.ToString(instance.Placement.AvailabilityZone)
	}

	return types.Asset{
		AssetType:   types.AssetComputeInstance,
		UniqueID:    uniqueID,
		Name:        nameFromTags(tags, uniqueID),
		Description: fmt.Sprintf("Compute instance %s", uniqueID),
		Tags:        tags,
		IsStale:     false,
		Metadata: map[string]any{
			"instance_type":     string(instance.InstanceType),
			"state":             state,
			"availability_zone": availabilityZone,
			"vpc_id":            awssdk.ToString(instance.VpcId),
			"subnet_id":         awssdk.ToString(instance.SubnetId),
			"private_ip":        awssdk.ToString(instance.PrivateIpAddress),
			"public_ip":         awssdk.ToString(instance.PublicIpAddress),
			"image_id":          awssdk.ToString(instance.ImageId),
		},
	}
}
