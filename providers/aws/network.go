package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/yairfalse/peili/types"
)

// VPCEnumerator pages through VPCs.
type VPCEnumerator struct {
	p *Provider
}

func (e *VPCEnumerator) AssetType() types.AssetType { return types.AssetNetwork }

func (e *VPCEnumerator) Enumerate(ctx context.Context, cursor string) ([]types.Asset, string, error) {
	output, err := e.p.ec2Client.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{
		MaxResults: awssdk.Int32(pageSize),
		NextToken:  token(cursor),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to describe VPCs: %w", err)
	}

	var assets []types.Asset
	for _, vpc := range output.Vpcs {
		assets = append(assets, buildVPCAsset(vpc))
	}

	return assets, awssdk.ToString(output.NextToken), nil
}

func buildVPCAsset(vpc ec2types.Vpc) types.Asset {
	tags := convertEC2Tags(vpc.Tags)
	uniqueID := awssdk.ToString(vpc.VpcId)

	return types.Asset{
		AssetType:   types.AssetNetwork,
		UniqueID:    uniqueID,
		Name:        nameFromTags(tags, uniqueID),
		Description: fmt.Sprintf("Network %s", uniqueID),
		Tags:        tags,
		IsStale:     false,
		Metadata: map[string]any{
			"cidr_block": awssdk.ToString(vpc.CidrBlock),
			"state":      string(vpc.State),
			"is_default": awssdk.ToBool(vpc.IsDefault),
		},
	}
}

// SubnetEnumerator pages through subnets.
type SubnetEnumerator struct {
	p *Provider
}

func (e *SubnetEnumerator) AssetType() types.AssetType { return types.AssetSubnetwork }

func (e *SubnetEnumerator) Enumerate(ctx context.Context, cursor string) ([]types.Asset, string, error) {
	output, err := e.p.ec2Client.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{
		MaxResults: awssdk.Int32(pageSize),
		NextToken:  token(cursor),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to describe subnets: %w", err)
	}

	var assets []types.Asset
	for _, subnet := range output.Subnets {
		assets = append(assets, buildSubnetAsset(subnet))
	}

	return assets, awssdk.ToString(output.NextToken), nil
}

func buildSubnetAsset(subnet ec2types.Subnet) types.Asset {
	tags := convertEC2Tags(subnet.Tags)
	uniqueID := awssdk.ToString(subnet.SubnetId)

	return types.Asset{
		AssetType:   types.AssetSubnetwork,
		UniqueID:    uniqueID,
		Name:        nameFromTags(tags, uniqueID),
		Description: fmt.Sprintf("Subnetwork %s", uniqueID),
		Tags:        tags,
		IsStale:     false,
		Metadata: map[string]any{
			"vpc_id":            awssdk.ToString(subnet.VpcId),
			"cidr_block":        awssdk.ToString(subnet.CidrBlock),
			"availability_zone": awssdk.ToString(subnet.AvailabilityZone),
			"state":             string(subnet.State),
		},
	}
}

// SecurityGroupEnumerator pages through security groups.
type SecurityGroupEnumerator struct {
	p *Provider
}

func (e *SecurityGroupEnumerator) AssetType() types.AssetType { return types.AssetSecurityGroup }

func (e *SecurityGroupEnumerator) Enumerate(ctx context.Context, cursor string) ([]types.Asset, string, error) {
	output, err := e.p.ec2Client.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		MaxResults: awssdk.Int32(pageSize),
		NextToken:  token(cursor),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to describe security groups: %w", err)
	}

	var assets []types.Asset
	for _, sg := range output.SecurityGroups {
		assets = append(assets, buildSecurityGroupAsset(sg))
	}

	return assets, awssdk.ToString(output.NextToken), nil
}

func buildSecurityGroupAsset(sg ec2types.SecurityGroup) types.Asset {
	tags := convertEC2Tags(sg.Tags)
	uniqueID := awssdk.ToString(sg.GroupId)

	name := awssdk.ToString(sg.GroupName)
	if name == "" {
		name = nameFromTags(tags, uniqueID)
	}

	return types.Asset{
		AssetType:   types.AssetSecurityGroup,
		UniqueID:    uniqueID,
		Name:        name,
		Description: awssdk.ToString(sg.Description),
		Tags:        tags,
		IsStale:     false,
		Metadata: map[string]any{
			"vpc_id":             awssdk.ToString(sg.VpcId),
			"group_name":         awssdk.ToString(sg.GroupName),
			"ingress_rule_count": len(sg.IpPermissions),
			"egress_rule_count":  len(sg.IpPermissionsEgress),
		},
	}
}

// InternetGatewayEnumerator pages through internet gateways.
type InternetGatewayEnumerator struct {
	p *Provider
}

func (e *InternetGatewayEnumerator) AssetType() types.AssetType { return types.AssetInternetGateway }

func (e *InternetGatewayEnumerator) Enumerate(ctx context.Context, cursor string) ([]types.Asset, string, error) {
	output, err := e.p.ec2Client.DescribeInternetGateways(ctx, &ec2.DescribeInternetGatewaysInput{
		MaxResults: awssdk.Int32(pageSize),
		NextToken:  token(cursor),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to describe internet gateways: %w", err)
	}

	var assets []types.Asset
	for _, igw := range output.InternetGateways {
		assets = append(assets, buildInternetGatewayAsset(igw))
	}

	return assets, awssdk.ToString(output.NextToken), nil
}

func buildInternetGatewayAsset(igw ec2types.InternetGateway) types.Asset {
	tags := convertEC2Tags(igw.Tags)
	uniqueID := awssdk.ToString(igw.InternetGatewayId)

	// An IGW attaches to at most one VPC; carry the reference when present.
	var attachedVpcID, attachmentState string
	if len(igw.Attachments) > 0 {
		attachedVpcID = awssdk.ToString(igw.Attachments[0].VpcId)
		attachmentState = string(igw.Attachments[0].State)
	}

	return types.Asset{
		AssetType:   types.AssetInternetGateway,
		UniqueID:    uniqueID,
		Name:        nameFromTags(tags, uniqueID),
		Description: fmt.Sprintf("Internet gateway %s", uniqueID),
		Tags:        tags,
		IsStale:     false,
		Metadata: map[string]any{
			"vpc_id":           attachedVpcID,
			"attachment_state": attachmentState,
		},
	}
}

// NetworkInterfaceEnumerator pages through network interfaces.
type NetworkInterfaceEnumerator struct {
	p *Provider
}

func (e *NetworkInterfaceEnumerator) AssetType() types.AssetType { return types.AssetNetworkInterface }

func (e *NetworkInterfaceEnumerator) Enumerate(ctx context.Context, cursor string) ([]types.Asset, string, error) {
	output, err := e.p.ec2Client.DescribeNetworkInterfaces(ctx, &ec2.DescribeNetworkInterfacesInput{
		MaxResults: awssdk.Int32(pageSize),
		NextToken:  token(cursor),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to describe network interfaces: %w", err)
	}

	var assets []types.Asset
	for _, ni := range output.NetworkInterfaces {
		assets = append(assets, buildNetworkInterfaceAsset(ni))
	}

	return assets, awssdk.ToString(output.NextToken), nil
}

func buildNetworkInterfaceAsset(ni ec2types.NetworkInterface) types.Asset {
	tags := convertEC2Tags(ni.TagSet)
	uniqueID := awssdk.ToString(ni.NetworkInterfaceId)

	var attachedInstanceID string
	if ni.Attachment != nil {
		attachedInstanceID = awssdk.ToString(ni.Attachment.InstanceId)
	}

	return types.Asset{
		AssetType:   types.AssetNetworkInterface,
		UniqueID:    uniqueID,
		Name:        nameFromTags(tags, uniqueID),
		Description: awssdk.ToString(ni.Description),
		Tags:        tags,
		IsStale:     false,
		Metadata: map[string]any{
			"vpc_id":      awssdk.ToString(ni.VpcId),
			"subnet_id":   awssdk.ToString(ni.SubnetId),
			"private_ip":  awssdk.ToString(ni.PrivateIpAddress),
			"status":      string(ni.Status),
			"instance_id": attachedInstanceID,
		},
	}
}
