package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/yairfalse/peili/types"
)

// RoleEnumerator pages through IAM roles using Marker cursors.
type RoleEnumerator struct {
	p *Provider
}

func (e *RoleEnumerator) AssetType() types.AssetType { return types.AssetIdentityRole }

func (e *RoleEnumerator) Enumerate(ctx context.Context, cursor string) ([]types.Asset, string, error) {
	output, err := e.p.iamClient.ListRoles(ctx, &iam.ListRolesInput{
		MaxItems: awssdk.Int32(pageSize),
		Marker:   token(cursor),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list roles: %w", err)
	}

	var assets []types.Asset
	for _, role := range output.Roles {
		assets = append(assets, buildRoleAsset(role))
	}

	return assets, nextMarker(output.IsTruncated, output.Marker), nil
}

func buildRoleAsset(role iamtypes.Role) types.Asset {
	tags := convertIAMTags(role.Tags)
	name := awssdk.ToString(role.RoleName)

	return types.Asset{
		AssetType:   types.AssetIdentityRole,
		UniqueID:    awssdk.ToString(role.Arn),
		Name:        name,
		Description: awssdk.ToString(role.Description),
		Tags:        tags,
		IsStale:     false,
		Metadata: map[string]any{
			"path":    awssdk.ToString(role.Path),
			"role_id": awssdk.ToString(role.RoleId),
			"created": createdAt(role.CreateDate),
		},
	}
}

// UserEnumerator pages through IAM users.
type UserEnumerator struct {
	p *Provider
}

func (e *UserEnumerator) AssetType() types.AssetType { return types.AssetIdentityUser }

func (e *UserEnumerator) Enumerate(ctx context.Context, cursor string) ([]types.Asset, string, error) {
	output, err := e.p.iamClient.ListUsers(ctx, &iam.ListUsersInput{
		MaxItems: awssdk.Int32(pageSize),
		Marker:   token(cursor),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list users: %w", err)
	}

	var assets []types.Asset
	for _, user := range output.Users {
		assets = append(assets, buildUserAsset(user))
	}

	return assets, nextMarker(output.IsTruncated, output.Marker), nil
}

func buildUserAsset(user iamtypes.User) types.Asset {
	tags := convertIAMTags(user.Tags)
	name := awssdk.ToString(user.UserName)

	return types.Asset{
		AssetType:   types.AssetIdentityUser,
		UniqueID:    awssdk.ToString(user.Arn),
		Name:        name,
		Description: fmt.Sprintf("Identity user %s", name),
		Tags:        tags,
		IsStale:     false,
		Metadata: map[string]any{
			"path":    awssdk.ToString(user.Path),
			"user_id": awssdk.ToString(user.UserId),
			"created": createdAt(user.CreateDate),
		},
	}
}

// PolicyEnumerator pages through customer-managed IAM policies. AWS-managed
// policies are skipped via the Local scope filter, they are not account
// inventory.
type PolicyEnumerator struct {
	p *Provider
}

func (e *PolicyEnumerator) AssetType() types.AssetType { return types.AssetIdentityPolicy }

func (e *PolicyEnumerator) Enumerate(ctx context.Context, cursor string) ([]types.Asset, string, error) {
	output, err := e.p.iamClient.ListPolicies(ctx, &iam.ListPoliciesInput{
		Scope:    iamtypes.PolicyScopeTypeLocal,
		MaxItems: awssdk.Int32(pageSize),
		Marker:   token(cursor),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list policies: %w", err)
	}

	var assets []types.Asset
	for _, policy := range output.Policies {
		assets = append(assets, buildPolicyAsset(policy))
	}

	return assets, nextMarker(output.IsTruncated, output.Marker), nil
}

func buildPolicyAsset(policy iamtypes.Policy) types.Asset {
	tags := convertIAMTags(policy.Tags)
	name := awssdk.ToString(policy.PolicyName)

	return types.Asset{
		AssetType:   types.AssetIdentityPolicy,
		UniqueID:    awssdk.ToString(policy.Arn),
		Name:        name,
		Description: awssdk.ToString(policy.Description),
		Tags:        tags,
		IsStale:     false,
		Metadata: map[string]any{
			"path":             awssdk.ToString(policy.Path),
			"policy_id":        awssdk.ToString(policy.PolicyId),
			"attachment_count": awssdk.ToInt32(policy.AttachmentCount),
			"created":          createdAt(policy.CreateDate),
		},
	}
}

// nextMarker converts IAM's IsTruncated/Marker pair into an opaque cursor.
func nextMarker(truncated bool, marker *string) string {
	if !truncated {
		return ""
	}
	return awssdk.ToString(marker)
}
