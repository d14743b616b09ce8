// Package aws enumerates AWS resources into the common Asset shape, one
// enumerator per tracked asset type.
package aws

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/yairfalse/peili/providers"
	"github.com/yairfalse/peili/telemetry"
)

// pageSize caps one page against every AWS listing API.
const pageSize = providers.DefaultPageSize

// Provider bundles the AWS service clients the enumerators share.
type Provider struct {
	ec2Client        EC2API
	s3Client         S3API
	iamClient        IAMAPI
	kmsClient        KMSAPI
	cloudwatchClient CloudWatchAPI
	lambdaClient     LambdaAPI
	region           string
	logger           *telemetry.Logger
}

// NewProvider creates a provider using the default AWS credential chain.
func NewProvider(ctx context.Context, region string) (*Provider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Provider{
		ec2Client:        ec2.NewFromConfig(cfg),
		s3Client:         s3.NewFromConfig(cfg),
		iamClient:        iam.NewFromConfig(cfg),
		kmsClient:        kms.NewFromConfig(cfg),
		cloudwatchClient: cloudwatch.NewFromConfig(cfg),
		lambdaClient:     lambda.NewFromConfig(cfg),
		region:           region,
		logger:           telemetry.NewLogger("aws-provider"),
	}, nil
}

// Region returns the region this provider enumerates.
func (p *Provider) Region() string {
	return p.region
}

// Registry returns every enumerator in sync order. Cheap-to-list EC2 types
// come first, detail-call-heavy types last, matching the type order the
// orchestrator reports in.
func (p *Provider) Registry() *providers.Registry {
	return providers.NewRegistry(
		&InstanceEnumerator{p},
		&VPCEnumerator{p},
		&SubnetEnumerator{p},
		&SecurityGroupEnumerator{p},
		&InternetGatewayEnumerator{p},
		&NetworkInterfaceEnumerator{p},
		&BucketEnumerator{p},
		&RoleEnumerator{p},
		&UserEnumerator{p},
		&PolicyEnumerator{p},
		&KeyEnumerator{p},
		&MetricEnumerator{p},
		&FunctionEnumerator{p},
	)
}

// Compile-time checks that every enumerator satisfies the interface.
var (
	_ providers.Enumerator = (*InstanceEnumerator)(nil)
	_ providers.Enumerator = (*VPCEnumerator)(nil)
	_ providers.Enumerator = (*SubnetEnumerator)(nil)
	_ providers.Enumerator = (*SecurityGroupEnumerator)(nil)
	_ providers.Enumerator = (*InternetGatewayEnumerator)(nil)
	_ providers.Enumerator = (*NetworkInterfaceEnumerator)(nil)
	_ providers.Enumerator = (*BucketEnumerator)(nil)
	_ providers.Enumerator = (*RoleEnumerator)(nil)
	_ providers.Enumerator = (*UserEnumerator)(nil)
	_ providers.Enumerator = (*PolicyEnumerator)(nil)
	_ providers.Enumerator = (*KeyEnumerator)(nil)
	_ providers.Enumerator = (*MetricEnumerator)(nil)
	_ providers.Enumerator = (*FunctionEnumerator)(nil)
)

// token converts the opaque cursor into the SDK's pointer form; an empty
// cursor means the first page.
func token(cursor string) *string {
	if cursor == "" {
		return nil
	}
	return &cursor
}
