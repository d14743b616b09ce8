package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/peili/providers"
	"github.com/yairfalse/peili/telemetry"
	"github.com/yairfalse/peili/types"
)

func testProvider() *Provider {
	return &Provider{
		region: "eu-north-1",
		logger: telemetry.NewLogger("aws-provider-test"),
	}
}

// fakeEC2 pages instances: cursor "" serves page one, cursor "page2" page two.
type fakeEC2 struct {
	EC2API
	pageOne []ec2types.Instance
	pageTwo []ec2types.Instance
}

func (f *fakeEC2) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	if params.NextToken == nil {
		return &ec2.DescribeInstancesOutput{
			Reservations: []ec2types.Reservation{{Instances: f.pageOne}},
			NextToken:    awssdk.String("page2"),
		}, nil
	}
	return &ec2.DescribeInstancesOutput{
		Reservations: []ec2types.Reservation{{Instances: f.pageTwo}},
	}, nil
}

func instance(id, nameTag string) ec2types.Instance {
	inst := ec2types.Instance{
		InstanceId:   awssdk.String(id),
		InstanceType: ec2types.InstanceTypeT3Micro,
		State:        &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
		VpcId:        awssdk.String("vpc-1"),
		SubnetId:     awssdk.String("subnet-1"),
	}
	if nameTag != "" {
		inst.Tags = []ec2types.Tag{{Key: awssdk.String("Name"), Value: awssdk.String(nameTag)}}
	}
	return inst
}

func TestInstanceEnumeratorThreadsCursor(t *testing.T) {
	p := testProvider()
	p.ec2Client = &fakeEC2{
		pageOne: []ec2types.Instance{instance("i-1", "web-1")},
		pageTwo: []ec2types.Instance{instance("i-2", "")},
	}

	all, err := providers.Collect(context.Background(), &InstanceEnumerator{p})
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "i-1", all[0].UniqueID)
	assert.Equal(t, "web-1", all[0].Name, "Name tag wins")
	assert.Equal(t, "i-2", all[1].Name, "falls back to the id without a Name tag")
	assert.Equal(t, types.AssetComputeInstance, all[0].AssetType)
	assert.Equal(t, "running", all[0].Metadata["state"])
	assert.Equal(t, "vpc-1", all[0].Metadata["vpc_id"])
	assert.False(t, all[0].IsStale)
}

// fakeS3 serves two buckets; location lookups fail for the named bucket.
type fakeS3 struct {
	S3API
	buckets    []string
	failBucket string
}

func (f *fakeS3) ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	out := &s3.ListBucketsOutput{}
	for _, name := range f.buckets {
		out.Buckets = append(out.Buckets, s3types.Bucket{Name: awssdk.String(name)})
	}
	return out, nil
}

func (f *fakeS3) GetBucketLocation(ctx context.Context, params *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error) {
	if awssdk.ToString(params.Bucket) == f.failBucket {
		return nil, errors.New("access denied")
	}
	return &s3.GetBucketLocationOutput{
		LocationConstraint: s3types.BucketLocationConstraintEuNorth1,
	}, nil
}

func TestBucketEnumeratorIsolatesLocationFailures(t *testing.T) {
	p := testProvider()
	p.s3Client = &fakeS3{buckets: []string{"logs", "backups"}, failBucket: "backups"}

	all, next, err := (&BucketEnumerator{p}).Enumerate(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, next, "bucket listing is a single page")
	require.Len(t, all, 2, "a failed location lookup never drops the bucket")

	assert.Equal(t, "eu-north-1", all[0].Metadata["region"])
	assert.Equal(t, "us-east-1", all[1].Metadata["region"], "failed lookup defaults the region")
}

// fakeIAM serves one truncated page then a final one.
type fakeIAM struct {
	IAMAPI
}

func (f *fakeIAM) ListRoles(ctx context.Context, params *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error) {
	if params.Marker == nil {
		return &iam.ListRolesOutput{
			Roles: []iamtypes.Role{{
				Arn:      awssdk.String("arn:aws:iam::123:role/deployer"),
				RoleName: awssdk.String("deployer"),
			}},
			IsTruncated: true,
			Marker:      awssdk.String("m1"),
		}, nil
	}
	return &iam.ListRolesOutput{
		Roles: []iamtypes.Role{{
			Arn:      awssdk.String("arn:aws:iam::123:role/reader"),
			RoleName: awssdk.String("reader"),
		}},
	}, nil
}

func TestRoleEnumeratorFollowsTruncationMarkers(t *testing.T) {
	p := testProvider()
	p.iamClient = &fakeIAM{}

	all, err := providers.Collect(context.Background(), &RoleEnumerator{p})
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "arn:aws:iam::123:role/deployer", all[0].UniqueID)
	assert.Equal(t, "deployer", all[0].Name)
	assert.Equal(t, types.AssetIdentityRole, all[0].AssetType)
}

// fakeKMS serves three keys: one customer-managed, one AWS-managed, one
// whose describe call fails.
type fakeKMS struct {
	KMSAPI
}

func (f *fakeKMS) ListKeys(ctx context.Context, params *kms.ListKeysInput, optFns ...func(*kms.Options)) (*kms.ListKeysOutput, error) {
	return &kms.ListKeysOutput{
		Keys: []kmstypes.KeyListEntry{
			{KeyId: awssdk.String("key-customer")},
			{KeyId: awssdk.String("key-aws")},
			{KeyId: awssdk.String("key-broken")},
		},
	}, nil
}

func (f *fakeKMS) DescribeKey(ctx context.Context, params *kms.DescribeKeyInput, optFns ...func(*kms.Options)) (*kms.DescribeKeyOutput, error) {
	switch awssdk.ToString(params.KeyId) {
	case "key-broken":
		return nil, errors.New("access denied")
	case "key-aws":
		return &kms.DescribeKeyOutput{KeyMetadata: &kmstypes.KeyMetadata{
			KeyId:      awssdk.String("key-aws"),
			KeyManager: kmstypes.KeyManagerTypeAws,
		}}, nil
	default:
		return &kms.DescribeKeyOutput{KeyMetadata: &kmstypes.KeyMetadata{
			KeyId:      awssdk.String("key-customer"),
			KeyManager: kmstypes.KeyManagerTypeCustomer,
			KeyState:   kmstypes.KeyStateEnabled,
			Enabled:    true,
		}}, nil
	}
}

func TestKeyEnumeratorSkipsManagedAndBrokenKeys(t *testing.T) {
	p := testProvider()
	p.kmsClient = &fakeKMS{}

	all, next, err := (&KeyEnumerator{p}).Enumerate(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, all, 1)

	assert.Equal(t, "key-customer", all[0].UniqueID)
	assert.Equal(t, "Enabled", all[0].Metadata["state"])
}

// fakeCloudWatch serves one page of metrics.
type fakeCloudWatch struct {
	CloudWatchAPI
}

func (f *fakeCloudWatch) ListMetrics(ctx context.Context, params *cloudwatch.ListMetricsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.ListMetricsOutput, error) {
	return &cloudwatch.ListMetricsOutput{
		Metrics: []cwtypes.Metric{{
			Namespace:  awssdk.String("AWS/EC2"),
			MetricName: awssdk.String("CPUUtilization"),
			Dimensions: []cwtypes.Dimension{
				{Name: awssdk.String("InstanceId"), Value: awssdk.String("i-1")},
				{Name: awssdk.String("AutoScalingGroupName"), Value: awssdk.String("web")},
			},
		}},
	}, nil
}

func TestMetricEnumeratorBuildsStableIDs(t *testing.T) {
	p := testProvider()
	p.cloudwatchClient = &fakeCloudWatch{}

	all, _, err := (&MetricEnumerator{p}).Enumerate(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 1)

	assert.Equal(t, "AWS/EC2/CPUUtilization/AutoScalingGroupName=web,InstanceId=i-1", all[0].UniqueID)
	assert.Equal(t, "CPUUtilization", all[0].Name)
}

func TestMetricUniqueIDSortsDimensions(t *testing.T) {
	forward := metricUniqueID("AWS/EC2", "CPUUtilization", []cwtypes.Dimension{
		{Name: awssdk.String("a"), Value: awssdk.String("1")},
		{Name: awssdk.String("b"), Value: awssdk.String("2")},
	})
	reversed := metricUniqueID("AWS/EC2", "CPUUtilization", []cwtypes.Dimension{
		{Name: awssdk.String("b"), Value: awssdk.String("2")},
		{Name: awssdk.String("a"), Value: awssdk.String("1")},
	})

	assert.Equal(t, forward, reversed)
	assert.Equal(t, "AWS/EC2/CPUUtilization", metricUniqueID("AWS/EC2", "CPUUtilization", nil))
}

// fakeLambda serves two pages of functions.
type fakeLambda struct {
	LambdaAPI
}

func (f *fakeLambda) ListFunctions(ctx context.Context, params *lambda.ListFunctionsInput, optFns ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error) {
	if params.Marker == nil {
		return &lambda.ListFunctionsOutput{
			Functions: []lambdatypes.FunctionConfiguration{{
				FunctionArn:  awssdk.String("arn:aws:lambda:eu-north-1:123:function:ingest"),
				FunctionName: awssdk.String("ingest"),
				Runtime:      lambdatypes.RuntimeProvidedal2023,
			}},
			NextMarker: awssdk.String("m1"),
		}, nil
	}
	return &lambda.ListFunctionsOutput{
		Functions: []lambdatypes.FunctionConfiguration{{
			FunctionArn:  awssdk.String("arn:aws:lambda:eu-north-1:123:function:report"),
			FunctionName: awssdk.String("report"),
		}},
	}, nil
}

func TestFunctionEnumeratorThreadsMarkers(t *testing.T) {
	p := testProvider()
	p.lambdaClient = &fakeLambda{}

	all, err := providers.Collect(context.Background(), &FunctionEnumerator{p})
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, "ingest", all[0].Name)
	assert.Equal(t, types.AssetServerlessFunction, all[1].AssetType)
}

func TestRegistryCoversEveryAssetType(t *testing.T) {
	p := testProvider()
	registry := p.Registry()

	require.Len(t, registry.All(), len(types.AllAssetTypes()))
	for _, assetType := range types.AllAssetTypes() {
		e, err := registry.ForType(assetType)
		require.NoError(t, err)
		assert.Equal(t, assetType, e.AssetType())
	}
}
