package aws

import (
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
)

// convertEC2Tags converts EC2 tag lists to a plain map.
func convertEC2Tags(tags []ec2types.Tag) map[string]string {
	m := make(map[string]string, len(tags))
	for _, tag := range tags {
		m[awssdk.ToString(tag.Key)] = awssdk.ToString(tag.Value)
	}
	return m
}

// convertIAMTags converts IAM tag lists to a plain map.
func convertIAMTags(tags []iamtypes.Tag) map[string]string {
	m := make(map[string]string, len(tags))
	for _, tag := range tags {
		m[awssdk.ToString(tag.Key)] = awssdk.ToString(tag.Value)
	}
	return m
}

// nameFromTags prefers the Name tag, falling back to the unique id.
func nameFromTags(tags map[string]string, uniqueID string) string {
	if name, ok := tags["Name"]; ok && name != "" {
		return name
	}
	return uniqueID
}

// createdAt renders a creation timestamp for metadata, empty when unset.
func createdAt(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
