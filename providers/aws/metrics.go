package aws

import (
	"context"
	"fmt"
	"sort"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/yairfalse/peili/types"
)

// MetricEnumerator pages through CloudWatch metrics. The API fixes its own
// page size, so the cursor is the only knob.
type MetricEnumerator struct {
	p *Provider
}

func (e *MetricEnumerator) AssetType() types.AssetType { return types.AssetMetric }

func (e *MetricEnumerator) Enumerate(ctx context.Context, cursor string) ([]types.Asset, string, error) {
	output, err := e.p.cloudwatchClient.ListMetrics(ctx, &cloudwatch.ListMetricsInput{
		NextToken: token(cursor),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list metrics: %w", err)
	}

	var assets []types.Asset
	for _, metric := range output.Metrics {
		assets = append(assets, buildMetricAsset(metric))
	}

	return assets, awssdk.ToString(output.NextToken), nil
}

func buildMetricAsset(metric cwtypes.Metric) types.Asset {
	namespace := awssdk.ToString(metric.Namespace)
	name := awssdk.ToString(metric.MetricName)

	dims := make(map[string]any, len(metric.Dimensions))
	for _, d := range metric.Dimensions {
		dims[awssdk.ToString(d.Name)] = awssdk.ToString(d.Value)
	}

	return types.Asset{
		AssetType:   types.AssetMetric,
		UniqueID:    metricUniqueID(namespace, name, metric.Dimensions),
		Name:        name,
		Description: fmt.Sprintf("Metric %s in %s", name, namespace),
		Tags:        map[string]string{},
		IsStale:     false,
		Metadata: map[string]any{
			"namespace":  namespace,
			"dimensions": dims,
		},
	}
}

// metricUniqueID builds a stable identity for a metric. Two metrics share a
// name when their dimension sets differ, so the dimensions are folded in,
// sorted so the id does not depend on API ordering.
func metricUniqueID(namespace, name string, dimensions []cwtypes.Dimension) string {
	parts := make([]string, 0, len(dimensions))
	for _, d := range dimensions {
		parts = append(parts, fmt.Sprintf("%s=%s", awssdk.ToString(d.Name), awssdk.ToString(d.Value)))
	}
	sort.Strings(parts)

	id := namespace + "/" + name
	if len(parts) > 0 {
		id += "/" + strings.Join(parts, ",")
	}
	return id
}
