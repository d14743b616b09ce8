package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/yairfalse/peili/types"
)

// FunctionEnumerator pages through Lambda functions using Marker cursors.
type FunctionEnumerator struct {
	p *Provider
}

func (e *FunctionEnumerator) AssetType() types.AssetType { return types.AssetServerlessFunction }

func (e *FunctionEnumerator) Enumerate(ctx context.Context, cursor string) ([]types.Asset, string, error) {
	output, err := e.p.lambdaClient.ListFunctions(ctx, &lambda.ListFunctionsInput{
		MaxItems: awssdk.Int32(pageSize),
		Marker:   token(cursor),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list functions: %w", err)
	}

	var assets []types.Asset
	for _, fn := range output.Functions {
		assets = append(assets, buildFunctionAsset(fn))
	}

	return assets, awssdk.ToString(output.NextMarker), nil
}

func buildFunctionAsset(fn lambdatypes.FunctionConfiguration) types.Asset {
	name := awssdk.ToString(fn.FunctionName)

	return types.Asset{
		AssetType:   types.AssetServerlessFunction,
		UniqueID:    awssdk.ToString(fn.FunctionArn),
		Name:        name,
		Description: awssdk.ToString(fn.Description),
		Tags:        map[string]string{},
		IsStale:     false,
		Metadata: map[string]any{
			"runtime":       string(fn.Runtime),
			"handler":       awssdk.ToString(fn.Handler),
			"memory_mb":     awssdk.ToInt32(fn.MemorySize),
			"timeout_sec":   awssdk.ToInt32(fn.Timeout),
			"last_modified": awssdk.ToString(fn.LastModified),
		},
	}
}
