package clients

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spacesedan/reviewflow/config"
)

// NewDynamoDBClient loads the default AWS credential chain for the
// configured region. A custom endpoint points the client at DynamoDB Local.
func NewDynamoDBClient(ctx context.Context, cfg config.DynamoDBConfig) (*dynamodb.Client, error) {
	slog.Info("[AWSClient] Initializing AWS Config...",
		slog.String("region", cfg.Region))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("[AWSClient] failed to load AWS config: %w", err)
	}

	slog.Info("[AWSClient] AWS Config Initialized")
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}
