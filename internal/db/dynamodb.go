package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/reviewflow/internal/models"
)

const (
	maxBatchSize = 25
	resultTTL    = 7 * 24 * time.Hour
)

// BatchWriter is the slice of the DynamoDB API the store needs.
type BatchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoResultStore persists analyzed reviews keyed by run id and position.
type DynamoResultStore struct {
	client  BatchWriter
	table   string
	backoff time.Duration
}

func NewDynamoResultStore(client BatchWriter, table string) *DynamoResultStore {
	return &DynamoResultStore{client: client, table: table, backoff: 500 * time.Millisecond}
}

func (s *DynamoResultStore) Name() string { return "dynamodb" }

func (s *DynamoResultStore) Store(ctx context.Context, runID string, reviews []models.AnalyzedReview) error {
	expiresAt := time.Now().Add(resultTTL).Unix()

	for i := 0; i < len(reviews); i += maxBatchSize {
		if err := ctx.Err(); err != nil {
			slog.Warn("[DynamoDB] context canceled")
			return err
		}

		end := min(i+maxBatchSize, len(reviews))

		writeRequests := make([]types.WriteRequest, 0, end-i)
		for _, review := range reviews[i:end] {
			review.RunID = runID
			review.ExpiresAt = expiresAt
			item, err := attributevalue.MarshalMap(review)
			if err != nil {
				return fmt.Errorf("[DynamoDB] Failed to marshal review %d: %w", review.Position, err)
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.table: writeRequests},
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Failed to batch write reviews: %w", err)
		}

		retryCount := 0
		backoffDuration := s.backoff
		for len(out.UnprocessedItems) > 0 && retryCount < 3 {
			time.Sleep(backoffDuration)
			backoffDuration *= 2
			slog.Warn("[DynamoDB] Retrying unprocessed items...",
				slog.Int("retry_attempt", retryCount+1),
				slog.Int("remaining_items", len(out.UnprocessedItems[s.table])))

			out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: out.UnprocessedItems,
			})
			if err != nil {
				return fmt.Errorf("[DynamoDB] Failed to retry batch write: %w", err)
			}
			retryCount++
		}

		if len(out.UnprocessedItems) > 0 {
			return fmt.Errorf("[DynamoDB] %d reviews were not written after retries",
				len(out.UnprocessedItems[s.table]))
		}
	}

	slog.Info("[DynamoDB] Successfully stored analyzed reviews",
		slog.String("run_id", runID),
		slog.Int("reviews", len(reviews)))
	return nil
}
