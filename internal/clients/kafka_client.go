package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/reviewflow/config"
	"github.com/spacesedan/reviewflow/internal/models"
)

// KafkaResultPublisher streams analyzed reviews to a topic, one message per
// review keyed by run id, inside a single transaction per run.
type KafkaResultPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaResultPublisher(cfg config.KafkaConfig) (*KafkaResultPublisher, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...")

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     cfg.Broker,
		"security.protocol":                     "PLAINTEXT",
		"api.version.request":                   "true",
		"enable.idempotence":                    true,
		"acks":                                  "all",
		"max.in.flight.requests.per.connection": 1,
		"transactional.id":                      "reviewflow-producer-1",
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	if err := p.InitTransactions(context.Background()); err != nil {
		p.Close()
		return nil, fmt.Errorf("[KafkaClient] Failed to init transactions: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return &KafkaResultPublisher{producer: p, topic: cfg.Topic}, nil
}

func (kp *KafkaResultPublisher) Name() string { return "kafka" }

func (kp *KafkaResultPublisher) Store(ctx context.Context, runID string, reviews []models.AnalyzedReview) error {
	if len(reviews) == 0 {
		return nil
	}

	if err := kp.producer.BeginTransaction(); err != nil {
		return fmt.Errorf("[KafkaClient] failed to begin transaction: %w", err)
	}

	for _, review := range reviews {
		value, err := json.Marshal(review)
		if err != nil {
			return kp.abort(ctx, err)
		}

		msg := &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &kp.topic, Partition: kafka.PartitionAny},
			Key:            []byte(runID),
			Value:          value,
		}
		if err := kp.producer.Produce(msg, nil); err != nil {
			return kp.abort(ctx, err)
		}
	}

	if err := kp.producer.CommitTransaction(ctx); err != nil {
		return kp.abort(ctx, fmt.Errorf("commit: %w", err))
	}

	slog.Info("[KafkaClient] Published analyzed reviews transactionally",
		slog.String("topic", kp.topic),
		slog.String("run_id", runID),
		slog.Int("reviews", len(reviews)))
	return nil
}

func (kp *KafkaResultPublisher) abort(ctx context.Context, cause error) error {
	if err := kp.producer.AbortTransaction(ctx); err != nil {
		return fmt.Errorf("[KafkaClient] failed to abort transaction after %v: %w", cause, err)
	}
	return fmt.Errorf("[KafkaClient] publish aborted: %w", cause)
}

func (kp *KafkaResultPublisher) Close() {
	slog.Info("[KafkaClient] Shutting down Kafka producer...")
	if remaining := kp.producer.Flush(5000); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	kp.producer.Close()
}
