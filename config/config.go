package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendHugot  = "hugot"
	BackendRemote = "remote"
	BackendVader  = "vader"
)

type Config struct {
	Env      string
	LogLevel slog.Level

	BatchSize int

	ReclameAquiMaxPages  int
	ReclameAquiPageDelay time.Duration

	MercadoLivrePageDelay time.Duration
	MercadoLivrePageLimit int

	HTTPTimeout time.Duration

	ClassifierBackend string
	SentimentModel    string
	ModelDir          string
	InferenceEndpoint string
	InferenceToken    string
	CacheTTL          time.Duration
	TopicCount        int
	TopicWords        int

	Valkey   ValkeyConfig
	DynamoDB DynamoDBConfig
	Kafka    KafkaConfig
}

type ValkeyConfig struct {
	Address  string
	Password string
	UseTLS   bool
}

func (v ValkeyConfig) Enabled() bool { return v.Address != "" }

type DynamoDBConfig struct {
	Table    string
	Region   string
	Endpoint string
}

func (d DynamoDBConfig) Enabled() bool { return d.Table != "" }

type KafkaConfig struct {
	Broker string
	Topic  string
}

func (k KafkaConfig) Enabled() bool { return k.Broker != "" }

// Load reads the configuration from the environment, falling back to
// defaults for anything unset or malformed.
func Load() Config {
	model := getEnv("SENTIMENT_MODEL", "nlptown/bert-base-multilingual-uncased-sentiment")
	return Config{
		Env:                   getEnv("APP_ENV", "dev"),
		LogLevel:              getLevel("LOG_LEVEL", slog.LevelInfo),
		BatchSize:             getInt("BATCH_SIZE", 16),
		ReclameAquiMaxPages:   getInt("RA_MAX_PAGES", 5),
		ReclameAquiPageDelay:  getDuration("RA_PAGE_DELAY", time.Second),
		MercadoLivrePageDelay: getDuration("ML_PAGE_DELAY", 500*time.Millisecond),
		MercadoLivrePageLimit: getInt("ML_PAGE_LIMIT", 50),
		HTTPTimeout:           getDuration("HTTP_TIMEOUT", 15*time.Second),
		ClassifierBackend:     strings.ToLower(getEnv("CLASSIFIER_BACKEND", BackendHugot)),
		SentimentModel:        model,
		ModelDir:              getEnv("MODEL_DIR", "./models"),
		InferenceEndpoint:     getEnv("HF_INFERENCE_ENDPOINT", "https://api-inference.huggingface.co/models/"+model),
		InferenceToken:        os.Getenv("HF_API_TOKEN"),
		CacheTTL:              getDuration("CACHE_TTL", time.Hour),
		TopicCount:            getInt("TOPIC_COUNT", 3),
		TopicWords:            getInt("TOPIC_WORDS", 5),
		Valkey: ValkeyConfig{
			Address:  os.Getenv("VALKEY_INIT_ADDRESS"),
			Password: os.Getenv("VALKEY_PASSWORD"),
			UseTLS:   os.Getenv("VALKEY_TLS") == "true",
		},
		DynamoDB: DynamoDBConfig{
			Table:    os.Getenv("DYNAMODB_RESULTS_TABLE"),
			Region:   getEnv("AWS_REGION", "us-west-2"),
			Endpoint: os.Getenv("AWS_ENDPOINT"),
		},
		Kafka: KafkaConfig{
			Broker: os.Getenv("KAFKA_BROKER"),
			Topic:  getEnv("KAFKA_RESULTS_TOPIC", "review-sentiment-results"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		slog.Warn("[Config] Invalid integer, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Int("default", defaultValue))
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		slog.Warn("[Config] Invalid duration, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Duration("default", defaultValue))
		return defaultValue
	}
	return d
}

func getLevel(key string, defaultValue slog.Level) slog.Level {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return defaultValue
	}
	return level
}
