package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spacesedan/reviewflow/config"
	"github.com/spacesedan/reviewflow/internal/clients"
	"github.com/spacesedan/reviewflow/internal/db"
	"github.com/spacesedan/reviewflow/internal/monitoring"
	"github.com/spacesedan/reviewflow/internal/processing"
	"github.com/spacesedan/reviewflow/internal/sentiment"
	topicgeneration "github.com/spacesedan/reviewflow/internal/topic_generation"
)

// app owns the long lived resources of one invocation.
type app struct {
	pipeline *processing.Pipeline
	closers  []func()
}

func newApp(ctx context.Context, cfg config.Config, withTopics bool) (*app, error) {
	a := &app{}
	session := clients.NewHTTPSession(cfg.HTTPTimeout)

	classifier := a.classifier(ctx, cfg, session)
	runner := sentiment.NewBatchRunner(classifier, cfg.BatchSize)
	runner.OnProgress = logProgress

	p := processing.NewPipeline(
		clients.NewReclameAquiClient(session, cfg.ReclameAquiPageDelay),
		clients.NewMercadoLivreClient(session, cfg.MercadoLivrePageLimit, cfg.MercadoLivrePageDelay),
		runner,
	)
	p.MaxPages = cfg.ReclameAquiMaxPages
	p.CacheTTL = cfg.CacheTTL
	p.OnStateChange = func(s processing.State) {
		slog.Info("[Main] Pipeline state", slog.String("state", string(s)))
	}
	if withTopics {
		p.Topics = topicgeneration.NewExtractor(cfg.TopicCount, cfg.TopicWords)
	}

	if cfg.Valkey.Enabled() {
		cache, err := clients.NewValkeyCache(cfg.Valkey)
		if err != nil {
			slog.Warn("[Main] Valkey unavailable, collection cache disabled",
				slog.String("error", err.Error()))
		} else {
			p.Cache = cache
			a.closers = append(a.closers, cache.Close)
		}
	}

	if cfg.DynamoDB.Enabled() {
		client, err := clients.NewDynamoDBClient(ctx, cfg.DynamoDB)
		if err != nil {
			slog.Warn("[Main] DynamoDB unavailable, results will not be stored",
				slog.String("error", err.Error()))
		} else {
			p.Sinks = append(p.Sinks, db.NewDynamoResultStore(client, cfg.DynamoDB.Table))
		}
	}

	if cfg.Kafka.Enabled() {
		publisher, err := clients.NewKafkaResultPublisher(cfg.Kafka)
		if err != nil {
			slog.Warn("[Main] Kafka unavailable, results will not be published",
				slog.String("error", err.Error()))
		} else {
			p.Sinks = append(p.Sinks, publisher)
			a.closers = append(a.closers, publisher.Close)
		}
	}

	a.pipeline = p
	return a, nil
}

// classifier picks the configured backend. A local model that cannot be
// loaded, or a remote endpoint that stays unhealthy, falls back to the
// lexicon classifier.
func (a *app) classifier(ctx context.Context, cfg config.Config, session *http.Client) sentiment.Classifier {
	switch cfg.ClassifierBackend {
	case config.BackendRemote:
		hf := clients.NewHuggingFaceClient(session, cfg.InferenceEndpoint, cfg.InferenceToken)
		if !monitoring.WaitHealthy(ctx, "analyzer", hf, monitoring.HEALTHCHECK_INTERVAL, monitoring.HEALTHCHECK_ATTEMPTS) {
			slog.Warn("[Main] Inference endpoint unhealthy, falling back to VADER",
				slog.String("endpoint", cfg.InferenceEndpoint))
			return sentiment.NewVaderClassifier()
		}
		return hf
	case config.BackendVader:
		return sentiment.NewVaderClassifier()
	case config.BackendHugot:
	default:
		slog.Warn("[Main] Unknown classifier backend, using hugot",
			slog.String("backend", cfg.ClassifierBackend))
	}

	hc, err := clients.NewHugotClassifier(cfg.SentimentModel, cfg.ModelDir)
	if err != nil {
		slog.Warn("[Main] Local model unavailable, falling back to VADER",
			slog.String("model", cfg.SentimentModel),
			slog.String("error", err.Error()))
		return sentiment.NewVaderClassifier()
	}
	a.closers = append(a.closers, hc.Close)
	return hc
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func logProgress(p sentiment.Progress) {
	slog.Info("[Main] Classifying",
		slog.Int("batch", p.Batch),
		slog.Int("batches", p.Batches),
		slog.String("progress", fmt.Sprintf("%.0f%%", 100*p.Fraction())))
}
