package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spacesedan/reviewflow/internal/clients"
	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/spacesedan/reviewflow/internal/sentiment"
)

type State string

const (
	StateIdle        State = "idle"
	StateCollecting  State = "collecting"
	StateCollected   State = "collected"
	StateClassifying State = "classifying"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a message for whoever presents the result.
type Notice struct {
	Level   NoticeLevel
	Message string
}

type ComplaintCollector interface {
	CollectComplaints(ctx context.Context, baseURL string, maxPages int) ([]models.RawRecord, error)
}

type ReviewCollector interface {
	CollectReviews(ctx context.Context, productID, accessToken string) ([]models.RawRecord, error)
}

// CollectionCache keeps collected records for a while so the same URL is not
// fetched twice in a row.
type CollectionCache interface {
	Get(ctx context.Context, key string) ([]models.RawRecord, bool)
	Set(ctx context.Context, key string, records []models.RawRecord, ttl time.Duration) error
}

// ResultSink receives the final rows of a run.
type ResultSink interface {
	Name() string
	Store(ctx context.Context, runID string, reviews []models.AnalyzedReview) error
}

type TopicExtractor interface {
	Extract(label models.SentimentLabel, docs []string) models.TopicSet
}

type URLRequest struct {
	URL         string
	AccessToken string
	MaxPages    int
}

// Result is everything a run produced, including what went wrong on the way.
type Result struct {
	RunID   string
	Source  Source
	State   State
	Reviews []models.AnalyzedReview
	Topics  []models.TopicSet
	Notices []Notice
	Report  sentiment.RunReport
}

func (r *Result) notify(level NoticeLevel, format string, args ...any) {
	r.Notices = append(r.Notices, Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Empty reports whether the run finished without any review.
func (r *Result) Empty() bool {
	return r.State == StateDone && len(r.Reviews) == 0
}

// Pipeline wires collection, normalization, classification and the optional
// extras (cache, topics, sinks) into one sequential run.
type Pipeline struct {
	ReclameAqui   ComplaintCollector
	MercadoLivre  ReviewCollector
	Runner        *sentiment.BatchRunner
	Cache         CollectionCache
	CacheTTL      time.Duration
	Topics        TopicExtractor
	Sinks         []ResultSink
	MaxPages      int
	OnStateChange func(State)
}

func NewPipeline(ra ComplaintCollector, ml ReviewCollector, runner *sentiment.BatchRunner) *Pipeline {
	return &Pipeline{
		ReclameAqui:  ra,
		MercadoLivre: ml,
		Runner:       runner,
		CacheTTL:     time.Hour,
		MaxPages:     5,
	}
}

func (p *Pipeline) transition(res *Result, state State) {
	res.State = state
	slog.Debug("[Pipeline] State changed",
		slog.String("run_id", res.RunID),
		slog.String("state", string(state)))
	if p.OnStateChange != nil {
		p.OnStateChange(state)
	}
}

// AnalyzeURL collects reviews from a Reclame Aqui or Mercado Livre URL and
// analyzes them. Source and credential problems are returned as errors
// before anything is fetched. Collection errors with partial records keep
// going with a notice; with nothing collected the result ends Failed.
func (p *Pipeline) AnalyzeURL(ctx context.Context, req URLRequest) (*Result, error) {
	source, err := DetectSource(req.URL)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString(), Source: source, State: StateIdle}

	var productID string
	pages := req.MaxPages
	if pages <= 0 {
		pages = p.MaxPages
	}
	switch source {
	case SourceMercadoLivre:
		if strings.TrimSpace(req.AccessToken) == "" {
			return nil, ErrMissingToken
		}
		productID, err = clients.ExtractProductID(req.URL)
		if err != nil {
			return nil, err
		}
		if p.MercadoLivre == nil {
			return nil, fmt.Errorf("%w: no Mercado Livre collector configured", ErrUnsupportedSource)
		}
	case SourceReclameAqui:
		if p.ReclameAqui == nil {
			return nil, fmt.Errorf("%w: no Reclame Aqui collector configured", ErrUnsupportedSource)
		}
	}

	p.transition(res, StateCollecting)
	key := cacheKey(source, req.URL, productID, pages)

	raw, cached := p.cached(ctx, key)
	if cached {
		res.notify(NoticeInfo, "using %d cached reviews", len(raw))
	} else {
		var collectErr error
		switch source {
		case SourceMercadoLivre:
			raw, collectErr = p.MercadoLivre.CollectReviews(ctx, productID, req.AccessToken)
		case SourceReclameAqui:
			raw, collectErr = p.ReclameAqui.CollectComplaints(ctx, req.URL, pages)
		}

		if collectErr != nil {
			slog.Warn("[Pipeline] Collection ended with an error",
				slog.String("run_id", res.RunID),
				slog.String("source", string(source)),
				slog.Int("records", len(raw)),
				slog.String("error", collectErr.Error()))
			if len(raw) == 0 {
				res.notify(NoticeError, "collection failed: %s", describeCollectError(collectErr))
				p.transition(res, StateFailed)
				return res, nil
			}
			res.notify(NoticeWarning, "collection stopped early, continuing with %d reviews: %s",
				len(raw), describeCollectError(collectErr))
		} else {
			p.store(ctx, key, raw)
		}
	}

	return p.analyze(ctx, res, raw), nil
}

// AnalyzeRecords runs records that were collected elsewhere, such as the
// rows of an upload read with LoadUpload.
func (p *Pipeline) AnalyzeRecords(ctx context.Context, source Source, raw []models.RawRecord) *Result {
	res := &Result{RunID: uuid.NewString(), Source: source, State: StateIdle}
	p.transition(res, StateCollecting)
	return p.analyze(ctx, res, raw)
}

func (p *Pipeline) analyze(ctx context.Context, res *Result, raw []models.RawRecord) *Result {
	p.transition(res, StateCollected)
	if len(raw) == 0 {
		res.notify(NoticeWarning, "no reviews were found")
		p.transition(res, StateDone)
		return res
	}

	records := Normalize(raw)
	slog.Info("[Pipeline] Collected reviews",
		slog.String("run_id", res.RunID),
		slog.String("source", string(res.Source)),
		slog.Int("records", len(records)))

	p.transition(res, StateClassifying)
	results, report := p.Runner.Run(ctx, records)
	res.Report = report
	if n := len(report.FailedBatch); n > 0 {
		res.notify(NoticeWarning, "%d batch(es) could not be classified and were left neutral", n)
	}

	res.Reviews = make([]models.AnalyzedReview, len(records))
	for i := range records {
		review := models.NewAnalyzedReview(i, records[i], results[i])
		review.RunID = res.RunID
		review.Source = string(res.Source)
		res.Reviews[i] = review
	}

	if p.Topics != nil {
		res.Topics = p.extractTopics(res.Reviews)
	}

	p.sink(ctx, res)
	p.transition(res, StateDone)
	return res
}

// extractTopics runs the extractor on the positive and negative partitions,
// leaving out reviews without real text.
func (p *Pipeline) extractTopics(reviews []models.AnalyzedReview) []models.TopicSet {
	var sets []models.TopicSet
	for _, label := range []models.SentimentLabel{models.SentimentPositive, models.SentimentNegative} {
		var docs []string
		for _, r := range reviews {
			if r.SentimentLabel == label && r.Comment != models.SentinelText {
				docs = append(docs, r.Comment)
			}
		}
		sets = append(sets, p.Topics.Extract(label, docs))
	}
	return sets
}

func (p *Pipeline) sink(ctx context.Context, res *Result) {
	for _, s := range p.Sinks {
		if err := s.Store(ctx, res.RunID, res.Reviews); err != nil {
			slog.Error("[Pipeline] Failed to store results",
				slog.String("sink", s.Name()),
				slog.String("run_id", res.RunID),
				slog.String("error", err.Error()))
			res.notify(NoticeWarning, "results were not saved to %s", s.Name())
			continue
		}
		slog.Info("[Pipeline] Stored results",
			slog.String("sink", s.Name()),
			slog.Int("reviews", len(res.Reviews)))
	}
}

func (p *Pipeline) cached(ctx context.Context, key string) ([]models.RawRecord, bool) {
	if p.Cache == nil {
		return nil, false
	}
	records, ok := p.Cache.Get(ctx, key)
	if ok {
		slog.Info("[Pipeline] Cache hit", slog.String("key", key), slog.Int("records", len(records)))
	}
	return records, ok
}

func (p *Pipeline) store(ctx context.Context, key string, records []models.RawRecord) {
	if p.Cache == nil || len(records) == 0 {
		return
	}
	if err := p.Cache.Set(ctx, key, records, p.CacheTTL); err != nil {
		slog.Warn("[Pipeline] Failed to cache collected reviews",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

// cacheKey never includes the access token.
func cacheKey(source Source, rawURL, productID string, pages int) string {
	switch source {
	case SourceMercadoLivre:
		return fmt.Sprintf("%s:%s", source, productID)
	default:
		return fmt.Sprintf("%s:%s:%d", source, strings.TrimRight(strings.TrimSpace(rawURL), "/"), pages)
	}
}

func describeCollectError(err error) string {
	switch {
	case errors.Is(err, clients.ErrNotFound):
		return "nothing was found at the given address"
	case errors.Is(err, clients.ErrUnreachable):
		return "the source could not be reached (" + err.Error() + ")"
	default:
		return err.Error()
	}
}
