package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/spacesedan/reviewflow/internal/utils"
)

const DefaultBatchSize = 16

// ErrBatchFailure marks a batch whose records were left unclassified.
var ErrBatchFailure = errors.New("batch classification failed")

// Classifier is any sentiment model that turns texts into ordinal labels.
// It must return exactly one label per input, in order.
type Classifier interface {
	Classify(ctx context.Context, batch []string) ([]models.ScoredLabel, error)
}

// Progress describes how far a run has got through the classifiable records.
type Progress struct {
	Batch     int
	Batches   int
	Processed int
	Total     int
}

// Fraction is the completed share of the run, never above 1.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 1
	}
	return float64(min(p.Processed, p.Total)) / float64(p.Total)
}

type ProgressFunc func(Progress)

// BatchRunner feeds records to a classifier one batch at a time.
type BatchRunner struct {
	Classifier Classifier
	BatchSize  int
	OnProgress ProgressFunc
}

func NewBatchRunner(classifier Classifier, batchSize int) *BatchRunner {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchRunner{Classifier: classifier, BatchSize: batchSize}
}

// RunReport summarizes a Run.
type RunReport struct {
	Classified  int
	Skipped     int
	FailedBatch []int
	BatchErrors []error
}

// Run classifies every record with real text and returns one result per
// record, by position. Sentinel records default to neutral without reaching
// the classifier. A failing batch is logged and its records stay neutral and
// unclassified. Ratings override the text label last.
func (br *BatchRunner) Run(ctx context.Context, records []models.NormalizedRecord) ([]models.ClassificationResult, RunReport) {
	results := make([]models.ClassificationResult, len(records))
	var indexes []int
	for i, record := range records {
		results[i] = models.ClassificationResult{
			Label:  models.SentimentNeutral,
			Source: models.LabelSourceDefault,
		}
		if record.HasText() {
			indexes = append(indexes, i)
		}
	}

	report := RunReport{Skipped: len(records) - len(indexes)}
	if len(indexes) == 0 {
		slog.Warn("[BatchRunner] No records with text to classify")
		ApplyRatingOverride(records, results)
		return results, report
	}

	batches := utils.Chunk(indexes, br.BatchSize)
	total := len(indexes)
	processed := 0

	for n, batch := range batches {
		if err := ctx.Err(); err != nil {
			slog.Warn("[BatchRunner] context canceled, stopping",
				slog.Int("batch", n+1))
			report.FailedBatch = append(report.FailedBatch, n+1)
			report.BatchErrors = append(report.BatchErrors, fmt.Errorf("%w: %w", ErrBatchFailure, err))
			break
		}

		texts := make([]string, len(batch))
		for j, idx := range batch {
			texts[j] = records[idx].Text
		}

		if err := br.classifyBatch(ctx, batch, texts, results); err != nil {
			slog.Error("[BatchRunner] Batch failed, continuing",
				slog.Int("batch", n+1),
				slog.Int("batches", len(batches)),
				slog.String("error", err.Error()))
			report.FailedBatch = append(report.FailedBatch, n+1)
			report.BatchErrors = append(report.BatchErrors, fmt.Errorf("%w: batch %d: %w", ErrBatchFailure, n+1, err))
		} else {
			report.Classified += len(batch)
		}

		processed += len(batch)
		if br.OnProgress != nil {
			br.OnProgress(Progress{
				Batch:     n + 1,
				Batches:   len(batches),
				Processed: min(processed, total),
				Total:     total,
			})
		}
	}

	ApplyRatingOverride(records, results)
	return results, report
}

// classifyBatch writes results only once the whole batch has been validated.
func (br *BatchRunner) classifyBatch(ctx context.Context, batch []int, texts []string, results []models.ClassificationResult) error {
	labels, err := br.Classifier.Classify(ctx, texts)
	if err != nil {
		return err
	}
	if len(labels) != len(texts) {
		return fmt.Errorf("classifier returned %d labels for %d texts", len(labels), len(texts))
	}

	staged := make([]models.ClassificationResult, len(labels))
	for j, scored := range labels {
		stars, err := ParseOrdinal(scored.Label)
		if err != nil {
			return err
		}
		staged[j] = models.ClassificationResult{
			Label:      LabelFromOrdinal(stars),
			Confidence: clamp01(scored.Score),
			Classified: true,
			Source:     models.LabelSourceText,
		}
	}

	for j, idx := range batch {
		results[idx] = staged[j]
	}
	return nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
