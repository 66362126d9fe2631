package clients

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/spacesedan/reviewflow/internal/models"
)

// HugotClassifier runs the sentiment model in-process through an ONNX
// session. It is created once and reused for every run.
type HugotClassifier struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
}

// NewHugotClassifier loads the model from modelDir, downloading it from the
// hub on first use.
func NewHugotClassifier(modelName, modelDir string) (*HugotClassifier, error) {
	if err := os.MkdirAll(modelDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}

	modelPath := filepath.Join(modelDir, strings.ReplaceAll(modelName, "/", "_"))
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		slog.Info("[HugotClassifier] Model not found, downloading...",
			slog.String("model", modelName))
		downloaded, err := hugot.DownloadModel(modelName, modelDir, hugot.NewDownloadOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to download model %s: %w", modelName, err)
		}
		modelPath = downloaded
		slog.Info("[HugotClassifier] Model downloaded successfully", slog.String("path", modelPath))
	} else {
		slog.Info("[HugotClassifier] Using existing model", slog.String("path", modelPath))
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "reviewSentimentPipeline",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("failed to initialize sentiment pipeline: %w", err)
	}

	return &HugotClassifier{session: session, pipeline: pipeline}, nil
}

func (hc *HugotClassifier) Classify(_ context.Context, batch []string) ([]models.ScoredLabel, error) {
	output, err := hc.pipeline.RunPipeline(batch)
	if err != nil {
		return nil, err
	}

	labels := make([]models.ScoredLabel, 0, len(output.ClassificationOutputs))
	for i, scores := range output.ClassificationOutputs {
		if len(scores) == 0 {
			return nil, fmt.Errorf("empty scores for input %d", i)
		}
		best := scores[0]
		for _, s := range scores[1:] {
			if s.Score > best.Score {
				best = s
			}
		}
		labels = append(labels, models.ScoredLabel{Label: best.Label, Score: float64(best.Score)})
	}
	return labels, nil
}

func (hc *HugotClassifier) Close() {
	if hc.session != nil {
		hc.session.Destroy()
	}
}
