package sentiment

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
	"github.com/spacesedan/reviewflow/internal/models"
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]+>`)
)

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1") // Keep only the text
	return urlPattern.ReplaceAllString(input, "")
}

func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plainText := tagPattern.ReplaceAllString(string(output), " ")
	plainText = strings.Join(strings.Fields(plainText), " ")

	return RemoveLinks(plainText)
}

// VaderClassifier is a lexicon based fallback for when no model is
// available. It speaks the same star-label dialect as the models so the
// batch runner treats it like any other classifier.
type VaderClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderClassifier() *VaderClassifier {
	return &VaderClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (vc *VaderClassifier) Classify(_ context.Context, batch []string) ([]models.ScoredLabel, error) {
	labels := make([]models.ScoredLabel, len(batch))
	for i, text := range batch {
		labels[i] = vc.score(text)
	}
	return labels, nil
}

func (vc *VaderClassifier) score(text string) models.ScoredLabel {
	compound := vc.analyzer.PolarityScores(ConvertMarkdownToText(text)).Compound
	stars := StarsFromCompound(compound)

	confidence := math.Abs(compound)
	if stars == 3 {
		confidence = 1 - confidence
	}
	return models.ScoredLabel{Label: strconv.Itoa(stars) + " stars", Score: confidence}
}

// StarsFromCompound buckets a VADER compound score in [-1, 1] into 1-5 stars.
func StarsFromCompound(compound float64) int {
	switch {
	case compound >= 0.6:
		return 5
	case compound >= 0.2:
		return 4
	case compound > -0.2:
		return 3
	case compound > -0.6:
		return 2
	default:
		return 1
	}
}
