package sentiment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spacesedan/reviewflow/internal/models"
)

// ParseOrdinal reads the star count out of a model label such as "4 stars".
func ParseOrdinal(label string) (int, error) {
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty ordinal label")
	}
	stars, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("ordinal label %q: %w", label, err)
	}
	if stars < 1 || stars > 5 {
		return 0, fmt.Errorf("ordinal label %q out of range", label)
	}
	return stars, nil
}

// LabelFromOrdinal maps 1-2 stars to negative, 3 to neutral and 4-5 to positive.
func LabelFromOrdinal(stars int) models.SentimentLabel {
	switch {
	case stars <= 2:
		return models.SentimentNegative
	case stars == 3:
		return models.SentimentNeutral
	default:
		return models.SentimentPositive
	}
}

// LabelFromRating maps a numeric review rating to a label.
func LabelFromRating(rating int) models.SentimentLabel {
	switch {
	case rating >= 4:
		return models.SentimentPositive
	case rating <= 2:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// ApplyRatingOverride replaces the label of every record carrying a rating.
// It runs last and wins over whatever the text produced.
func ApplyRatingOverride(records []models.NormalizedRecord, results []models.ClassificationResult) {
	for i, record := range records {
		if record.Rating == nil || i >= len(results) {
			continue
		}
		results[i].Label = LabelFromRating(*record.Rating)
		results[i].Source = models.LabelSourceRating
	}
}
