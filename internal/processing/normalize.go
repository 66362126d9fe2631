package processing

import (
	"strings"

	"github.com/spacesedan/reviewflow/internal/models"
)

// Normalize guarantees every record has text by substituting the sentinel
// for empty or blank text. Ratings pass through untouched and nothing else
// changes, so normalizing twice gives the same result as once.
func Normalize(raw []models.RawRecord) []models.NormalizedRecord {
	out := make([]models.NormalizedRecord, len(raw))
	for i, r := range raw {
		text := r.Text
		if strings.TrimSpace(text) == "" {
			text = models.SentinelText
		}
		out[i] = models.NormalizedRecord{Text: text, Rating: r.Rating}
	}
	return out
}
