package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/spacesedan/reviewflow/internal/models"
)

// Header is the column order of the flat output file.
var Header = []string{"comentario", "sentimento_label", "sentimento_score", "nota"}

// WriteCSV writes one row per review. Unclassified reviews have an empty
// score and unrated ones an empty nota.
func WriteCSV(w io.Writer, reviews []models.AnalyzedReview, sep rune) error {
	if sep == 0 {
		sep = ','
	}
	cw := csv.NewWriter(w)
	cw.Comma = sep

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range reviews {
		score := ""
		if r.SentimentScore != nil {
			score = strconv.FormatFloat(*r.SentimentScore, 'f', 4, 64)
		}
		rating := ""
		if r.Rating != nil {
			rating = strconv.Itoa(*r.Rating)
		}
		if err := cw.Write([]string{r.Comment, string(r.SentimentLabel), score, rating}); err != nil {
			return fmt.Errorf("failed to write review %d: %w", r.Position, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
