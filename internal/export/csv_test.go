package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	score := 0.87654
	reviews := []models.AnalyzedReview{
		{Comment: "Bom, mas caro", SentimentLabel: models.SentimentPositive, SentimentScore: &score, Rating: models.IntPtr(4)},
		{Comment: models.SentinelText, SentimentLabel: models.SentimentNeutral},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, reviews, 0))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"Bom, mas caro", "positive", "0.8765", "4"}, rows[1])
	assert.Equal(t, []string{models.SentinelText, "neutral", "", ""}, rows[2])
}

func TestWriteCSVWithSemicolon(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []models.AnalyzedReview{{Comment: "ok", SentimentLabel: models.SentimentNegative}}, ';'))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "comentario;sentimento_label;sentimento_score;nota", lines[0])
	assert.Equal(t, "ok;negative;;", lines[1])
}
