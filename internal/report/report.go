package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spacesedan/reviewflow/internal/models"
)

const samplesPerLabel = 5

// Summary is what the terminal report shows for one run.
type Summary struct {
	Total        int
	Rated        int
	MeanRating   float64
	Ratings      map[int]int
	Sentiments   map[models.SentimentLabel]int
	Samples      map[models.SentimentLabel][]models.AnalyzedReview
	Topics       []models.TopicSet
	Unclassified int
}

// Summarize counts labels and ratings and keeps the first reviews of each
// label as samples.
func Summarize(reviews []models.AnalyzedReview, topics []models.TopicSet) Summary {
	s := Summary{
		Total:      len(reviews),
		Ratings:    make(map[int]int),
		Sentiments: make(map[models.SentimentLabel]int),
		Samples:    make(map[models.SentimentLabel][]models.AnalyzedReview),
		Topics:     topics,
	}

	var ratingSum int
	for _, r := range reviews {
		s.Sentiments[r.SentimentLabel]++
		if r.SentimentScore == nil && r.LabelSource != models.LabelSourceRating {
			s.Unclassified++
		}
		if r.Rating != nil {
			s.Rated++
			ratingSum += *r.Rating
			s.Ratings[*r.Rating]++
		}
		if len(s.Samples[r.SentimentLabel]) < samplesPerLabel {
			s.Samples[r.SentimentLabel] = append(s.Samples[r.SentimentLabel], r)
		}
	}
	if s.Rated > 0 {
		s.MeanRating = float64(ratingSum) / float64(s.Rated)
	}
	return s
}

// RatingValues lists every rating seen, plus 1 to 5, in ascending order.
func (s Summary) RatingValues() []int {
	seen := map[int]struct{}{1: {}, 2: {}, 3: {}, 4: {}, 5: {}}
	for rating := range s.Ratings {
		seen[rating] = struct{}{}
	}
	values := make([]int, 0, len(seen))
	for rating := range seen {
		values = append(values, rating)
	}
	sort.Ints(values)
	return values
}

// Render writes the summary as a set of tables.
func Render(w io.Writer, s Summary) {
	overview := newTable(w, "Resumo")
	overview.AppendRow(table.Row{"Total de reviews", s.Total})
	if s.Rated > 0 {
		overview.AppendRow(table.Row{"Nota média", fmt.Sprintf("%.2f", s.MeanRating)})
	}
	if s.Unclassified > 0 {
		overview.AppendRow(table.Row{"Sem classificação", s.Unclassified})
	}
	overview.Render()

	if s.Rated > 0 {
		ratings := newTable(w, "Distribuição de notas")
		ratings.AppendHeader(table.Row{"Nota", "Reviews"})
		for _, rating := range s.RatingValues() {
			ratings.AppendRow(table.Row{rating, s.Ratings[rating]})
		}
		ratings.Render()
	}

	sentiments := newTable(w, "Distribuição de sentimentos")
	sentiments.AppendHeader(table.Row{"Sentimento", "Reviews", "%"})
	for _, label := range models.SentimentLabels {
		count := s.Sentiments[label]
		share := 0.0
		if s.Total > 0 {
			share = 100 * float64(count) / float64(s.Total)
		}
		sentiments.AppendRow(table.Row{label, count, fmt.Sprintf("%.1f", share)})
	}
	sentiments.Render()

	for _, label := range models.SentimentLabels {
		samples := s.Samples[label]
		if len(samples) == 0 {
			continue
		}
		t := newTable(w, fmt.Sprintf("Exemplos %s", label))
		t.AppendHeader(table.Row{"Comentário", "Nota"})
		for _, r := range samples {
			rating := "-"
			if r.Rating != nil {
				rating = fmt.Sprint(*r.Rating)
			}
			t.AppendRow(table.Row{truncate(r.Comment, 100), rating})
		}
		t.Render()
	}

	for _, set := range s.Topics {
		if set.Empty() {
			fmt.Fprintf(w, "Tópicos %s: poucos reviews para extrair tópicos\n", set.Sentiment)
			continue
		}
		t := newTable(w, fmt.Sprintf("Tópicos %s", set.Sentiment))
		t.AppendHeader(table.Row{"Tópico", "Termos"})
		for _, topic := range set.Topics {
			t.AppendRow(table.Row{topic.ID, strings.Join(topic.Terms, ", ")})
		}
		t.Render()
	}
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
