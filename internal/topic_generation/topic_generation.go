package topicgeneration

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"github.com/spacesedan/reviewflow/internal/models"
	"gonum.org/v1/gonum/mat"
)

const (
	defaultTopics     = 3
	defaultWords      = 5
	defaultMaxDF      = 0.95
	defaultMinDF      = 2
	defaultIterations = 200
	epsilon           = 1e-9
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// PortugueseStopWords are dropped before weighting terms.
var PortugueseStopWords = []string{
	"de", "a", "o", "que", "e", "do", "da", "em", "um", "para", "com", "não", "uma", "os", "no",
	"na", "por", "mais", "as", "dos", "como", "mas", "foi", "ao", "ele", "das", "tem", "à", "seu",
	"sua", "meu", "minha",
}

// Extractor finds the dominant topics of a set of reviews with TF-IDF
// weighting and non-negative matrix factorization.
type Extractor struct {
	Topics     int
	Words      int
	MaxDF      float64
	MinDF      int
	Iterations int
	Seed       int64
	stopWords  map[string]struct{}
}

func NewExtractor(topics, words int) *Extractor {
	if topics <= 0 {
		topics = defaultTopics
	}
	if words <= 0 {
		words = defaultWords
	}
	stop := make(map[string]struct{}, len(PortugueseStopWords))
	for _, w := range PortugueseStopWords {
		stop[w] = struct{}{}
	}
	return &Extractor{
		Topics:     topics,
		Words:      words,
		MaxDF:      defaultMaxDF,
		MinDF:      defaultMinDF,
		Iterations: defaultIterations,
		Seed:       1,
		stopWords:  stop,
	}
}

// Extract returns the topics of docs, labelled "Tópico 1", "Tópico 2", ...
// An empty set comes back when there are fewer docs than topics or no term
// survives the document frequency limits.
func (e *Extractor) Extract(sentiment models.SentimentLabel, docs []string) models.TopicSet {
	set := models.TopicSet{Sentiment: sentiment}
	if len(docs) < e.Topics {
		slog.Debug("[TopicGenerator] Not enough documents for topics",
			slog.String("sentiment", string(sentiment)),
			slog.Int("docs", len(docs)))
		return set
	}

	vocab, tfidf := e.vectorize(docs)
	if len(vocab) == 0 {
		slog.Debug("[TopicGenerator] No terms left after pruning",
			slog.String("sentiment", string(sentiment)))
		return set
	}

	_, h := factorize(tfidf, e.Topics, e.Iterations, e.Seed)
	for i := 0; i < e.Topics; i++ {
		set.Topics = append(set.Topics, models.Topic{
			ID:    fmt.Sprintf("Tópico %d", i+1),
			Terms: topTerms(mat.Row(nil, i, h), vocab, e.Words),
		})
	}

	slog.Info("[TopicGenerator] Extracted topics",
		slog.String("sentiment", string(sentiment)),
		slog.Int("docs", len(docs)),
		slog.Int("vocabulary", len(vocab)))
	return set
}

func (e *Extractor) tokenize(doc string) []string {
	tokens := tokenPattern.FindAllString(strings.ToLower(doc), -1)
	kept := tokens[:0]
	for _, t := range tokens {
		if _, stop := e.stopWords[t]; !stop {
			kept = append(kept, t)
		}
	}
	return kept
}

// vectorize builds the l2 normalized TF-IDF matrix (docs x terms) with a
// sorted vocabulary, using smoothed idf.
func (e *Extractor) vectorize(docs []string) ([]string, *mat.Dense) {
	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		counts[i] = make(map[string]int)
		for _, t := range e.tokenize(doc) {
			counts[i][t]++
		}
		for t := range counts[i] {
			df[t]++
		}
	}

	maxDocs := e.MaxDF * float64(len(docs))
	var vocab []string
	for term, n := range df {
		if n >= e.MinDF && float64(n) <= maxDocs {
			vocab = append(vocab, term)
		}
	}
	if len(vocab) == 0 {
		return nil, nil
	}
	sort.Strings(vocab)

	n := float64(len(docs))
	m := mat.NewDense(len(docs), len(vocab), nil)
	for i := range docs {
		var norm float64
		for j, term := range vocab {
			c := counts[i][term]
			if c == 0 {
				continue
			}
			idf := math.Log((1+n)/(1+float64(df[term]))) + 1
			v := float64(c) * idf
			m.Set(i, j, v)
			norm += v * v
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range vocab {
				m.Set(i, j, m.At(i, j)/norm)
			}
		}
	}
	return vocab, m
}

// factorize approximates v (n x m) as w (n x k) times h (k x m) using
// multiplicative updates from a seeded random start.
func factorize(v *mat.Dense, k, iterations int, seed int64) (*mat.Dense, *mat.Dense) {
	r, c := v.Dims()
	rng := rand.New(rand.NewSource(seed))

	scale := math.Sqrt(mat.Sum(v) / float64(r*c) / float64(k))
	if scale == 0 {
		scale = 1
	}
	randomMatrix := func(rows, cols int) *mat.Dense {
		data := make([]float64, rows*cols)
		for i := range data {
			data[i] = scale * (rng.Float64() + epsilon)
		}
		return mat.NewDense(rows, cols, data)
	}
	w := randomMatrix(r, k)
	h := randomMatrix(k, c)

	addEpsilon := func(m *mat.Dense) {
		m.Apply(func(_, _ int, x float64) float64 { return x + epsilon }, m)
	}

	for it := 0; it < iterations; it++ {
		var wtv, wtw, wtwh mat.Dense
		wtv.Mul(w.T(), v)
		wtw.Mul(w.T(), w)
		wtwh.Mul(&wtw, h)
		addEpsilon(&wtwh)
		h.MulElem(h, &wtv)
		h.DivElem(h, &wtwh)

		var vht, hht, whht mat.Dense
		vht.Mul(v, h.T())
		hht.Mul(h, h.T())
		whht.Mul(w, &hht)
		addEpsilon(&whht)
		w.MulElem(w, &vht)
		w.DivElem(w, &whht)
	}
	return w, h
}

func topTerms(weights []float64, vocab []string, n int) []string {
	idx := make([]int, len(weights))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return weights[idx[a]] > weights[idx[b]]
	})

	n = min(n, len(idx))
	terms := make([]string, n)
	for i := 0; i < n; i++ {
		terms[i] = vocab[idx[i]]
	}
	return terms
}
