package models

type SentimentLabel string

const (
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentPositive SentimentLabel = "positive"
)

// SentimentLabels lists the labels in the order reports present them.
var SentimentLabels = []SentimentLabel{SentimentPositive, SentimentNegative, SentimentNeutral}

// LabelSource records which rule produced a label.
type LabelSource string

const (
	LabelSourceDefault LabelSource = "default"
	LabelSourceText    LabelSource = "text"
	LabelSourceRating  LabelSource = "rating"
)

// ScoredLabel is the raw output of a sentiment model for one text: an
// ordinal label such as "4 stars" and the model's confidence in it.
type ScoredLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ClassificationResult is attached by position to a NormalizedRecord.
type ClassificationResult struct {
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"`
	Classified bool           `json:"classified"`
	Source     LabelSource    `json:"source"`
}
