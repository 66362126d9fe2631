package models

// AnalyzedReview is one row of the flat output: the review text joined with
// its final sentiment.
type AnalyzedReview struct {
	RunID          string         `json:"run_id" dynamodbav:"run_id"`
	Position       int            `json:"position" dynamodbav:"position"`
	Source         string         `json:"source" dynamodbav:"source"`
	Comment        string         `json:"comentario" dynamodbav:"comentario"`
	SentimentLabel SentimentLabel `json:"sentimento_label" dynamodbav:"sentimento_label"`
	SentimentScore *float64       `json:"sentimento_score,omitempty" dynamodbav:"sentimento_score,omitempty"`
	LabelSource    LabelSource    `json:"label_source" dynamodbav:"label_source"`
	Rating         *int           `json:"nota,omitempty" dynamodbav:"nota,omitempty"`
	ExpiresAt      int64          `json:"-" dynamodbav:"expires_at,omitempty"`
}

// NewAnalyzedReview joins a record with its classification.
func NewAnalyzedReview(position int, record NormalizedRecord, result ClassificationResult) AnalyzedReview {
	review := AnalyzedReview{
		Position:       position,
		Comment:        record.Text,
		SentimentLabel: result.Label,
		LabelSource:    result.Source,
		Rating:         record.Rating,
	}
	if result.Classified {
		score := result.Confidence
		review.SentimentScore = &score
	}
	return review
}
