package models

// Topic is one factorized topic with its terms ordered by weight.
type Topic struct {
	ID    string   `json:"id"`
	Terms []string `json:"terms"`
}

// TopicSet holds the topics extracted from one sentiment partition.
type TopicSet struct {
	Sentiment SentimentLabel `json:"sentiment"`
	Topics    []Topic        `json:"topics"`
}

func (t TopicSet) Empty() bool {
	return len(t.Topics) == 0
}
