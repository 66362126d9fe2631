package models

// SentinelText stands in for reviews that arrive without any text, so every
// downstream step can rely on a non-empty comment.
const SentinelText = "Este review não possui texto."

// RawRecord is one review as a source adapter collected it. Text may be
// empty until the record is normalized; Rating is only set by sources that
// carry a star rating.
type RawRecord struct {
	Text   string `json:"text"`
	Rating *int   `json:"rating,omitempty"`
}

// NormalizedRecord is a RawRecord whose Text is guaranteed to be non-empty.
type NormalizedRecord struct {
	Text   string `json:"text"`
	Rating *int   `json:"rating,omitempty"`
}

// HasText reports whether the record carries real review text rather than
// the sentinel placeholder.
func (r NormalizedRecord) HasText() bool {
	return r.Text != SentinelText
}

// IntPtr is a small helper for building records with a rating.
func IntPtr(v int) *int {
	return &v
}
