package models

type MercadoLivreReviewsResponse struct {
	Paging        MercadoLivrePaging   `json:"paging"`
	Reviews       []MercadoLivreReview `json:"reviews"`
	RatingAverage float64              `json:"rating_average"`
}

type MercadoLivrePaging struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type MercadoLivreReview struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Rate    *int   `json:"rate"`
}
