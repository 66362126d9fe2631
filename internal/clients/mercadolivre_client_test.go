package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewsServer struct {
	total   int
	items   []models.MercadoLivreReview
	failAt  int
	offsets []int
	auth    []string
}

func (s *reviewsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	s.offsets = append(s.offsets, offset)
	s.auth = append(s.auth, r.Header.Get("Authorization"))

	if s.failAt > 0 && len(s.offsets) == s.failAt {
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	end := min(offset+limit, len(s.items))
	page := []models.MercadoLivreReview{}
	if offset < end {
		page = s.items[offset:end]
	}
	_ = json.NewEncoder(w).Encode(models.MercadoLivreReviewsResponse{
		Paging:  models.MercadoLivrePaging{Total: s.total, Offset: offset, Limit: limit},
		Reviews: page,
	})
}

func reviewItems(n int) []models.MercadoLivreReview {
	items := make([]models.MercadoLivreReview, n)
	for i := range items {
		items[i] = models.MercadoLivreReview{
			ID:      int64(i),
			Content: "review " + strconv.Itoa(i),
			Rate:    models.IntPtr(i%5 + 1),
		}
	}
	return items
}

func newTestMercadoLivre(t *testing.T, s *reviewsServer, limit int) *MercadoLivreClient {
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	mc := NewMercadoLivreClient(srv.Client(), limit, 0)
	mc.BaseURL = srv.URL
	return mc
}

func TestExtractProductID(t *testing.T) {
	id, err := ExtractProductID("https://produto.mercadolivre.com.br/mlb123456789-fone-bluetooth")
	require.NoError(t, err)
	assert.Equal(t, "MLB123456789", id)

	id, err = ExtractProductID("https://www.mercadolivre.com.br/p/MLB42?x=MLB99")
	require.NoError(t, err)
	assert.Equal(t, "MLB42", id)

	_, err = ExtractProductID("https://www.mercadolivre.com.br/ofertas")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollectReviewsStopsAtTotal(t *testing.T) {
	s := &reviewsServer{total: 5, items: reviewItems(8)}
	mc := newTestMercadoLivre(t, s, 2)

	records, err := mc.CollectReviews(context.Background(), "MLB1", "token-123")
	require.NoError(t, err)

	assert.Len(t, records, 6)
	assert.Equal(t, []int{0, 2, 4}, s.offsets)
	assert.Equal(t, 1, *records[0].Rating)
	assert.Equal(t, "review 5", records[5].Text)
	for _, h := range s.auth {
		assert.Equal(t, "Bearer token-123", h)
	}
}

func TestCollectReviewsStopsExactlyAtTotal(t *testing.T) {
	s := &reviewsServer{total: 4, items: reviewItems(8)}
	mc := newTestMercadoLivre(t, s, 2)

	records, err := mc.CollectReviews(context.Background(), "MLB1", "t")
	require.NoError(t, err)

	assert.Len(t, records, 4)
	assert.Equal(t, []int{0, 2}, s.offsets)
}

func TestCollectReviewsHonorsSessionTimeout(t *testing.T) {
	release := make(chan struct{})
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			return
		}
		_ = json.NewEncoder(w).Encode(models.MercadoLivreReviewsResponse{
			Paging:  models.MercadoLivrePaging{Total: 10, Limit: 2},
			Reviews: reviewItems(2),
		})
	}))
	defer srv.Close()
	defer close(release)

	mc := NewMercadoLivreClient(NewHTTPSession(100*time.Millisecond), 2, 0)
	mc.BaseURL = srv.URL

	start := time.Now()
	records, err := mc.CollectReviews(context.Background(), "MLB1", "t")

	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Len(t, records, 2)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCollectReviewsStopsOnEmptyPage(t *testing.T) {
	s := &reviewsServer{total: 100, items: reviewItems(3)}
	mc := newTestMercadoLivre(t, s, 2)

	records, err := mc.CollectReviews(context.Background(), "MLB1", "t")
	require.NoError(t, err)

	assert.Len(t, records, 3)
	assert.Equal(t, []int{0, 2, 4}, s.offsets)
}

func TestCollectReviewsKeepsEmptyContentAsSentinel(t *testing.T) {
	s := &reviewsServer{total: 2, items: []models.MercadoLivreReview{
		{Content: "", Rate: models.IntPtr(4)},
		{Content: "Ótimo", Rate: nil},
	}}
	mc := newTestMercadoLivre(t, s, 50)

	records, err := mc.CollectReviews(context.Background(), "MLB1", "t")
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, models.SentinelText, records[0].Text)
	assert.Equal(t, 4, *records[0].Rating)
	assert.Nil(t, records[1].Rating)
}

func TestCollectReviewsReturnsPartialRecordsOnError(t *testing.T) {
	s := &reviewsServer{total: 10, items: reviewItems(10), failAt: 2}
	mc := newTestMercadoLivre(t, s, 3)

	records, err := mc.CollectReviews(context.Background(), "MLB1", "t")

	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Len(t, records, 3)
}

func TestCollectReviewsFailsWithoutAnyRecord(t *testing.T) {
	s := &reviewsServer{total: 10, items: reviewItems(10), failAt: 1}
	mc := newTestMercadoLivre(t, s, 3)

	records, err := mc.CollectReviews(context.Background(), "MLB1", "t")

	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Empty(t, records)
}
