package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spacesedan/reviewflow/internal/models"
	"golang.org/x/oauth2"
)

const (
	MERCADO_LIVRE_API_URL    = "https://api.mercadolibre.com"
	MERCADO_LIVRE_PAGE_LIMIT = 50
)

var productIDPattern = regexp.MustCompile(`(?i)MLB\d+`)

// ExtractProductID pulls a product identifier such as MLB123456 out of a
// marketplace URL.
func ExtractProductID(rawURL string) (string, error) {
	match := productIDPattern.FindString(rawURL)
	if match == "" {
		return "", fmt.Errorf("%w in %q", ErrNotFound, rawURL)
	}
	return strings.ToUpper(match), nil
}

type MercadoLivreClient struct {
	Client    *http.Client
	BaseURL   string
	PageLimit int
	PageDelay time.Duration
}

func NewMercadoLivreClient(session *http.Client, pageLimit int, pageDelay time.Duration) *MercadoLivreClient {
	if pageLimit <= 0 {
		pageLimit = MERCADO_LIVRE_PAGE_LIMIT
	}
	return &MercadoLivreClient{
		Client:    session,
		BaseURL:   MERCADO_LIVRE_API_URL,
		PageLimit: pageLimit,
		PageDelay: pageDelay,
	}
}

// authorized wraps the shared session so every request carries the caller's
// access token. The token only lives as long as the returned client, which
// keeps the session's timeout.
func (mc *MercadoLivreClient) authorized(ctx context.Context, accessToken string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, mc.Client)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	client.Timeout = mc.Client.Timeout
	return client
}

// CollectReviews pages through the reviews of a product until the server
// reported total is reached or a page comes back empty. Any failure aborts
// the loop; the records accumulated so far are returned with the error.
func (mc *MercadoLivreClient) CollectReviews(ctx context.Context, productID, accessToken string) ([]models.RawRecord, error) {
	client := mc.authorized(ctx, accessToken)

	var records []models.RawRecord
	offset := 0

	for {
		page, err := mc.fetchPage(ctx, client, productID, offset)
		if err != nil {
			slog.Error("[MercadoLivreClient] Failed to collect reviews",
				slog.String("product_id", productID),
				slog.Int("offset", offset),
				slog.Int("collected", len(records)),
				slog.String("error", err.Error()))
			return records, err
		}

		if len(page.Reviews) == 0 {
			break
		}

		for _, review := range page.Reviews {
			text := review.Content
			if strings.TrimSpace(text) == "" {
				text = models.SentinelText
			}
			records = append(records, models.RawRecord{
				Text:   text,
				Rating: review.Rate,
			})
		}

		total := page.Paging.Total
		slog.Info("[MercadoLivreClient] Collected page",
			slog.String("product_id", productID),
			slog.Int("collected", len(records)),
			slog.Int("total", total))

		if len(records) >= total {
			break
		}
		offset += mc.PageLimit

		if !sleepCtx(ctx, mc.PageDelay) {
			return records, ctx.Err()
		}
	}

	return records, nil
}

func (mc *MercadoLivreClient) fetchPage(ctx context.Context, client *http.Client, productID string, offset int) (*models.MercadoLivreReviewsResponse, error) {
	endpoint, err := url.Parse(fmt.Sprintf("%s/reviews/item/%s", strings.TrimRight(mc.BaseURL, "/"), url.PathEscape(productID)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	query := endpoint.Query()
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(mc.PageLimit))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", USER_AGENT)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status code %d", ErrUnreachable, resp.StatusCode)
	}

	var page models.MercadoLivreReviewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return &page, nil
}
