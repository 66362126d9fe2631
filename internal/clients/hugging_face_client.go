package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spacesedan/reviewflow/internal/models"
)

// HuggingFaceClient classifies text through a hosted inference endpoint
// serving a star-rating sentiment model.
type HuggingFaceClient struct {
	Client   *http.Client
	Endpoint string
	Token    string
	Backoff  time.Duration
}

func NewHuggingFaceClient(session *http.Client, endpoint, token string) *HuggingFaceClient {
	slog.Info("[HuggingFaceClient] Initializing Client",
		slog.String("endpoint", endpoint))
	return &HuggingFaceClient{
		Client:   session,
		Endpoint: endpoint,
		Token:    token,
		Backoff:  INITIAL_BACKOFF,
	}
}

// Classify returns the top scored label for every input, in order.
func (h *HuggingFaceClient) Classify(ctx context.Context, batch []string) ([]models.ScoredLabel, error) {
	slog.Debug("[HuggingFaceClient] Requesting sentiment analysis",
		slog.Int("batch_size", len(batch)))
	start := time.Now()

	var result models.InferenceBatchResponse
	err := h.postJSON(ctx, models.InferenceRequest{
		Inputs:  batch,
		Options: models.InferenceOptions{WaitForModel: true},
	}, &result)
	if err != nil {
		slog.Error("[HuggingFaceClient] Sentiment Analysis request failed",
			slog.Duration("elapsed", time.Since(start)))
		return nil, err
	}

	labels := make([]models.ScoredLabel, 0, len(result))
	for i, scores := range result {
		if len(scores) == 0 {
			return nil, fmt.Errorf("empty scores for input %d", i)
		}
		labels = append(labels, top(scores))
	}

	slog.Debug("[HuggingFaceClient] Sentiment Analysis request successful",
		slog.Duration("elapsed", time.Since(start)))
	return labels, nil
}

// HealthCheck sends a one word inference request without retries and reports
// whether the endpoint answered it.
func (h *HuggingFaceClient) HealthCheck(ctx context.Context) bool {
	body, err := json.Marshal(models.InferenceRequest{Inputs: []string{"ok"}})
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", USER_AGENT)
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		slog.Debug("[HuggingFaceClient] Health check failed", slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func top(scores []models.ScoredLabel) models.ScoredLabel {
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best
}

// DoWithRetry retries server side failures with exponential backoff. The
// request is rebuilt for every attempt so its body can be replayed.
func (h *HuggingFaceClient) DoWithRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := h.Backoff

	for attempt := 0; attempt < MAX_RETRIES; attempt++ {
		var req *http.Request
		req, err = build()
		if err != nil {
			return nil, err
		}

		resp, err = h.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if resp != nil {
			resp.Body.Close()
		}

		slog.Warn("[HuggingFaceClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		if !sleepCtx(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff *= 2
		if backoff > MAX_BACKOFF {
			backoff = MAX_BACKOFF
		}
	}

	if err == nil {
		err = fmt.Errorf("status code %d", resp.StatusCode)
	}
	return nil, err
}

func (h *HuggingFaceClient) postJSON(ctx context.Context, input interface{}, output interface{}) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	resp, err := h.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)
		if h.Token != "" {
			req.Header.Set("Authorization", "Bearer "+h.Token)
		}
		return req, nil
	})
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed request after retries",
			slog.String("endpoint", h.Endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("[HuggingFaceClient] Unexpected status",
			slog.Int("status", resp.StatusCode),
			getPreview(respBody))
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[HuggingFaceClient] Failed to unmarshal response",
			slog.String("endpoint", h.Endpoint),
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))

		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}
