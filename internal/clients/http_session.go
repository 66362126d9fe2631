package clients

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// NewHTTPSession builds the http.Client shared by every source adapter for
// the lifetime of the process.
func NewHTTPSession(timeout time.Duration) *http.Client {
	slog.Info("[HTTPSession] Initializing Client",
		slog.Duration("timeout", timeout))

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return http.StatusText(resp.StatusCode)
	}
	return "unknown error"
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
