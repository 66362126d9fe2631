package monitoring

import (
	"context"
	"log/slog"
	"time"
)

const (
	HEALTHCHECK_INTERVAL = 5 * time.Second
	HEALTHCHECK_ATTEMPTS = 3
)

type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// WaitHealthy polls checker until it reports healthy. It gives up after the
// given number of attempts or when ctx is done.
func WaitHealthy(ctx context.Context, name string, checker HealthChecker, interval time.Duration, attempts int) bool {
	if checker.HealthCheck(ctx) {
		return true
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 2; attempt <= attempts; attempt++ {
		slog.Warn("[HealthCheck] Service is unhealthy, waiting",
			slog.String("service", name),
			slog.Int("attempt", attempt-1),
			slog.Int("attempts", attempts))

		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if checker.HealthCheck(ctx) {
				slog.Info("[HealthCheck] Service is healthy", slog.String("service", name))
				return true
			}
		}
	}

	slog.Error("[HealthCheck] Service stayed unhealthy", slog.String("service", name))
	return false
}
