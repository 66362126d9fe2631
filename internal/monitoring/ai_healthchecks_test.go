package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type flakyChecker struct {
	healthyAfter int
	calls        int
}

func (f *flakyChecker) HealthCheck(context.Context) bool {
	f.calls++
	return f.calls > f.healthyAfter
}

func TestWaitHealthyImmediately(t *testing.T) {
	c := &flakyChecker{}
	assert.True(t, WaitHealthy(context.Background(), "analyzer", c, time.Millisecond, 3))
	assert.Equal(t, 1, c.calls)
}

func TestWaitHealthyRecovers(t *testing.T) {
	c := &flakyChecker{healthyAfter: 2}
	assert.True(t, WaitHealthy(context.Background(), "analyzer", c, time.Millisecond, 3))
	assert.Equal(t, 3, c.calls)
}

func TestWaitHealthyGivesUp(t *testing.T) {
	c := &flakyChecker{healthyAfter: 10}
	assert.False(t, WaitHealthy(context.Background(), "analyzer", c, time.Millisecond, 3))
	assert.Equal(t, 3, c.calls)
}

func TestWaitHealthyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &flakyChecker{healthyAfter: 10}
	assert.False(t, WaitHealthy(ctx, "analyzer", c, time.Hour, 3))
	assert.Equal(t, 1, c.calls)
}
