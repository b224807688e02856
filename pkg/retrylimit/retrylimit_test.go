package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr int

func (s statusErr) Error() string   { return "status" }
func (s statusErr) StatusCode() int { return int(s) }

func fastConfig(attempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond
	cfg.RateLimitDelay = time.Millisecond
	return cfg
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		if calls < 3 {
			return statusErr(503)
		}
		return nil
	}, nil, fastConfig(5))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnFatal(t *testing.T) {
	calls := 0
	boom := errors.New("forbidden")
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return &FatalError{Err: boom}
	}, nil, fastConfig(5))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_MaxAttempts(t *testing.T) {
	calls := 0
	err := WithRetryConfig(context.Background(), func() error {
		calls++
		return statusErr(500)
	}, nil, fastConfig(3))
	assert.ErrorContains(t, err, "max attempts (3) exceeded")
	assert.Equal(t, 3, calls)
}

func TestWithRetry_CustomStatus(t *testing.T) {
	lim := NewAdaptiveLimiter(8, 1, 8, 1, 0.5)
	cfg := fastConfig(2)
	cfg.Status = func(error) int { return 429 }
	_ = WithRetryConfig(context.Background(), func() error { return errors.New("slow down") }, lim, cfg)
	assert.Equal(t, 4.0, lim.CurrentLimit())
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, func() error { return nil }, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdaptiveLimiter_Bounds(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 2, 6, 1, 0.5)
	lim.RateLimited()
	assert.Equal(t, 2.0, lim.CurrentLimit())
	lim.RateLimited()
	assert.Equal(t, 2.0, lim.CurrentLimit())

	lim.cooloff = 0
	for i := 0; i < 10; i++ {
		lim.Success()
	}
	assert.Equal(t, 6.0, lim.CurrentLimit())
	assert.Equal(t, 6, lim.CurrentBurst())
}
