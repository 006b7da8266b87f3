package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharnesh67/neurohub/internal/port"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func transientErr() error {
	return &port.ExternalServiceError{Service: "test", Status: 429, Transient: true, Err: errors.New("too many requests")}
}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), fastRetry(3), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestRetry_AlwaysTransientAttemptsExactlyMax(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastRetry(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, transientErr()
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, port.IsTransient(err))
}

func TestRetry_PermanentErrorSurfacesAfterOneAttempt(t *testing.T) {
	permanent := &port.ExternalServiceError{Service: "test", Status: 401, Err: errors.New("bad credentials")}
	calls := 0
	_, err := Retry(context.Background(), fastRetry(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, port.IsTransient(err))
}

func TestRetry_RecoversMidway(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), fastRetry(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", transientErr()
		}
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, 3, calls)
}

func TestRetry_ContextCancellationStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Retry(ctx, fastRetry(5), func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, transientErr()
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
