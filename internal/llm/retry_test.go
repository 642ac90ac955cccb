package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseRetryDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want time.Duration
		ok   bool
	}{
		{name: "whole seconds", err: errors.New("rate limit: Please try again in 2s"), want: 2 * time.Second, ok: true},
		{name: "fractional seconds", err: errors.New("429: try again in 1.37s."), want: 1370 * time.Millisecond, ok: true},
		{name: "milliseconds", err: errors.New("quota hit, try again in 400ms"), want: 400 * time.Millisecond, ok: true},
		{name: "case insensitive", err: errors.New("Try Again In 3S"), want: 3 * time.Second, ok: true},
		{name: "no hint", err: errors.New("invalid api key"), ok: false},
		{name: "nil error", err: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRetryDelay(tt.err)
			require.Equal(t, tt.ok, ok)
			if ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

// TestDelayGrowth pins the documented schedule: factor 1.5 on a 1000ms base
// yields 1000, 1500, 2250 for the first three retries.
func TestDelayGrowth(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxRetries: 3, BackoffFactor: 1.5}
	base := 1000 * time.Millisecond

	require.Equal(t, 1000*time.Millisecond, p.Delay(base, 0))
	require.Equal(t, 1500*time.Millisecond, p.Delay(base, 1))
	require.Equal(t, 2250*time.Millisecond, p.Delay(base, 2))
}

func TestDoRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxRetries: 3, BackoffFactor: 1.5}
	calls := 0
	out, err := p.Do(context.Background(), "gemini", time.Millisecond, zap.NewNop(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("429: try again in 1ms")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", out)
	require.Equal(t, 3, calls)
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxRetries: 2, BackoffFactor: 1.5}
	calls := 0
	rateLimitErr := errors.New("try again in 1ms")
	_, err := p.Do(context.Background(), "gemini", time.Millisecond, zap.NewNop(), func() (string, error) {
		calls++
		return "", rateLimitErr
	})
	require.Error(t, err)
	require.ErrorIs(t, err, rateLimitErr)
	// initial attempt plus MaxRetries retries
	require.Equal(t, 3, calls)
}

func TestDoRetriesBareStatus429WithFallbackBase(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxRetries: 2, BackoffFactor: 1}
	calls := 0
	out, err := p.Do(context.Background(), "openai", time.Millisecond, zap.NewNop(), func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("openai status 429: slow down")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", out)
	require.Equal(t, 2, calls)
}

func TestIsRateLimited(t *testing.T) {
	t.Parallel()

	require.True(t, IsRateLimited(errors.New("gemini status 429: quota")))
	require.True(t, IsRateLimited(errors.New("rate limit: try again in 2s")))
	require.False(t, IsRateLimited(errors.New("gemini status 500: boom")))
	require.False(t, IsRateLimited(nil))
}

func TestDoPropagatesNonRateLimitErrors(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxRetries: 5, BackoffFactor: 2}
	calls := 0
	permanent := fmt.Errorf("schema validation failed")
	_, err := p.Do(context.Background(), "openai", time.Millisecond, zap.NewNop(), func() (string, error) {
		calls++
		return "", permanent
	})
	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, calls)
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	require.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, StripFences("```\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, StripFences(`{"a":1}`))
}
