package llm

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// retryDelayPattern matches the retry hint providers embed in rate-limit
// error bodies: "try again in 2s", "try again in 1.37s", "try again in 400ms".
var retryDelayPattern = regexp.MustCompile(`(?i)try again in\s+(\d+(?:\.\d+)?)\s*(m?s)`)

// IsRateLimited reports whether a backend error is a 429, hint or not. Both
// backends surface the HTTP status in their error text.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := ParseRetryDelay(err); ok {
		return true
	}
	return strings.Contains(err.Error(), "status 429")
}

// ParseRetryDelay extracts a wait duration from a backend error. The second
// return is false when the error carries no rate-limit hint, which signals a
// non-retryable failure that should propagate immediately.
func ParseRetryDelay(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	m := retryDelayPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0, false
	}
	value, parseErr := strconv.ParseFloat(m[1], 64)
	if parseErr != nil {
		return 0, false
	}
	unit := time.Second
	if m[2] == "ms" {
		unit = time.Millisecond
	}
	return time.Duration(value * float64(unit)), true
}

// RetryPolicy is the backoff schedule applied after a rate-limit signal.
// It is a pure state machine over (attempt, base delay) so the policy is
// testable without touching the network.
type RetryPolicy struct {
	MaxRetries    int
	BackoffFactor float64
}

// Delay computes the wait before retry number attempt (zero-based):
// base * factor^attempt.
func (p RetryPolicy) Delay(base time.Duration, attempt int) time.Duration {
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	return time.Duration(float64(base) * math.Pow(factor, float64(attempt)))
}

// Do runs fn, retrying on rate-limit errors with exponential backoff. The
// backoff base is the delay hint parsed from the error, or fallbackBase when
// a 429 carries no hint. Exhausting the budget returns the original error so
// the caller surfaces it as a permanent failure; non-rate-limit errors
// propagate on the spot.
func (p RetryPolicy) Do(ctx context.Context, backend string, fallbackBase time.Duration, logger *zap.Logger, fn func() (string, error)) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fallbackBase <= 0 {
		fallbackBase = time.Second
	}
	var lastErr error
	for attempt := 0; ; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !IsRateLimited(err) {
			return "", err
		}
		base, hinted := ParseRetryDelay(err)
		if !hinted {
			base = fallbackBase
		}
		rateLimitedTotal.WithLabelValues(backend).Inc()
		if attempt >= p.MaxRetries {
			retriesExhaustedTotal.WithLabelValues(backend).Inc()
			return "", fmt.Errorf("rate limit retries exhausted after %d attempts: %w", attempt+1, lastErr)
		}

		wait := p.Delay(base, attempt)
		logger.Warn("backend rate limited, backing off",
			zap.String("backend", backend),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
		)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("retry wait: %w", ctx.Err())
		}
		timer.Stop()
	}
}
