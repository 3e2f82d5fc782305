package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MaxRetryAfter caps the wait a server can request through Retry-After.
const MaxRetryAfter = time.Minute

// RetryableError marks a failure worth another attempt: a dropped
// connection, a timeout or a 5xx/429 response.
type RetryableError struct {
	Err error
	// After is the minimum wait before the next attempt, taken from a
	// Retry-After header. Zero means the backoff delay alone applies.
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Transient marks err as retryable. It returns nil for a nil error.
func Transient(err error) error {
	return TransientAfter(err, 0)
}

// TransientAfter marks err as retryable no sooner than after.
func TransientAfter(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err, After: after}
}

// Retry executes fn up to attempts times with exponential backoff.
// Only errors marked with [Transient] are retried; others are returned
// immediately. The delay doubles after each failed attempt, and a
// [RetryableError.After] longer than the delay is honored.
//
// When attempts run out the last cause is returned without its
// RetryableError wrapper. Cancellation returns ctx.Err().
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	for i := 0; ; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		var re *RetryableError
		if !errors.As(err, &re) {
			return err
		}
		if i == attempts-1 {
			return re.Err
		}

		timer := time.NewTimer(max(delay, re.After))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

// IsRetryable reports whether err is marked transient.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// ParseRetryAfter reads a Retry-After header value, either delay seconds
// or an HTTP date, relative to now. Unparseable or past values yield 0;
// long waits are capped at [MaxRetryAfter].
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		d = time.Duration(secs) * time.Second
	} else if t, err := http.ParseTime(value); err == nil {
		d = t.Sub(now)
	}
	return min(max(d, 0), MaxRetryAfter)
}
