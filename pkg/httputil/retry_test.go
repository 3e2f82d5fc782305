package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	errFatal := errors.New("content type")
	errFlaky := errors.New("connection reset")

	tests := []struct {
		name      string
		attempts  int
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{"succeeds first try", 3, 0, nil, 1, false},
		{"recovers from transient", 3, 2, Transient(errFlaky), 3, false},
		{"exhausts attempts", 2, 5, Transient(errFlaky), 2, true},
		{"fatal error not retried", 3, 5, errFatal, 1, true},
		{"single attempt disables retry", 1, 5, Transient(errFlaky), 1, true},
		{"zero attempts runs once", 0, 5, Transient(errFlaky), 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), tt.attempts, time.Millisecond, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("Retry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Hour, func() error {
		return Transient(errors.New("flaky"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
}

func TestTransient(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) should be nil")
	}
	cause := errors.New("boom")
	err := Transient(cause)
	if !IsRetryable(err) {
		t.Error("Transient error should be retryable")
	}
	if !errors.Is(err, cause) {
		t.Error("Transient should wrap its cause")
	}
	if IsRetryable(cause) {
		t.Error("plain error should not be retryable")
	}
}

func TestRetryReturnsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Retry(context.Background(), 2, time.Millisecond, func() error {
		return Transient(cause)
	})
	if err != cause {
		t.Errorf("Retry() error = %#v, want the unwrapped cause", err)
	}
	if IsRetryable(err) {
		t.Error("exhausted Retry() error should not be marked retryable")
	}
}

func TestRetryHonorsAfter(t *testing.T) {
	calls := 0
	start := time.Now()
	err := Retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		if calls == 1 {
			return TransientAfter(errors.New("429"), 50*time.Millisecond)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("retried after %s, want at least 50ms", elapsed)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{" 10 ", 10 * time.Second},
		{"-5", 0},
		{"3600", MaxRetryAfter},
		{"Sun, 01 Jun 2025 12:00:20 GMT", 20 * time.Second},
		{"Sun, 01 Jun 2025 11:00:00 GMT", 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		if got := ParseRetryAfter(tt.value, now); got != tt.want {
			t.Errorf("ParseRetryAfter(%q) = %s, want %s", tt.value, got, tt.want)
		}
	}
}
