package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

type declaredError struct {
	retryable bool
}

func (e *declaredError) Error() string     { return "declared" }
func (e *declaredError) IsRetryable() bool { return e.retryable }

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxRetries != 3 || cfg.InitialDelay != 100*time.Millisecond || cfg.MaxDelay != 5*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	hint := HintConfig()
	if hint.MaxRetries >= cfg.MaxRetries {
		t.Errorf("hint policy should retry less than the default, got %d", hint.MaxRetries)
	}
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient error")
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_MaxRetriesExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(2), func() error {
		calls++
		return fmt.Errorf("attempt %d", calls)
	})

	if err == nil || err.Error() != "attempt 3" {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls (1 initial + 2 retries), got %d", calls)
	}
}

func TestDoWithResult_ReturnsValue(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(2), func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("503 service unavailable")
		}
		return "hints", nil
	})

	if err != nil || got != "hints" {
		t.Errorf("expected hints, got %q (%v)", got, err)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}

	calls := 0
	err := Do(ctx, cfg, func() error {
		calls++
		cancel()
		return errors.New("connection refused")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

// retryOnly adapts an error-only fn to DoIfRetryableWithResult.
func retryOnly(cfg *Config, fn func() error) error {
	_, err := DoIfRetryableWithResult(context.Background(), cfg, func() (int, error) {
		return 0, fn()
	})
	return err
}

func TestDoIfRetryable_PermanentErrorStopsImmediately(t *testing.T) {
	calls := 0
	err := retryOnly(fastConfig(3), func() error {
		calls++
		return errors.New("401 unauthorized")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for permanent error, got %d", calls)
	}
}

func TestDoIfRetryable_DeclaredRetryability(t *testing.T) {
	calls := 0
	err := retryOnly(fastConfig(3), func() error {
		calls++
		return fmt.Errorf("hint call: %w", &declaredError{retryable: false})
	})
	if err == nil || calls != 1 {
		t.Errorf("expected single call for declared permanent error, got %d calls", calls)
	}

	calls = 0
	_ = retryOnly(fastConfig(2), func() error {
		calls++
		return &declaredError{retryable: true}
	})
	if calls != 3 {
		t.Errorf("expected 3 calls for declared retryable error, got %d", calls)
	}
}

func TestDoIfRetryable_RepeatedErrorEscalates(t *testing.T) {
	cfg := fastConfig(5)
	cfg.MaxSameErrorType = 2

	calls := 0
	err := retryOnly(cfg, func() error {
		calls++
		return errors.New("HTTP 503 service unavailable")
	})

	if err == nil || !strings.Contains(err.Error(), "repeated error (2 times, type=503)") {
		t.Errorf("expected escalation error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls before escalation, got %d", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("context deadline exceeded (Client.Timeout exceeded)"), true},
		{errors.New("429 Too Many Requests"), true},
		{errors.New("anthropic: overloaded_error"), true},
		{errors.New("invalid api key"), false},
		{errors.New("syntax error at or near SELECT"), false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestApplyJitter(t *testing.T) {
	base := 100 * time.Millisecond
	if applyJitter(base, 0) != base {
		t.Error("expected no jitter when factor is 0")
	}
	for i := 0; i < 50; i++ {
		got := applyJitter(base, 0.1)
		if got < 90*time.Millisecond || got > 110*time.Millisecond {
			t.Fatalf("jitter out of range: %v", got)
		}
	}
}
