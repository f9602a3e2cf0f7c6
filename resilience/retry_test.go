package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kbukum/cachekit/errors"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestRetry_SucceedsAfterRetryableFailures(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.ConnectionFailed("redis")
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("Retry = %q, %v", got, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"plain error", stderrors.New("boom")},
		{"circuit open", errors.CircuitOpen("redis")},
		{"store closed", errors.StoreClosed("c")},
		{"serialization", errors.Serialization("decode", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryFunc(context.Background(), fastRetry(5), func(context.Context) error {
				calls++
				return tt.err
			})
			if err != tt.err {
				t.Errorf("expected the original error, got %v", err)
			}
			if calls != 1 {
				t.Errorf("expected 1 call, got %d", calls)
			}
		})
	}
}

func TestRetry_ReturnsLastErrorAfterMaxAttempts(t *testing.T) {
	calls := 0
	var retried []int
	cfg := fastRetry(4)
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }

	err := RetryFunc(context.Background(), cfg, func(context.Context) error {
		calls++
		return errors.StoreFailure("c", "put", nil)
	})
	if !errors.HasCode(err, errors.ErrCodeStoreFailure) {
		t.Errorf("expected STORE_FAILURE, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
	if len(retried) != 3 {
		t.Errorf("expected OnRetry before attempts 2-4, got %v", retried)
	}
}

func TestRetry_CustomRetryIf(t *testing.T) {
	calls := 0
	cfg := fastRetry(3)
	cfg.RetryIf = func(error) bool { return true }
	_ = RetryFunc(context.Background(), cfg, func(context.Context) error {
		calls++
		return stderrors.New("boom")
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 5, InitialBackoff: time.Hour, MaxBackoff: time.Hour}

	calls := 0
	err := RetryFunc(ctx, cfg, func(context.Context) error {
		calls++
		cancel()
		return errors.ConnectionFailed("redis")
	})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestBackoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond, BackoffFactor: 2}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{3, 40 * time.Millisecond},
		{4, 50 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := Backoff(tt.attempt, cfg); got != tt.want {
			t.Errorf("Backoff(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}

	cfg.Jitter = 0.5
	for i := 0; i < 20; i++ {
		if got := Backoff(2, cfg); got < 10*time.Millisecond || got > 30*time.Millisecond {
			t.Fatalf("jittered backoff %s out of range", got)
		}
	}
}

func TestRetryConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RetryConfig
		wantErr bool
	}{
		{"defaults", RetryConfig{}, false},
		{"jitter too large", RetryConfig{Jitter: 1.5}, true},
		{"shrinking backoff", RetryConfig{BackoffFactor: 0.5}, true},
		{"max below initial", RetryConfig{InitialBackoff: time.Second, MaxBackoff: time.Millisecond}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.ApplyDefaults()
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
