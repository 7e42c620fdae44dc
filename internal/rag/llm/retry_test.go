package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anvikal/ragchat/internal/ratelimit"
	"google.golang.org/genai"
)

func newTestRetrier(maxRetries int) (*Retrier, *[]time.Duration) {
	var sleeps []time.Duration
	r := NewRetrier(ratelimit.New(1000, time.Minute))
	r.maxRetries = maxRetries
	r.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return r, &sleeps
}

func apiError(code int, details []map[string]any) genai.APIError {
	return genai.APIError{Code: code, Message: "upstream says no", Details: details}
}

func TestDo_RateLimitHintHonored(t *testing.T) {
	r, sleeps := newTestRetrier(3)

	calls := 0
	out, err := r.Do(context.Background(), func() (string, error) {
		calls++
		if calls == 1 {
			return "", apiError(429, []map[string]any{
				{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "5s"},
			})
		}
		return "answer", nil
	})

	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if out != "answer" {
		t.Errorf("out = %q, want answer", out)
	}
	if calls != 2 {
		t.Errorf("op called %d times, want 2", calls)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != 5*time.Second {
		t.Errorf("sleeps = %v, want one 5s wait from the parsed hint", *sleeps)
	}
}

func TestDo_TransientBackoffGrowsExponentially(t *testing.T) {
	r, sleeps := newTestRetrier(3)
	r.baseDelay = 100 * time.Millisecond

	calls := 0
	_, err := r.Do(context.Background(), func() (string, error) {
		calls++
		if calls <= 3 {
			return "", apiError(503, nil)
		}
		return "recovered", nil
	})

	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	if len(*sleeps) != len(want) {
		t.Fatalf("got %d sleeps, want %d", len(*sleeps), len(want))
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Errorf("sleep %d = %v, want %v", i, (*sleeps)[i], d)
		}
	}
}

func TestDo_NonRetryablePropagatesImmediately(t *testing.T) {
	r, sleeps := newTestRetrier(3)

	calls := 0
	_, err := r.Do(context.Background(), func() (string, error) {
		calls++
		return "", apiError(401, nil)
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("op called %d times, want exactly 1 for a non-retryable error", calls)
	}
	if len(*sleeps) != 0 {
		t.Errorf("no sleeps expected, got %v", *sleeps)
	}
}

func TestDo_BudgetExhaustionReturnsLastError(t *testing.T) {
	r, _ := newTestRetrier(2)

	calls := 0
	_, err := r.Do(context.Background(), func() (string, error) {
		calls++
		return "", apiError(503, nil)
	})

	if err == nil {
		t.Fatal("expected the last observed error after exhausting retries")
	}
	if calls != 3 { // first attempt + 2 retries
		t.Errorf("op called %d times, want 3", calls)
	}
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 503 {
		t.Errorf("err = %v, want the upstream 503", err)
	}
}

func TestDo_LocalGateDoesNotConsumeBudget(t *testing.T) {
	var sleeps []time.Duration
	limiter := ratelimit.New(1, 20*time.Millisecond)
	limiter.Check("llm-api") // use up the only slot

	r := NewRetrier(limiter)
	r.maxRetries = 0
	r.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		time.Sleep(30 * time.Millisecond) // let the window expire
		return nil
	}

	calls := 0
	out, err := r.Do(context.Background(), func() (string, error) {
		calls++
		return "ok", nil
	})

	if err != nil || out != "ok" {
		t.Fatalf("Do = (%q, %v), want (ok, nil)", out, err)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
	if len(sleeps) != 1 {
		t.Errorf("expected one pre-emptive wait, got %v", sleeps)
	}
}

func TestDo_PartialStreamIsNotRetried(t *testing.T) {
	r, _ := newTestRetrier(3)

	calls := 0
	out, err := r.Do(context.Background(), func() (string, error) {
		calls++
		return "partial text", &PartialStreamError{Err: apiError(503, nil)}
	})

	var partial *PartialStreamError
	if !errors.As(err, &partial) {
		t.Fatalf("err = %v, want PartialStreamError", err)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1: replay would duplicate output", calls)
	}
	if out != "partial text" {
		t.Errorf("out = %q, want the partial accumulation preserved", out)
	}
}

func TestParseRetryDelay(t *testing.T) {
	tests := []struct {
		hint string
		want time.Duration
	}{
		{"5s", 5 * time.Second},
		{"2m", 2 * time.Minute},
		{"45", 45 * time.Second},
		{"", 30 * time.Second},
		{"soon", 30 * time.Second},
		{"-3s", 30 * time.Second},
	}
	for _, tt := range tests {
		if got := parseRetryDelay(tt.hint); got != tt.want {
			t.Errorf("parseRetryDelay(%q) = %v, want %v", tt.hint, got, tt.want)
		}
	}
}
