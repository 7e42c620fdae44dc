package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/metrics"
	"github.com/anvikal/ragchat/internal/ratelimit"
	"github.com/anvikal/ragchat/pkg/logx"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PartialStreamError marks a stream that died after chunks were already
// forwarded to the caller. Replaying the stream would duplicate output, so
// the retrier treats it as non-retryable and the orchestrator surfaces the
// partial state distinctly from a clean completion.
type PartialStreamError struct {
	Err error
}

func (e *PartialStreamError) Error() string {
	return fmt.Sprintf("stream failed after partial output: %v", e.Err)
}

func (e *PartialStreamError) Unwrap() error { return e.Err }

type retryClass int

const (
	nonRetryable retryClass = iota
	retryRateLimited
	retryTransient
)

// Retrier wraps upstream calls with the shared pacing and retry policy:
// consult the local quota gate before every attempt, honor provider
// retry-delay hints on 429, back off exponentially on transient server
// errors, and give up immediately on everything else.
type Retrier struct {
	limiter    *ratelimit.Limiter
	key        string
	maxRetries int
	baseDelay  time.Duration
	logger     *logx.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewRetrier(limiter *ratelimit.Limiter) *Retrier {
	return &Retrier{
		limiter:    limiter,
		key:        config.LLMRateKey,
		maxRetries: config.MaxGenerationRetries,
		baseDelay:  config.RetryBaseDelay,
		logger:     logx.New("llm_retry"),
		sleep:      sleepCtx,
	}
}

// Do runs op with up to maxRetries additional attempts after the first.
// Local gate denials sleep and re-check without consuming the retry budget:
// that is pre-emptive throttling, not a failed call.
func (r *Retrier) Do(ctx context.Context, op func() (string, error)) (string, error) {
	var lastErr error
	var lastOut string

	for attempt := 0; attempt <= r.maxRetries; {
		gate := r.limiter.Check(r.key)
		if !gate.Allowed {
			wait := time.Duration(gate.RetryAfter) * time.Second
			if wait <= 0 {
				wait = config.DefaultRetryAfter
			}
			r.logger.Warn("Local quota gate denied, pausing", "wait", wait)
			metrics.CountLLMRetry("local_gate")
			if err := r.sleep(ctx, wait); err != nil {
				return "", err
			}
			continue
		}

		out, err := op()
		if err == nil {
			return out, nil
		}
		lastErr, lastOut = err, out

		class, hint := classify(err)
		switch class {
		case retryRateLimited:
			r.logger.Warn("Upstream rate limited", "attempt", attempt+1, "wait", hint)
			metrics.CountLLMRetry("upstream_429")
			if serr := r.sleep(ctx, hint); serr != nil {
				return "", serr
			}
		case retryTransient:
			delay := r.baseDelay * (1 << attempt)
			r.logger.Warn("Transient upstream failure", "attempt", attempt+1, "wait", delay, "error", err)
			metrics.CountLLMRetry("upstream_5xx")
			if serr := r.sleep(ctx, delay); serr != nil {
				return "", serr
			}
		default:
			return out, err
		}
		attempt++
	}

	return lastOut, lastErr
}

// classify buckets an upstream failure. For rate limits the returned
// duration is the provider's retry-delay hint, defaulted when absent.
func classify(err error) (retryClass, time.Duration) {
	var partial *PartialStreamError
	if errors.As(err, &partial) {
		return nonRetryable, 0
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429:
			return retryRateLimited, parseRetryDelay(retryHint(apiErr))
		case 500, 503:
			return retryTransient, 0
		default:
			return nonRetryable, 0
		}
	}

	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		switch s.Code() {
		case codes.ResourceExhausted:
			return retryRateLimited, config.DefaultRetryAfter
		case codes.Unavailable, codes.Internal:
			return retryTransient, 0
		}
	}

	return nonRetryable, 0
}

// retryHint digs the RetryInfo delay out of the error details.
func retryHint(apiErr genai.APIError) string {
	for _, detail := range apiErr.Details {
		if v, ok := detail["retryDelay"].(string); ok {
			return v
		}
	}
	return ""
}

var retryDelayPattern = regexp.MustCompile(`^(\d+)([sm]?)$`)

// parseRetryDelay understands "<number>[s|m]", defaulting to 30s when the
// hint is absent or unparseable.
func parseRetryDelay(hint string) time.Duration {
	m := retryDelayPattern.FindStringSubmatch(hint)
	if m == nil {
		return config.DefaultRetryAfter
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return config.DefaultRetryAfter
	}
	if m[2] == "m" {
		return time.Duration(value) * time.Minute
	}
	return time.Duration(value) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WithRetry layers the shared retry policy over a provider.
func WithRetry(inner Provider, limiter *ratelimit.Limiter) Provider {
	return &retryingProvider{inner: inner, retrier: NewRetrier(limiter)}
}

type retryingProvider struct {
	inner   Provider
	retrier *Retrier
}

func (p *retryingProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return p.retrier.Do(ctx, func() (string, error) {
		return p.inner.Complete(ctx, prompt)
	})
}

func (p *retryingProvider) Stream(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	return p.retrier.Do(ctx, func() (string, error) {
		emitted := false
		partial, err := p.inner.Stream(ctx, prompt, func(text string) {
			emitted = true
			onChunk(text)
		})
		if err != nil && emitted {
			return partial, &PartialStreamError{Err: err}
		}
		return partial, err
	})
}
