package chatmodel

import (
	"errors"
	"fmt"
)

// ValidationError marks malformed request input. Surfaced as 400, never
// retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type NotFoundError struct {
	Kind string
	Id   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Id)
}

// RateLimitError means the local quota gate denied before any upstream call
// was attempted. RetryAfter is whole seconds until the window resets.
type RateLimitError struct {
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", e.RetryAfter)
}

// EmptyContentError is a per-document failure: nothing extractable to chunk.
// Not retryable and not a system fault.
type EmptyContentError struct {
	Filename string
}

func (e *EmptyContentError) Error() string {
	if e.Filename == "" {
		return "no content to chunk"
	}
	return fmt.Sprintf("no content extracted from %q", e.Filename)
}

type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

type GenerationFailure string

const (
	GenRateLimited   GenerationFailure = "rate_limited"
	GenBadCredential GenerationFailure = "bad_credential"
	GenOther         GenerationFailure = "other"
)

// GenerationError is what the orchestrator surfaces to clients after the
// retry budget is spent or a non-retryable upstream failure occurs. Only the
// failure class leaks out, never the upstream message.
type GenerationError struct {
	Kind       GenerationFailure
	RetryAfter int
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
