package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")

	// ErrStoreUnavailable marks counter-store failures. It never crosses the
	// core boundary; the rate limiter fails over instead.
	ErrStoreUnavailable = errors.New("counter store unavailable")
)

// Failure reason codes recorded on SearchExecution.
const (
	ReasonRateLimited = "rate_limited"
	ReasonNoQueries   = "no_queries"
	ReasonTimeout     = "timeout"
	ReasonInternal    = "internal_error"
)

// RateLimitError is returned when a quota is exhausted. Always retryable.
type RateLimitError struct {
	Limit             int       `json:"limit"`
	Remaining         int       `json:"remaining"`
	ResetTime         time.Time `json:"resetTime"`
	RetryAfterSeconds int       `json:"retryAfterSeconds"`
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: retry after %ds", e.RetryAfterSeconds)
}

// AIProviderError wraps an LLM or classifier failure that persisted through
// the internal retry loop.
type AIProviderError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *AIProviderError) Error() string {
	return fmt.Sprintf("ai call failed: %s after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *AIProviderError) Unwrap() error { return e.Err }

// ExtractionError marks a fetched source that could not be parsed. The
// source is skipped and the error recorded on the execution.
type ExtractionError struct {
	SourceURL string
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.SourceURL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
