// Package retry provides a small reusable retry policy with exponential
// backoff, shared by the transcription pipeline and the HTTP collaborators.
package retry

import (
	"context"
	"time"
)

// Default policy values, matching the backoff used against the
// transcription sidecar: 3 attempts with waits of 2s and 4s between them.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
)

// Policy describes how an operation should be retried.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the wait before the second attempt; successive waits double.
	BaseDelay time.Duration

	// Retryable reports whether an error is transient. A nil predicate
	// treats every error as transient.
	Retryable func(error) bool
}

// DefaultPolicy returns a Policy with the default attempt ceiling and backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
	}
}

// Do runs op, retrying transient failures per the policy. It returns the
// last error once attempts are exhausted, or immediately on a non-retryable
// error. Waits respect context cancellation.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = DefaultBaseDelay
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}
