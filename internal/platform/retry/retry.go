// Package retry is the shared retry policy for outbound provider calls.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy retries a call with exponential backoff.
// Attempts = MaxRetries + 1. Each attempt runs under AttemptTimeout when set.
type Policy struct {
	MaxRetries     int
	BaseDelay      time.Duration
	Multiplier     float64
	AttemptTimeout time.Duration

	// Retryable classifies errors. Nil retries every error except Permanent ones
	// and cancellation of the parent context.
	Retryable func(error) bool
}

// Default mirrors the provider adapters: 3 retries, 500ms base, doubling, 12s per attempt.
func Default() Policy {
	return Policy{
		MaxRetries:     3,
		BaseDelay:      500 * time.Millisecond,
		Multiplier:     2,
		AttemptTimeout: 12 * time.Second,
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, or attempts are exhausted.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	maxAttempts := p.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 2
	}
	backoff := p.BaseDelay

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("retry: %w (last error: %v)", err, lastErr)
			}
			return err
		}

		lastErr = p.attempt(ctx, fn)
		if lastErr == nil {
			return nil
		}

		if !p.retryable(ctx, lastErr) || attempt == maxAttempts {
			return lastErr
		}

		if backoff > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry: %w (last error: %v)", ctx.Err(), lastErr)
			case <-timer.C:
			}
		}

		backoff = time.Duration(float64(backoff) * multiplier)
	}

	return lastErr
}

func (p Policy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.AttemptTimeout <= 0 {
		return fn(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()
	return fn(attemptCtx)
}

func (p Policy) retryable(ctx context.Context, err error) bool {
	// Parent cancellation is final; a per-attempt deadline is not.
	if ctx.Err() != nil {
		return false
	}
	if IsPermanent(err) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
