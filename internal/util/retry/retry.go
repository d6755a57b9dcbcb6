// Package retry provides bounded retry with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy holds retry configuration.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Option is a functional option for retry configuration.
type Option func(*Policy)

// Do executes the operation with exponential backoff, making at most
// MaxAttempts attempts. It returns the number of attempts made alongside
// the final error, so callers can report how hard they tried.
//
// Errors wrapped with Fatal() are never retried. Context cancellation is
// observed between attempts, never mid-attempt.
func Do(ctx context.Context, operation func() error, opts ...Option) (int, error) {
	p := &Policy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	delay := p.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			return attempt, nil
		}

		lastErr = err

		if IsFatal(err) {
			return attempt, err
		}

		if attempt < p.MaxAttempts {
			select {
			case <-ctx.Done():
				return attempt, fmt.Errorf("cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.Multiplier)
				if delay > p.MaxDelay {
					delay = p.MaxDelay
				}
			}
		}
	}

	return p.MaxAttempts, fmt.Errorf("giving up after %d attempts: %w", p.MaxAttempts, lastErr)
}

// WithMaxAttempts sets the total attempt cap, including the first attempt.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		p.MaxAttempts = n
	}
}

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.InitialDelay = d
	}
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.MaxDelay = d
	}
}

// WithMultiplier sets the backoff multiplier.
func WithMultiplier(m float64) Option {
	return func(p *Policy) {
		p.Multiplier = m
	}
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal. Do returns it immediately without
// further attempts.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is marked fatal.
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
