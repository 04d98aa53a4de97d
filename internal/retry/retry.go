// Package retry runs fallible operations under a fixed attempt/delay policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Policy bounds how an operation is retried
type Policy struct {
	MaxAttempts int           // total attempts, including the first
	Delay       time.Duration // fixed pause between attempts
	Timeout     time.Duration // per-attempt deadline, zero disables
}

// DefaultPolicy is two attempts one second apart
var DefaultPolicy = Policy{MaxAttempts: 2, Delay: time.Second}

// WithTimeout returns a copy of p with the per-attempt timeout set
func (p Policy) WithTimeout(timeout time.Duration) Policy {
	p.Timeout = timeout
	return p
}

// MaxRetriesExceededError is returned after the last attempt fails
type MaxRetriesExceededError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *MaxRetriesExceededError) Error() string {
	return fmt.Sprintf("failed to perform '%s' after %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

func (e *MaxRetriesExceededError) Unwrap() error {
	return e.Err
}

// IsMaxRetriesExceeded reports whether err came from an exhausted policy
func IsMaxRetriesExceeded(err error) bool {
	var target *MaxRetriesExceededError
	return errors.As(err, &target)
}

// Do runs fn until it succeeds or the policy is exhausted. It returns the
// result together with the wall time spent across all attempts.
func Do[T any](ctx context.Context, p Policy, operation string, logger *zap.Logger, fn func(ctx context.Context) (T, error)) (T, time.Duration, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	start := time.Now()
	tries := 0
	var result T

	op := func() error {
		tries++
		attemptCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}

		value, err := fn(attemptCtx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		result = value
		return nil
	}

	notify := func(err error, next time.Duration) {
		logger.Info("Operation attempt failed, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", tries),
			zap.Int("max_attempts", attempts),
			zap.Duration("retry_in", next),
			zap.Error(err))
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(attempts-1)),
		ctx,
	)

	err := backoff.RetryNotify(op, policy, notify)
	duration := time.Since(start)
	if err != nil {
		logger.Error("Operation failed after retries",
			zap.String("operation", operation),
			zap.Int("attempts", tries),
			zap.Duration("duration", duration),
			zap.Error(err))
		var zero T
		return zero, duration, &MaxRetriesExceededError{Operation: operation, Attempts: tries, Err: err}
	}

	logger.Info("Operation completed",
		zap.String("operation", operation),
		zap.Int("attempts", tries),
		zap.Duration("duration", duration))
	return result, duration, nil
}
