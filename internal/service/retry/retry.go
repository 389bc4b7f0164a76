// Package retry runs an outbound call with exponential backoff between attempts.
package retry

import (
	"context"
	"fmt"
	"time"

	"k8s.io/klog/v2"
)

// DefaultMaxAttempts is used when Policy.MaxAttempts is not positive.
const DefaultMaxAttempts = 3

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy configures CallWithRetry.
type Policy struct {
	// MaxAttempts bounds the number of calls, including the first.
	MaxAttempts int
	// BaseDelay is the wait after the first failure; it doubles on every further failure.
	BaseDelay time.Duration
	// AttemptTimeout bounds each attempt. Zero leaves the caller's deadline in charge.
	AttemptTimeout time.Duration
	// Sleep replaces the real wait, mainly in tests.
	Sleep Sleeper
	// OnAttempt observes every finished attempt.
	OnAttempt func(attempt int, err error, elapsed time.Duration)
	// Name labels log lines.
	Name string
}

// DefaultPolicy waits 1s, 2s, 4s... between at most three attempts.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseDelay: time.Second}
}

// Backoff returns the wait after the given failed attempt (1-based): BaseDelay * 2^(attempt-1).
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay << (attempt - 1)
}

func (p Policy) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

// RequestError is returned once every attempt has failed, or when the caller
// gave up while waiting between attempts.
type RequestError struct {
	Attempts int
	// Last is the error of the final attempt.
	Last error
	// Abort is set when the parent context ended the loop early.
	Abort error
}

func (e *RequestError) Error() string {
	if e.Abort != nil {
		return fmt.Sprintf("request aborted after %d attempt(s): %v (last error: %v)", e.Attempts, e.Abort, e.Last)
	}
	return fmt.Sprintf("request failed after %d attempt(s): %v", e.Attempts, e.Last)
}

// Unwrap exposes both the last attempt error and the abort cause to errors.Is/As.
func (e *RequestError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Last != nil {
		errs = append(errs, e.Last)
	}
	if e.Abort != nil {
		errs = append(errs, e.Abort)
	}
	return errs
}

// CallWithRetry runs call until it succeeds or the policy's attempts are spent.
// Attempts are sequential and independent; nothing is carried between them.
// The final failure is returned without waiting.
func CallWithRetry[T any](ctx context.Context, p Policy, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	name := p.Name
	if name == "" {
		name = "request"
	}

	maxAttempts := p.maxAttempts()
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		result, err := runAttempt(ctx, p.AttemptTimeout, call)
		if p.OnAttempt != nil {
			p.OnAttempt(attempt, err, time.Since(start))
		}
		if err == nil {
			if attempt > 1 {
				klog.Infof("[retry] %s succeeded on attempt %d/%d", name, attempt, maxAttempts)
			}
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, &RequestError{Attempts: attempt, Last: lastErr, Abort: ctx.Err()}
		}
		if attempt == maxAttempts {
			break
		}

		delay := p.Backoff(attempt)
		klog.Warningf("[retry] %s attempt %d/%d failed: %v; retrying in %s", name, attempt, maxAttempts, err, delay)
		if err := sleep(ctx, delay); err != nil {
			return zero, &RequestError{Attempts: attempt, Last: lastErr, Abort: err}
		}
	}

	klog.Errorf("[retry] %s failed after %d attempts: %v", name, maxAttempts, lastErr)
	return zero, &RequestError{Attempts: maxAttempts, Last: lastErr}
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, call func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return call(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return call(attemptCtx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
