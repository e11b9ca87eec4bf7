package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxAttempts    = 3
	DefaultBaseDelay      = 5 * time.Second
	DefaultMultiplier     = 2.0
	DefaultAttemptTimeout = 60 * time.Second
)

var ErrRetryExhausted = errors.New("retry exhausted")

// Policy describes how a single logical call is retried. It is a plain value and is
// shared read-only between every client that uses it.
type Policy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	Multiplier     float64
	AttemptTimeout time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    DefaultMaxAttempts,
		BaseDelay:      DefaultBaseDelay,
		Multiplier:     DefaultMultiplier,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

func (p Policy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return fmt.Errorf("max attempts must be >= 1, got %d", p.MaxAttempts)
	case p.BaseDelay <= 0:
		return fmt.Errorf("base delay must be > 0, got %s", p.BaseDelay)
	case p.Multiplier < 1:
		return fmt.Errorf("multiplier must be >= 1, got %v", p.Multiplier)
	case p.AttemptTimeout <= 0:
		return fmt.Errorf("attempt timeout must be > 0, got %s", p.AttemptTimeout)
	}
	return nil
}

// Delay returns the pause taken before the given 1-based attempt.
// The first attempt never waits.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-2)))
}

// ExhaustedError is returned once every attempt allowed by the policy has failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrRetryExhausted, e.Last}
}

// Notify is called before every sleep with the failed attempt number and the delay
// that precedes the next one.
type Notify func(err error, attempt int, next time.Duration)

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs fn until it succeeds, the policy is exhausted, fn returns a Permanent error
// or ctx is cancelled. Every attempt gets its own context bounded by AttemptTimeout.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error, notify Notify) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.Multiplier = p.Multiplier
	bo.RandomizationFactor = 0
	bo.MaxInterval = time.Duration(math.MaxInt64)
	bo.MaxElapsedTime = 0
	bo.Reset()

	var (
		attempts  int
		permanent bool
	)
	op := func() error {
		attempts++
		actx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
		defer cancel()

		err := fn(actx)
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			permanent = true
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(p.MaxAttempts-1)), ctx)
	err := backoff.RetryNotify(op, b, func(err error, next time.Duration) {
		if notify != nil {
			notify(err, attempts, next)
		}
	})
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("retry aborted after %d attempts: %w", attempts, ctx.Err())
	case permanent:
		return err
	default:
		return &ExhaustedError{Attempts: attempts, Last: err}
	}
}

// Constant calls fn up to attempts times with a fixed pause in between.
func Constant(fn func() error, interval time.Duration, attempts int) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts {
			time.Sleep(interval)
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}
