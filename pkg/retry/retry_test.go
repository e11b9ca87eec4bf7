package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:    attempts,
		BaseDelay:      2 * time.Millisecond,
		Multiplier:     2,
		AttemptTimeout: 100 * time.Millisecond,
	}
}

// --- Policy ---

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	bad := []Policy{
		{MaxAttempts: 0, BaseDelay: time.Second, Multiplier: 1, AttemptTimeout: time.Second},
		{MaxAttempts: 1, BaseDelay: 0, Multiplier: 1, AttemptTimeout: time.Second},
		{MaxAttempts: 1, BaseDelay: time.Second, Multiplier: 0.5, AttemptTimeout: time.Second},
		{MaxAttempts: 1, BaseDelay: time.Second, Multiplier: 1, AttemptTimeout: 0},
	}
	for _, p := range bad {
		assert.Error(t, p.Validate(), "%+v", p)
	}
}

func TestPolicy_Delay(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 5 * time.Second, Multiplier: 2, AttemptTimeout: time.Second}
	assert.Equal(t, time.Duration(0), p.Delay(1))
	assert.Equal(t, 5*time.Second, p.Delay(2))
	assert.Equal(t, 10*time.Second, p.Delay(3))
	assert.Equal(t, 20*time.Second, p.Delay(4))
}

// --- Do ---

func TestDo_SuccessImmediate(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		return nil
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_FailThenSucceed(t *testing.T) {
	const failures = 2
	var calls int
	err := Do(context.Background(), fastPolicy(4), func(context.Context) error {
		calls++
		if calls <= failures {
			return errors.New("temporary")
		}
		return nil
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, failures+1, calls)
}

func TestDo_ExhaustsExactlyMaxAttempts(t *testing.T) {
	var calls int
	boom := errors.New("always fail")
	err := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		return boom
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.ErrorIs(t, err, boom)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
}

func TestDo_BackoffDelays(t *testing.T) {
	p := Policy{MaxAttempts: 4, BaseDelay: 3 * time.Millisecond, Multiplier: 3, AttemptTimeout: time.Second}

	var (
		mu     sync.Mutex
		delays = map[int]time.Duration{}
	)
	err := Do(context.Background(), p, func(context.Context) error {
		return errors.New("fail")
	}, func(_ error, attempt int, next time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		delays[attempt] = next
	})
	require.Error(t, err)

	// the delay reported after attempt k-1 is the pause before attempt k
	require.Len(t, delays, 3)
	for k := 2; k <= p.MaxAttempts; k++ {
		assert.Equal(t, p.Delay(k), delays[k-1], "delay before attempt %d", k)
	}
}

func TestDo_AttemptTimeout(t *testing.T) {
	p := Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 1, AttemptTimeout: 10 * time.Millisecond}

	var calls int
	err := Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	}, nil)
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, calls)
}

func TestDo_PermanentStopsRetrying(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(5), func(context.Context) error {
		calls++
		return Permanent(errors.New("bad request"))
	}, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	err := Do(ctx, fastPolicy(3), func(context.Context) error {
		calls++
		return nil
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDo_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, BaseDelay: time.Hour, Multiplier: 1, AttemptTimeout: time.Second}

	var calls int
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, p, func(context.Context) error {
			calls++
			return errors.New("fail")
		}, nil)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancel")
	}
}

func TestDo_InvalidPolicy(t *testing.T) {
	err := Do(context.Background(), Policy{}, func(context.Context) error { return nil }, nil)
	assert.Error(t, err)
}

// --- Constant ---

func TestConstant_RetryExactlyNThenFail(t *testing.T) {
	attempts := 3
	var calls int
	err := Constant(func() error {
		calls++
		return errors.New("fail")
	}, time.Millisecond, attempts)

	assert.Error(t, err)
	assert.Equal(t, attempts, calls, "must call exactly 'attempts' times")
}

func TestConstant_AttemptsNonPositiveMeansOneAttempt(t *testing.T) {
	var calls int
	err := Constant(func() error {
		calls++
		return errors.New("fail once")
	}, time.Millisecond, 0)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
