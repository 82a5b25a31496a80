package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep() func(ctx context.Context, d time.Duration) error {
	return func(context.Context, time.Duration) error { return nil }
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	p := NewRetryPolicy(3, time.Millisecond).WithSleep(noSleep())

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	p := NewRetryPolicy(3, time.Millisecond).WithSleep(noSleep())

	calls := 0
	sentinel := errors.New("still broken")
	err := p.Do(context.Background(), func() error {
		calls++
		return sentinel
	}, nil)

	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	p := NewRetryPolicy(5, time.Millisecond).WithSleep(noSleep())

	fatal := errors.New("conflict")
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return fatal
	}, func(err error) bool {
		return !errors.Is(err, fatal)
	})

	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls, "non-retryable error must not be retried")
}

func TestRetryBackoffDoubles(t *testing.T) {
	p := NewRetryPolicy(4, 10*time.Millisecond)

	var waits []time.Duration
	p.WithSleep(func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	})

	_ = p.Do(context.Background(), func() error { return errors.New("x") }, nil)
	require.Len(t, waits, 3, "no wait after the final attempt")
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}, waits)
}

func TestRetryHonorsContext(t *testing.T) {
	p := NewRetryPolicy(5, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Do(ctx, func() error { return errors.New("x") }, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
