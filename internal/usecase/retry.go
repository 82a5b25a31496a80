package usecase

import (
	"context"
	"time"
)

// RetryPolicy is the explicit create-retry policy: bounded attempts with
// a doubling backoff. Keeping it a value object makes the race-handling
// path unit-testable without real concurrency or real clocks.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration

	// sleep is swappable in tests; nil means a context-aware timer wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy mirrors the submission contract: three attempts,
// 50ms initial backoff.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{MaxAttempts: 3, BaseBackoff: 50 * time.Millisecond}
}

// NewRetryPolicy builds a policy with explicit knobs.
func NewRetryPolicy(maxAttempts int, baseBackoff time.Duration) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &RetryPolicy{MaxAttempts: maxAttempts, BaseBackoff: baseBackoff}
}

// WithSleep replaces the backoff wait, for tests.
func (p *RetryPolicy) WithSleep(fn func(ctx context.Context, d time.Duration) error) *RetryPolicy {
	p.sleep = fn
	return p
}

// Do runs op up to MaxAttempts times. A non-retryable error (per the
// predicate) is returned immediately; the caller decides what fallback
// applies. The last error is returned once attempts are exhausted.
func (p *RetryPolicy) Do(ctx context.Context, op func() error, retryable func(error) bool) error {
	backoff := p.BaseBackoff
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}
		if werr := p.wait(ctx, backoff); werr != nil {
			return werr
		}
		backoff *= 2
	}
	return err
}

func (p *RetryPolicy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
