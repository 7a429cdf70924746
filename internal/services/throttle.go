package services

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Throttle enforces a minimum delay between the starts of successive outbound calls.
// One instance is shared by every caller in the process.
type Throttle struct {
	limiter *rate.Limiter

	mu   sync.Mutex
	last time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewThrottle(minInterval time.Duration) *Throttle {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Throttle{
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Wait blocks until the caller may start a call. The slot is reserved before
// sleeping so concurrent callers queue behind each other; an aborted wait hands
// its slot back.
func (t *Throttle) Wait(ctx context.Context) error {
	now := t.now()
	reservation := t.limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)

	if delay > 0 {
		if err := t.sleep(ctx, delay); err != nil {
			reservation.CancelAt(t.now())
			return err
		}
	}

	start := now.Add(delay)
	t.mu.Lock()
	if start.After(t.last) {
		t.last = start
	}
	t.mu.Unlock()
	return nil
}

// LastCall returns the start time of the most recent call let through.
func (t *Throttle) LastCall() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// BackoffPolicy is the retry schedule for transient generation failures.
type BackoffPolicy struct {
	MaxRetries int
	Base       time.Duration
	Multiplier float64
}

// DefaultBackoffPolicy retries three times after 5s, 15s and 45s.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		MaxRetries: 3,
		Base:       5 * time.Second,
		Multiplier: 3,
	}
}

// BackOff returns a fresh schedule: Base, Base*Multiplier, ... without jitter,
// stopping after MaxRetries delays.
func (p BackoffPolicy) BackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.Base
	exp.Multiplier = p.Multiplier
	exp.RandomizationFactor = 0
	exp.MaxInterval = 24 * time.Hour
	exp.MaxElapsedTime = 0
	exp.Reset()

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(exp, uint64(retries))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
