package tts

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Throttle bounds vendor traffic: a token bucket spaces out request starts
// and a weighted semaphore caps how many syntheses are open at once.
// A nil *Throttle imposes no limits.
type Throttle struct {
	limiter *rate.Limiter
	slots   *semaphore.Weighted
}

// NewThrottle creates a throttle allowing perSecond request starts
// (0 means unlimited) and at most concurrent open syntheses (0 means unlimited).
func NewThrottle(perSecond float64, concurrent int) *Throttle {
	t := &Throttle{}
	if perSecond > 0 {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	if concurrent > 0 {
		t.slots = semaphore.NewWeighted(int64(concurrent))
	}
	return t
}

// Acquire waits for a rate token and a free slot. The returned release
// function must be called exactly once when the synthesis finishes.
func (t *Throttle) Acquire(ctx context.Context) (release func(), err error) {
	if t == nil {
		return func() {}, nil
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limit: %w", err)
		}
	}
	if t.slots == nil {
		return func() {}, nil
	}
	if err := t.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for synthesis slot: %w", err)
	}
	return func() { t.slots.Release(1) }, nil
}
