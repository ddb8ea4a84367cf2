package backoff

import (
	"math/rand"
	"sync"
	"time"
)

// JitterFraction is the uniform jitter band applied around the strategy's
// base delay: the final delay lands in [base*(1-JitterFraction), base*(1+JitterFraction)].
const JitterFraction = 0.2

// Calculator combines a Strategy with jitter and a maximum-delay cap. It is
// safe for concurrent use.
type Calculator struct {
	strategy  Strategy
	baseDelay time.Duration
	maxDelay  time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCalculator creates a calculator with its own seeded random source for
// jitter.
func NewCalculator(strategy Strategy, baseDelay, maxDelay time.Duration) *Calculator {
	return &Calculator{
		strategy:  strategy,
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Base returns the pre-jitter delay for the given 1-indexed retry attempt,
// capped at the maximum delay.
func (c *Calculator) Base(attempt int) time.Duration {
	base := c.strategy.Base(attempt, c.baseDelay)
	if base > c.maxDelay {
		base = c.maxDelay
	}
	return base
}

// Delay returns the jittered delay for the given 1-indexed retry attempt.
// The result is uniform in [0.8*base, 1.2*base] and never exceeds the
// maximum delay.
func (c *Calculator) Delay(attempt int) time.Duration {
	base := c.Base(attempt)
	if base <= 0 {
		return 0
	}

	c.mu.Lock()
	factor := 1 - JitterFraction + 2*JitterFraction*c.rng.Float64()
	c.mu.Unlock()

	delay := time.Duration(float64(base) * factor)
	if delay > c.maxDelay {
		delay = c.maxDelay
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}
