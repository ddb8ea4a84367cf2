package backoff

import (
	"time"
)

// Strategy defines the interface for retry delay algorithms. Base returns
// the pre-jitter delay for a 1-indexed retry attempt; the Calculator applies
// jitter and the cap on top.
type Strategy interface {
	Base(attempt int, baseDelay time.Duration) time.Duration
}

// NoneStrategy performs no retries: the delay is always zero.
type NoneStrategy struct{}

// Base implements the Strategy interface.
func (NoneStrategy) Base(int, time.Duration) time.Duration {
	return 0
}

// LinearStrategy grows the delay proportionally to the attempt number:
// baseDelay * attempt.
type LinearStrategy struct{}

// Base implements the Strategy interface.
func (LinearStrategy) Base(attempt int, baseDelay time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return saturatingMul(baseDelay, int64(attempt))
}

// ExponentialStrategy doubles the delay each attempt: baseDelay * 2^(attempt-1).
type ExponentialStrategy struct{}

// Base implements the Strategy interface.
func (ExponentialStrategy) Base(attempt int, baseDelay time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// 2^62 overflows time.Duration; growth past 2^30 is academic anyway.
	if attempt > 31 {
		attempt = 31
	}
	return saturatingMul(baseDelay, int64(1)<<uint(attempt-1))
}

// FibonacciStrategy grows the delay along the Fibonacci sequence:
// baseDelay * fib(attempt) with fib(1)=1, fib(2)=1.
type FibonacciStrategy struct{}

// Base implements the Strategy interface.
func (FibonacciStrategy) Base(attempt int, baseDelay time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 90 {
		attempt = 90
	}
	return saturatingMul(baseDelay, fib(attempt))
}

// fib computes the attempt-th Fibonacci number iteratively, 1-indexed.
func fib(n int) int64 {
	a, b := int64(1), int64(1)
	for i := 2; i < n; i++ {
		a, b = b, a+b
	}
	if n == 1 {
		return 1
	}
	return b
}

func saturatingMul(d time.Duration, factor int64) time.Duration {
	if d <= 0 || factor <= 0 {
		return 0
	}
	result := int64(d) * factor
	if result/factor != int64(d) || result < 0 {
		return time.Duration(1<<63 - 1)
	}
	return time.Duration(result)
}
