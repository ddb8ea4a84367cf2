package toolmesh

import (
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  time.Minute,
		SuccessThreshold: 1,
	})

	for i := 0; i < 3; i++ {
		if !cb.Allow() {
			t.Fatalf("expected request %d to be allowed while closed", i)
		}
		cb.RecordFailure()
	}

	if cb.State() != StateOpen {
		t.Errorf("expected open state, got %v", cb.State())
	}
	if cb.Allow() {
		t.Error("expected requests to be rejected while open")
	}
}

func TestCircuitBreakerHalfOpenAfterRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Millisecond,
		SuccessThreshold: 2,
	})

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("expected open state, got %v", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("expected a probe request after the recovery timeout")
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("expected half-open state, got %v", cb.State())
	}

	cb.RecordSuccess()
	if cb.State() != StateHalfOpen {
		t.Errorf("expected half-open until success threshold, got %v", cb.State())
	}
	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("expected closed after %d successes, got %v", 2, cb.State())
	}
}

func TestCircuitBreakerReopensOnProbeFailure(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Millisecond,
		SuccessThreshold: 2,
	})

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("expected a probe request")
	}
	cb.RecordFailure()

	if cb.State() != StateOpen {
		t.Errorf("expected reopened circuit, got %v", cb.State())
	}
	if cb.Allow() {
		t.Error("expected requests rejected after probe failure")
	}
}

func TestCircuitBreakerDefaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	if cb.config.FailureThreshold != 5 {
		t.Errorf("expected default failure threshold 5, got %d", cb.config.FailureThreshold)
	}
	if cb.config.RecoveryTimeout != 60*time.Second {
		t.Errorf("expected default recovery timeout 60s, got %v", cb.config.RecoveryTimeout)
	}
	if cb.config.SuccessThreshold != 2 {
		t.Errorf("expected default success threshold 2, got %d", cb.config.SuccessThreshold)
	}
}

func TestCircuitBreakerSuccessInClosedState(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	// Failures accumulate within the window regardless of interleaved
	// successes; only recovery probes reset them.
	if cb.State() != StateOpen {
		t.Errorf("expected open state after threshold failures, got %v", cb.State())
	}
}
