package util

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 9, 17, 10, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "stt",
		FailureThreshold: 2,
		ResetTimeout:     30 * time.Second,
		Now:              clock.Now,
	}, zap.NewNop())

	cb.RecordFailure(0)
	if !cb.CanExecute() {
		t.Fatalf("breaker opened before threshold")
	}

	cb.RecordFailure(0)
	if cb.CanExecute() {
		t.Fatalf("breaker should be open after threshold")
	}

	status := cb.GetStatus()
	if status.State != CircuitStateOpen || status.NextRetryTime == nil {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestCircuitBreakerHalfOpenThenRecover(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 9, 17, 10, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "stt",
		FailureThreshold: 1,
		ResetTimeout:     10 * time.Second,
		Now:              clock.Now,
	}, zap.NewNop())

	cb.RecordFailure(0)
	if cb.GetState() != CircuitStateOpen {
		t.Fatalf("expected OPEN")
	}

	clock.now = clock.now.Add(11 * time.Second)
	if cb.GetState() != CircuitStateHalfOpen {
		t.Fatalf("expected HALF_OPEN after reset timeout")
	}

	cb.RecordSuccess()
	if cb.GetState() != CircuitStateClosed {
		t.Fatalf("expected CLOSED after success in half-open")
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 9, 17, 10, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "stt",
		FailureThreshold: 3,
		ResetTimeout:     5 * time.Second,
		Now:              clock.Now,
	}, zap.NewNop())

	for i := 0; i < 3; i++ {
		cb.RecordFailure(0)
	}
	clock.now = clock.now.Add(6 * time.Second)
	if cb.GetState() != CircuitStateHalfOpen {
		t.Fatalf("expected HALF_OPEN")
	}

	cb.RecordFailure(time.Minute)
	if cb.CanExecute() {
		t.Fatalf("failure in half-open must reopen")
	}

	clock.now = clock.now.Add(30 * time.Second)
	if cb.CanExecute() {
		t.Fatalf("custom timeout should still hold the circuit open")
	}
}
