package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// CircuitBreaker protects the upstream stats source: after a run of
// consecutive failures it rejects calls outright for openTimeout, then lets a
// bounded number of probes through before closing again.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	openTimeout      time.Duration
	probeBudget      int

	state    CircuitState
	failures int
	openedAt time.Time
	probes   int
	now      func() time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg = cfg.withDefaults()
	return &CircuitBreaker{
		failureThreshold: cfg.FailureThreshold,
		openTimeout:      cfg.OpenTimeout,
		probeBudget:      cfg.ProbeBudget,
		state:            CircuitClosed,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed, reserving a probe slot when the
// breaker is half open.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitOpen {
		if b.now().Sub(b.openedAt) < b.openTimeout {
			return ErrCircuitOpen
		}
		b.state = CircuitHalfOpen
		b.probes = 0
	}

	if b.state == CircuitHalfOpen {
		if b.probes >= b.probeBudget {
			return ErrCircuitOpen
		}
		b.probes++
	}

	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state == CircuitHalfOpen {
		b.state = CircuitClosed
		b.probes = 0
		b.openedAt = time.Time{}
	}
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.state = CircuitOpen
			b.openedAt = b.now()
		}
	case CircuitHalfOpen, CircuitOpen:
		b.state = CircuitOpen
		b.openedAt = b.now()
		b.probes = 0
	}
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitOpen && b.now().Sub(b.openedAt) >= b.openTimeout {
		return CircuitHalfOpen
	}
	return b.state
}
