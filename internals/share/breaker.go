package share

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("share: circuit open")

// CircuitState represents the current state of a circuit breaker
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateHalfOpen
	StateOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Breaker stops calls to a remote sink after repeated failures
type Breaker struct {
	name            string
	maxFailures     int
	resetTimeout    time.Duration
	state           CircuitState
	failureCount    int
	lastFailureTime time.Time
	now             func() time.Time
	mu              sync.Mutex
}

// NewBreaker opens after maxFailures consecutive failures and half-opens after resetTimeout
func NewBreaker(name string, maxFailures int, resetTimeout time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		now:          time.Now,
	}
}

// Allow checks if a call is allowed based on circuit breaker state
func (cb *Breaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		since := cb.now().Sub(cb.lastFailureTime)
		if since > cb.resetTimeout {
			cb.state = StateHalfOpen
			return nil
		}
		return fmt.Errorf("%w: %s failed %d times, last failure %v ago",
			ErrCircuitOpen, cb.name, cb.failureCount, since.Round(time.Second))
	default:
		return nil
	}
}

// Success records a successful call
func (cb *Breaker) Success() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failureCount = 0
}

// Failure records a failed call
func (cb *Breaker) Failure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = cb.now()

	switch cb.state {
	case StateClosed:
		if cb.failureCount >= cb.maxFailures {
			cb.state = StateOpen
		}
	case StateHalfOpen:
		cb.state = StateOpen
	}
}

// State returns the breaker state and failure count
func (cb *Breaker) State() (CircuitState, int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state, cb.failureCount
}

// Guard routes saves through breaker
func Guard(sink Sink, breaker *Breaker) Sink {
	return SinkFunc(func(ctx context.Context, image []byte, filename string) error {
		if err := breaker.Allow(); err != nil {
			return err
		}
		if err := sink.Save(ctx, image, filename); err != nil {
			breaker.Failure()
			return err
		}
		breaker.Success()
		return nil
	})
}
