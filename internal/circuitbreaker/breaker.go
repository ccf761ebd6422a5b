package circuitbreaker

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Blocking requests
	StateHalfOpen              // Probing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// StateChangeFunc is called after a breaker changes state, outside the
// breaker lock.
type StateChangeFunc func(from, to State)

type CircuitBreaker struct {
	mutex            sync.Mutex
	state            State
	failures         int
	lastFailure      time.Time
	failureThreshold int
	resetTimeout     time.Duration
	onChange         StateChangeFunc
}

func NewCircuitBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: threshold,
		resetTimeout:     timeout,
	}
}

// Allow reports whether a request may be sent. An open breaker moves to
// half-open once the reset timeout has passed since the last failure.
func (cb *CircuitBreaker) Allow() bool {
	cb.mutex.Lock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastFailure) < cb.resetTimeout {
			cb.mutex.Unlock()
			return false
		}
		cb.mutex.Unlock()
		cb.transition(StateHalfOpen)
		return true
	default:
		cb.mutex.Unlock()
		return true
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	cb.failures++
	cb.lastFailure = time.Now()
	trip := cb.state == StateHalfOpen || cb.failures >= cb.failureThreshold
	cb.mutex.Unlock()

	if trip {
		cb.transition(StateOpen)
	}
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	cb.failures = 0
	cb.mutex.Unlock()

	cb.transition(StateClosed)
}

func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) transition(to State) {
	cb.mutex.Lock()
	from := cb.state
	cb.state = to
	onChange := cb.onChange
	cb.mutex.Unlock()

	if from != to && onChange != nil {
		onChange(from, to)
	}
}
