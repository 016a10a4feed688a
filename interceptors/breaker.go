package interceptors

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/aspect"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState is the state of a CircuitBreaker.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return fmt.Sprintf("BreakerState(%d)", int(s))
}

// CircuitBreaker stops calling the rest of the chain after repeated
// failures and tries it again once the open timeout passes.
// One breaker guards every member it is bound to.
type CircuitBreaker struct {
	mu          sync.Mutex
	state       BreakerState
	failures    int
	successes   int
	halfOpen    int // Trial calls in flight
	period      uint64
	lastFailure time.Time

	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
	halfOpenRequests int
	isFailure        func(error) bool
	onChange         func(from, to BreakerState)
	now              func() time.Time
}

// BreakerOption configures a CircuitBreaker.
type BreakerOption func(*CircuitBreaker)

// WithFailureThreshold sets the consecutive failures that open the breaker.
func WithFailureThreshold(n int) BreakerOption {
	return func(cb *CircuitBreaker) { cb.failureThreshold = n }
}

// WithSuccessThreshold sets the half-open successes that close the breaker.
func WithSuccessThreshold(n int) BreakerOption {
	return func(cb *CircuitBreaker) { cb.successThreshold = n }
}

// WithOpenTimeout sets how long the breaker stays open before probing.
func WithOpenTimeout(d time.Duration) BreakerOption {
	return func(cb *CircuitBreaker) { cb.openTimeout = d }
}

// WithHalfOpenRequests sets how many trial calls the half-open breaker admits.
func WithHalfOpenRequests(n int) BreakerOption {
	return func(cb *CircuitBreaker) { cb.halfOpenRequests = n }
}

// WithFailurePredicate decides which errors count as failures.
func WithFailurePredicate(fn func(error) bool) BreakerOption {
	return func(cb *CircuitBreaker) { cb.isFailure = fn }
}

// WithStateChange registers fn to run on every transition. It runs with
// the breaker locked and must not call back into it.
func WithStateChange(fn func(from, to BreakerState)) BreakerOption {
	return func(cb *CircuitBreaker) { cb.onChange = fn }
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(opts ...BreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		failureThreshold: 5,
		successThreshold: 3,
		openTimeout:      30 * time.Second,
		halfOpenRequests: 3,
		isFailure:        func(err error) bool { return err != nil },
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Intercept implements aspect.Interceptor.
func (cb *CircuitBreaker) Intercept(inv *aspect.Invocation) error {
	trial, period, err := cb.admit()
	if err != nil {
		return fmt.Errorf("%w: %s", err, inv.Method())
	}
	err = inv.Proceed()
	cb.record(trial, period, err)
	return err
}

// State returns the current state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the breaker and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
	cb.failures = 0
}

// admit decides whether a call may run. Half-open calls are trials and
// carry the period they were admitted in.
func (cb *CircuitBreaker) admit() (trial bool, period uint64, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Before(cb.lastFailure.Add(cb.openTimeout)) {
			return false, 0, ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if cb.halfOpen >= cb.halfOpenRequests {
			return false, 0, ErrCircuitOpen
		}
		cb.halfOpen++
		return true, cb.period, nil
	}
	return false, 0, nil
}

func (cb *CircuitBreaker) record(trial bool, period uint64, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	// A finished trial frees its slot unless the state moved on meanwhile.
	if trial && period == cb.period {
		cb.halfOpen--
	}

	if cb.isFailure(err) {
		cb.failures++
		cb.lastFailure = cb.now()
		switch cb.state {
		case StateClosed:
			if cb.failures >= cb.failureThreshold {
				cb.transition(StateOpen)
			}
		case StateHalfOpen:
			cb.transition(StateOpen)
		}
		return
	}

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.transition(StateClosed)
			cb.failures = 0
		}
	}
}

// transition moves to state and resets the trial counters. Callers hold mu.
func (cb *CircuitBreaker) transition(state BreakerState) {
	from := cb.state
	cb.state = state
	cb.successes = 0
	cb.halfOpen = 0
	cb.period++
	if from != state && cb.onChange != nil {
		cb.onChange(from, state)
	}
}
