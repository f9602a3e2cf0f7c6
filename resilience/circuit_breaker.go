package resilience

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/kbukum/cachekit/errors"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed lets calls through.
	StateClosed State = iota
	// StateOpen rejects calls.
	StateOpen
	// StateHalfOpen lets a limited number of trial calls through.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a CircuitBreaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int `yaml:"max_failures" mapstructure:"max_failures"`
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// HalfOpenMaxCalls is the number of trial calls allowed while half-open.
	HalfOpenMaxCalls int `yaml:"half_open_max_calls" mapstructure:"half_open_max_calls"`

	// OnStateChange is called with the breaker lock held.
	OnStateChange func(name string, from, to State) `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *BreakerConfig) ApplyDefaults() {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = 1
	}
}

// CircuitBreaker fails calls fast once a backend has failed MaxFailures
// times in a row, then lets trial calls through after Timeout.
type CircuitBreaker struct {
	name   string
	config BreakerConfig
	now    func() time.Time

	mu              sync.Mutex
	state           State
	failures        int
	successes       int
	lastFailureTime time.Time
	halfOpenCalls   int
}

// NewCircuitBreaker creates a closed breaker. Rejections carry name.
func NewCircuitBreaker(name string, config BreakerConfig) *CircuitBreaker {
	config.ApplyDefaults()
	return &CircuitBreaker{
		name:   name,
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string { return cb.name }

// Execute runs fn unless the circuit is open, in which case it returns a
// CIRCUIT_OPEN AppError without calling fn. Context cancellation is not
// counted as a failure or a success.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	ok, trial := cb.allow()
	if !ok {
		return errors.CircuitOpen(cb.name)
	}
	err := fn()
	cb.record(err, trial)
	return err
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

// Open reports whether calls are currently rejected outright.
func (cb *CircuitBreaker) Open() bool {
	return cb.State() == StateOpen
}

// Failures returns the consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset closes the circuit.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.toState(StateClosed)
	cb.failures = 0
}

// allow admits a call. trial is true when the call took a half-open slot.
func (cb *CircuitBreaker) allow() (ok, trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentState() {
	case StateClosed:
		return true, false
	case StateHalfOpen:
		if cb.halfOpenCalls < cb.config.HalfOpenMaxCalls {
			cb.halfOpenCalls++
			return true, true
		}
		return false, false
	default:
		return false, false
	}
}

func (cb *CircuitBreaker) record(err error, trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if stderrors.Is(err, context.Canceled) {
		// a cancelled trial hands its slot back
		if trial && cb.state == StateHalfOpen && cb.halfOpenCalls > 0 {
			cb.halfOpenCalls--
		}
		return
	}
	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.currentState() {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.HalfOpenMaxCalls {
			cb.toState(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailureTime = cb.now()

	switch cb.currentState() {
	case StateClosed:
		if cb.failures >= cb.config.MaxFailures {
			cb.toState(StateOpen)
		}
	case StateHalfOpen:
		cb.toState(StateOpen)
	}
}

// currentState moves an open circuit to half-open once Timeout has passed.
func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen && cb.now().Sub(cb.lastFailureTime) >= cb.config.Timeout {
		cb.toState(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) toState(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.halfOpenCalls = 0
	cb.successes = 0
	if to == StateClosed {
		cb.failures = 0
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.name, from, to)
	}
}
