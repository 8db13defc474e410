package circuitbreaker

import (
	"errors"
	"songstory-api-go/logcolors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // requests flow to the provider
	StateOpen                  // provider is skipped until the cooldown passes
	StateHalfOpen              // one trial request is in flight
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

var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config holds circuit breaker configuration
type Config struct {
	Name            string        // provider name, used in logs
	Threshold       int           // consecutive failures before opening
	Cooldown        time.Duration // time spent open before a trial is allowed
	HalfOpenTimeout time.Duration // trial budget before falling back to open

	// OnOpen is called (outside the lock) every time the breaker opens
	OnOpen func(name string, failures int)

	// OnRecover is called (outside the lock) when a trial closes the breaker
	OnRecover func(name string)
}

// Snapshot is a point-in-time view of a breaker, used by the status endpoint
type Snapshot struct {
	Name           string `json:"name"`
	State          string `json:"state"`
	Failures       int    `json:"failures"`
	Threshold      int    `json:"threshold"`
	RetryInSeconds int    `json:"retryInSeconds"`
}

// CircuitBreaker guards one lyrics provider against repeated transport failures.
// A "no match" answer is a success; only failed requests count.
type CircuitBreaker struct {
	cfg      Config
	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trialAt  time.Time
	now      func() time.Time
}

// New creates a circuit breaker, filling in defaults for zero values
func New(cfg Config) *CircuitBreaker {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	if cfg.HalfOpenTimeout <= 0 {
		cfg.HalfOpenTimeout = 30 * time.Second
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed, now: time.Now}
}

// Name returns the breaker name
func (cb *CircuitBreaker) Name() string {
	return cb.cfg.Name
}

// Allow reports whether a request may be sent now
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	switch cb.state {
	case StateOpen:
		if now.Sub(cb.openedAt) < cb.cfg.Cooldown {
			return false
		}
		cb.state = StateHalfOpen
		cb.trialAt = now
		log.Infof("%s Cooldown passed, probing", logcolors.CircuitBreakerPrefix(cb.cfg.Name))
		return true
	case StateHalfOpen:
		if now.Sub(cb.trialAt) >= cb.cfg.HalfOpenTimeout {
			cb.state = StateOpen
			cb.openedAt = now
			log.Warnf("%s Trial request timed out, back to OPEN", logcolors.CircuitBreakerPrefix(cb.cfg.Name))
		}
		return false
	default:
		return true
	}
}

// RecordSuccess closes the breaker and clears the failure count
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	recovered := cb.state == StateHalfOpen
	if recovered {
		log.Infof("%s Trial request succeeded, CLOSED", logcolors.CircuitBreakerPrefix(cb.cfg.Name))
	}
	cb.state = StateClosed
	cb.failures = 0
	hook := cb.cfg.OnRecover
	cb.mu.Unlock()

	if recovered && hook != nil {
		hook(cb.cfg.Name)
	}
}

// RecordFailure counts a failed request and opens the breaker at the threshold
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	cb.failures++
	opened := false
	switch {
	case cb.state == StateHalfOpen:
		opened = true
	case cb.state == StateClosed && cb.failures >= cb.cfg.Threshold:
		opened = true
	}
	if opened {
		cb.state = StateOpen
		cb.openedAt = cb.now()
		log.Warnf("%s %d consecutive failures, OPEN for %v",
			logcolors.CircuitBreakerPrefix(cb.cfg.Name), cb.failures, cb.cfg.Cooldown)
	}
	failures := cb.failures
	hook := cb.cfg.OnOpen
	cb.mu.Unlock()

	if opened && hook != nil {
		hook(cb.cfg.Name, failures)
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset forces the breaker back to CLOSED
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.openedAt = time.Time{}
	cb.trialAt = time.Time{}
	log.Infof("%s Manually reset to CLOSED", logcolors.CircuitBreakerPrefix(cb.cfg.Name))
}

// Snapshot returns the breaker's current state for reporting
func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var retry time.Duration
	if cb.state == StateOpen {
		retry = cb.cfg.Cooldown - cb.now().Sub(cb.openedAt)
		if retry < 0 {
			retry = 0
		}
	}
	return Snapshot{
		Name:           cb.cfg.Name,
		State:          cb.state.String(),
		Failures:       cb.failures,
		Threshold:      cb.cfg.Threshold,
		RetryInSeconds: int(retry.Seconds()),
	}
}
