package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Settings configures the circuit breaker
type Settings struct {
	Threshold     int           // Consecutive failures that open the circuit, default 5
	Cooldown      time.Duration // Time spent open before probing, default 30s
	Trials        int           // Concurrent calls allowed while half-open, default 1
	IsFailure     func(err error) bool
	OnStateChange func(name string, from, to State)
	Clock         func() time.Time
}

// Status is a point-in-time view of a breaker
type Status struct {
	Name                string    `json:"name"`
	State               State     `json:"state"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	Successes           uint64    `json:"successes"`
	Failures            uint64    `json:"failures"`
	Rejected            uint64    `json:"rejected"`
	OpenedAt            time.Time `json:"opened_at,omitempty"`
}

// Breaker stops calling a failing dependency for a cooldown period and then
// lets a limited number of trial calls decide whether to close again.
type Breaker struct {
	name     string
	settings Settings

	mu          sync.Mutex
	state       State     // Protected by mu
	consecutive int       // Protected by mu
	inFlight    int       // Protected by mu, half-open trials
	openedAt    time.Time // Protected by mu
	successes   uint64    // Protected by mu
	failures    uint64    // Protected by mu
	rejected    uint64    // Protected by mu
}

// New creates a closed breaker
func New(name string, settings Settings) *Breaker {
	if settings.Threshold <= 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	if settings.Trials <= 0 {
		settings.Trials = 1
	}
	if settings.IsFailure == nil {
		settings.IsFailure = DefaultIsFailure
	}
	if settings.Clock == nil {
		settings.Clock = time.Now
	}
	return &Breaker{name: name, settings: settings}
}

// DefaultIsFailure counts every error except caller cancellation
func DefaultIsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, moving an expired open circuit to
// half-open
func (b *Breaker) State() State {
	b.mu.Lock()
	moved := b.advanceLocked()
	state := b.state
	b.mu.Unlock()

	if moved {
		b.changed(StateOpen, StateHalfOpen)
	}
	return state
}

// Status returns the breaker's counters
func (b *Breaker) Status() Status {
	b.mu.Lock()
	moved := b.advanceLocked()
	status := Status{
		Name:                b.name,
		State:               b.state,
		ConsecutiveFailures: b.consecutive,
		Successes:           b.successes,
		Failures:            b.failures,
		Rejected:            b.rejected,
		OpenedAt:            b.openedAt,
	}
	b.mu.Unlock()

	if moved {
		b.changed(StateOpen, StateHalfOpen)
	}
	return status
}

// Do runs fn unless the circuit rejects it. A rejected call returns
// ErrCircuitOpen or ErrTooManyRequests without running fn.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	trial, err := b.admit()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			b.record(trial, true)
			panic(r)
		}
	}()

	err = fn(ctx)
	b.record(trial, b.settings.IsFailure(err))
	return err
}

// Reset closes the circuit and clears the failure streak
func (b *Breaker) Reset() {
	b.mu.Lock()
	from := b.state
	b.state = StateClosed
	b.consecutive = 0
	b.inFlight = 0
	b.openedAt = time.Time{}
	b.mu.Unlock()

	b.changed(from, StateClosed)
}

func (b *Breaker) admit() (trial bool, err error) {
	b.mu.Lock()
	moved := b.advanceLocked()
	switch b.state {
	case StateOpen:
		b.rejected++
		err = ErrCircuitOpen
	case StateHalfOpen:
		if b.inFlight >= b.settings.Trials {
			b.rejected++
			err = ErrTooManyRequests
		} else {
			b.inFlight++
			trial = true
		}
	}
	b.mu.Unlock()

	if moved {
		b.changed(StateOpen, StateHalfOpen)
	}
	return trial, err
}

func (b *Breaker) record(trial, failed bool) {
	b.mu.Lock()
	from := b.state
	if trial && b.inFlight > 0 {
		b.inFlight--
	}

	if failed {
		b.failures++
		b.consecutive++
		if b.state == StateHalfOpen || (b.state == StateClosed && b.consecutive >= b.settings.Threshold) {
			b.openLocked()
		}
	} else {
		b.successes++
		b.consecutive = 0
		if b.state == StateHalfOpen {
			b.state = StateClosed
			b.openedAt = time.Time{}
		}
	}
	to := b.state
	b.mu.Unlock()

	b.changed(from, to)
}

func (b *Breaker) openLocked() {
	b.state = StateOpen
	b.openedAt = b.settings.Clock()
	b.inFlight = 0
}

// advanceLocked moves an open circuit whose cooldown elapsed to half-open
func (b *Breaker) advanceLocked() bool {
	if b.state != StateOpen || b.settings.Clock().Sub(b.openedAt) < b.settings.Cooldown {
		return false
	}
	b.state = StateHalfOpen
	b.inFlight = 0
	return true
}

func (b *Breaker) changed(from, to State) {
	if from != to && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
