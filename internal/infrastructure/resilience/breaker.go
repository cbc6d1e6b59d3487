package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
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

// Settings configures the circuit breaker behavior
type Settings struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a probe is allowed.
	Timeout time.Duration
	// OnStateChange is called whenever the state changes, with the lock held.
	OnStateChange func(name string, from State, to State)
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// DefaultSettings returns settings suited to delivering configuration
// updates to remote subscribers.
func DefaultSettings() Settings {
	return Settings{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
	}
}

// Counts holds the statistics for the circuit breaker
type Counts struct {
	Successes           uint64
	Failures            uint64
	Rejected            uint64
	ConsecutiveFailures uint32
}

// Breaker stops calling an operation that keeps failing. After Timeout a
// single probe is let through; its result closes or reopens the circuit.
type Breaker struct {
	name     string
	settings Settings
	clock    clockwork.Clock

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	probing  bool
}

// New creates a new circuit breaker with the given settings
func New(name string, settings Settings) *Breaker {
	defaults := DefaultSettings()
	if settings.MaxFailures == 0 {
		settings.MaxFailures = defaults.MaxFailures
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaults.Timeout
	}
	clock := settings.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Breaker{
		name:     name,
		settings: settings,
		clock:    clock,
	}
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()
	return b.state
}

// Counts returns a copy of the internal counts
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Do runs op unless the circuit is open.
func (b *Breaker) Do(op func() error) error {
	if err := b.acquire(); err != nil {
		return err
	}

	err := op()
	b.release(err == nil)
	return err
}

func (b *Breaker) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh()
	switch b.state {
	case StateOpen:
		b.counts.Rejected++
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probing {
			b.counts.Rejected++
			return ErrTooManyRequests
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) release(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasProbe := b.state == StateHalfOpen
	b.probing = false

	if success {
		b.counts.Successes++
		b.counts.ConsecutiveFailures = 0
		if wasProbe {
			b.transition(StateClosed)
		}
		return
	}

	b.counts.Failures++
	b.counts.ConsecutiveFailures++
	if wasProbe || b.counts.ConsecutiveFailures >= b.settings.MaxFailures {
		b.transition(StateOpen)
	}
}

// refresh must hold mu
func (b *Breaker) refresh() {
	if b.state == StateOpen && b.clock.Since(b.openedAt) >= b.settings.Timeout {
		b.transition(StateHalfOpen)
	}
}

// transition must hold mu
func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	switch to {
	case StateOpen:
		b.openedAt = b.clock.Now()
	case StateClosed:
		b.counts.ConsecutiveFailures = 0
	}
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
