package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSend = errors.New("send failed")

func run(b *Breaker, success bool) error {
	return b.Do(func() error {
		if success {
			return nil
		}
		return errSend
	})
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		maxFailures   uint32
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{
			name:          "stays closed on successes",
			maxFailures:   2,
			requests:      []bool{true, true, true},
			expectedState: StateClosed,
		},
		{
			name:          "opens after consecutive failures",
			maxFailures:   3,
			requests:      []bool{false, false, false},
			expectedState: StateOpen,
		},
		{
			name:          "success resets the failure streak",
			maxFailures:   3,
			requests:      []bool{false, false, true, false, false},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := New("test", Settings{MaxFailures: tt.maxFailures, Timeout: time.Minute})
			for _, success := range tt.requests {
				_ = run(breaker, success)
			}
			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	breaker := New("stage", Settings{MaxFailures: 1, Timeout: time.Minute})

	assert.ErrorIs(t, run(breaker, false), errSend)
	called := false
	err := breaker.Do(func() error { called = true; return nil })

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, uint64(1), breaker.Counts().Rejected)
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var transitions []string
	breaker := New("stage", Settings{
		MaxFailures: 1,
		Timeout:     time.Second,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
		Clock: clock,
	})

	require.Error(t, run(breaker, false))
	clock.Advance(2 * time.Second)
	assert.Equal(t, StateHalfOpen, breaker.State())

	// A failed probe reopens the circuit.
	require.ErrorIs(t, run(breaker, false), errSend)
	assert.Equal(t, StateOpen, breaker.State())

	clock.Advance(2 * time.Second)
	require.NoError(t, run(breaker, true))
	assert.Equal(t, StateClosed, breaker.State())

	assert.Equal(t, []string{
		"closed->open",
		"open->half-open",
		"half-open->open",
		"open->half-open",
		"half-open->closed",
	}, transitions)
}

func TestBreakerSingleProbe(t *testing.T) {
	clock := clockwork.NewFakeClock()
	breaker := New("stage", Settings{MaxFailures: 1, Timeout: time.Second, Clock: clock})

	require.Error(t, run(breaker, false))
	clock.Advance(2 * time.Second)

	err := breaker.Do(func() error {
		assert.ErrorIs(t, run(breaker, true), ErrTooManyRequests)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerDefaults(t *testing.T) {
	breaker := New("stage", Settings{})
	assert.Equal(t, "stage", breaker.Name())
	assert.Equal(t, DefaultSettings().MaxFailures, breaker.settings.MaxFailures)
	assert.Equal(t, DefaultSettings().Timeout, breaker.settings.Timeout)
	assert.Equal(t, "unknown", State(42).String())
}
