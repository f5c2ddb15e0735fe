package oracle

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// State represents the breaker state.
type State int

const (
	StateClosed   State = 0 // normal operation, calls pass through
	StateOpen     State = 1 // tripped, calls rejected immediately
	StateHalfOpen State = 2 // one probe call allowed through
)

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

// ErrCircuitOpen is returned when the breaker rejects a call.
var ErrCircuitOpen = fmt.Errorf("oracle circuit breaker is open")

// Breaker wraps an Oracle with a circuit breaker. After maxFailures
// consecutive failures it rejects calls for resetTimeout, then allows a
// single probe through. Rejected calls surface as Judge errors, which the
// decision layer already degrades to WAIT, so an outage stops burning API
// quota instead of stalling the cycle.
type Breaker struct {
	inner Oracle

	mu           sync.Mutex
	state        State
	failures     int
	maxFailures  int
	resetTimeout time.Duration
	lastFailure  time.Time

	OnStateChange func(from, to State) // optional
}

// NewBreaker wraps an oracle.
// maxFailures: consecutive failures before opening (e.g. 5)
// resetTimeout: wait before the half-open probe (e.g. 1m)
func NewBreaker(inner Oracle, maxFailures int, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		inner:        inner,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
	}
}

// Judge delegates to the wrapped oracle through the breaker.
func (b *Breaker) Judge(ctx context.Context, prompt string) (string, error) {
	b.mu.Lock()
	if b.state == StateOpen {
		if time.Since(b.lastFailure) > b.resetTimeout {
			b.transition(StateHalfOpen)
		} else {
			b.mu.Unlock()
			return "", ErrCircuitOpen
		}
	}
	b.mu.Unlock()

	reply, err := b.inner.Judge(ctx, prompt)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFailure = time.Now()
		if b.state == StateHalfOpen || b.failures >= b.maxFailures {
			b.transition(StateOpen)
		}
		return "", err
	}

	if b.state == StateHalfOpen {
		b.transition(StateClosed)
	}
	b.failures = 0
	return reply, nil
}

// CurrentState returns the breaker state.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	if to == StateClosed {
		b.failures = 0
	}
	log.Printf("[oracle] breaker %s -> %s", from, to)
	if b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}
