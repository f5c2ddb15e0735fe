package oracle

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedOracle struct {
	err   error
	calls int
}

func (s *scriptedOracle) Judge(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "WAIT", nil
}

func TestBreakerStartsClosed(t *testing.T) {
	b := NewBreaker(&scriptedOracle{}, 3, 100*time.Millisecond)
	if b.CurrentState() != StateClosed {
		t.Errorf("expected closed, got %v", b.CurrentState())
	}
}

func TestBreakerPassesThroughWhenClosed(t *testing.T) {
	inner := &scriptedOracle{}
	b := NewBreaker(inner, 3, 100*time.Millisecond)

	reply, err := b.Judge(context.Background(), "prompt")
	if err != nil || reply != "WAIT" {
		t.Fatalf("Judge = (%q, %v)", reply, err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	inner := &scriptedOracle{err: errors.New("unreachable")}
	b := NewBreaker(inner, 3, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		if _, err := b.Judge(context.Background(), "p"); err == nil {
			t.Fatal("expected failure")
		}
	}
	if b.CurrentState() != StateOpen {
		t.Fatalf("expected open after 3 failures, got %v", b.CurrentState())
	}

	// Open breaker rejects without touching the inner oracle.
	before := inner.calls
	_, err := b.Judge(context.Background(), "p")
	if err != ErrCircuitOpen {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != before {
		t.Errorf("inner called while open: %d -> %d", before, inner.calls)
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	inner := &scriptedOracle{err: errors.New("unreachable")}
	b := NewBreaker(inner, 2, 50*time.Millisecond)

	for i := 0; i < 2; i++ {
		b.Judge(context.Background(), "p")
	}
	if b.CurrentState() != StateOpen {
		t.Fatal("expected open")
	}

	time.Sleep(60 * time.Millisecond)
	inner.err = nil

	reply, err := b.Judge(context.Background(), "p")
	if err != nil || reply != "WAIT" {
		t.Fatalf("probe = (%q, %v)", reply, err)
	}
	if b.CurrentState() != StateClosed {
		t.Errorf("expected closed after successful probe, got %v", b.CurrentState())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	inner := &scriptedOracle{err: errors.New("unreachable")}
	b := NewBreaker(inner, 2, 50*time.Millisecond)

	for i := 0; i < 2; i++ {
		b.Judge(context.Background(), "p")
	}
	time.Sleep(60 * time.Millisecond)
	b.Judge(context.Background(), "p") // probe fails

	if b.CurrentState() != StateOpen {
		t.Errorf("expected open after failed probe, got %v", b.CurrentState())
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	inner := &scriptedOracle{}
	b := NewBreaker(inner, 3, 100*time.Millisecond)
	fail := errors.New("unreachable")

	inner.err = fail
	b.Judge(context.Background(), "p")
	b.Judge(context.Background(), "p")
	inner.err = nil
	b.Judge(context.Background(), "p") // resets counter
	inner.err = fail
	b.Judge(context.Background(), "p")
	b.Judge(context.Background(), "p")

	if b.CurrentState() != StateClosed {
		t.Errorf("expected closed (counter reset by success), got %v", b.CurrentState())
	}
}

func TestBreakerStateChangeCallback(t *testing.T) {
	inner := &scriptedOracle{err: errors.New("unreachable")}
	b := NewBreaker(inner, 1, 50*time.Millisecond)

	var transitions []State
	b.OnStateChange = func(from, to State) {
		transitions = append(transitions, to)
	}

	b.Judge(context.Background(), "p")
	if len(transitions) != 1 || transitions[0] != StateOpen {
		t.Fatalf("expected [open], got %v", transitions)
	}

	time.Sleep(60 * time.Millisecond)
	inner.err = nil
	b.Judge(context.Background(), "p")

	if len(transitions) != 3 || transitions[1] != StateHalfOpen || transitions[2] != StateClosed {
		t.Errorf("expected [open half-open closed], got %v", transitions)
	}
}
