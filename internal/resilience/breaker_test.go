package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
)

func testBreaker(threshold int, reset time.Duration, successes int) *Breaker {
	return NewBreaker(BreakerConfig{Name: "test", Threshold: threshold, ResetTimeout: reset, HalfOpenSuccesses: successes})
}

func TestBreakerInitialState(t *testing.T) {
	b := NewBreaker(DefaultBreakerConfig("processing"))
	if b.State() != Closed {
		t.Errorf("initial state = %v, want Closed", b.State())
	}
	if b.Name() != "processing" {
		t.Errorf("Name() = %q, want processing", b.Name())
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := testBreaker(3, time.Hour, 2)

	for i := 0; i < 3; i++ {
		b.Failure()
	}

	if b.State() != Open {
		t.Errorf("state = %v, want Open", b.State())
	}
}

func TestBreakerRejectsWhenOpen(t *testing.T) {
	b := testBreaker(1, time.Hour, 1)
	b.Failure()

	err := b.Allow()
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Allow() = %v, want ErrOpen", err)
	}
	if !apperrors.IsCode(err, apperrors.CodeUnavailable) {
		t.Errorf("ErrOpen code = %v, want UNAVAILABLE", err)
	}
}

func TestBreakerTransitionsToHalfOpen(t *testing.T) {
	b := testBreaker(1, time.Millisecond, 1)
	b.Failure()

	time.Sleep(5 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Errorf("Allow() = %v, want nil", err)
	}
	if b.State() != HalfOpen {
		t.Errorf("state = %v, want HalfOpen", b.State())
	}
}

func TestBreakerHalfOpenAllowsSingleProbe(t *testing.T) {
	b := testBreaker(1, time.Millisecond, 2)
	b.Failure()
	time.Sleep(5 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Fatalf("first probe Allow() = %v, want nil", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("second probe Allow() = %v, want ErrOpen", err)
	}

	b.Success()
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() after probe finished = %v, want nil", err)
	}
}

func TestBreakerClosesAfterSuccesses(t *testing.T) {
	b := testBreaker(1, time.Millisecond, 2)
	b.Failure()
	time.Sleep(5 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if err := b.Execute(func() error { return nil }); err != nil {
			t.Fatalf("probe %d: %v", i, err)
		}
	}

	if b.State() != Closed {
		t.Errorf("state = %v, want Closed", b.State())
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := testBreaker(1, time.Millisecond, 3)
	b.Failure()

	time.Sleep(5 * time.Millisecond)
	_ = b.Allow()

	b.Failure()

	if b.State() != Open {
		t.Errorf("state = %v, want Open", b.State())
	}
}

func TestBreakerReset(t *testing.T) {
	b := testBreaker(1, time.Hour, 1)
	b.Failure()

	if b.State() != Open {
		t.Fatal("expected open state")
	}

	b.Reset()

	if b.State() != Closed {
		t.Errorf("state = %v, want Closed", b.State())
	}
}

func TestBreakerExecute(t *testing.T) {
	b := testBreaker(2, time.Second, 1)

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Errorf("Execute success = %v, want nil", err)
	}

	testErr := errors.New("test error")
	if err := b.Execute(func() error { return testErr }); err != testErr {
		t.Errorf("Execute failure = %v, want %v", err, testErr)
	}
}

func TestBreakerIgnoresCallerErrors(t *testing.T) {
	b := testBreaker(1, time.Hour, 1)

	_ = b.Execute(func() error { return apperrors.New(apperrors.CodeInvalidArgument, "bad input") })
	_ = b.Execute(func() error { return context.Canceled })

	if b.State() != Closed {
		t.Errorf("state = %v, want Closed", b.State())
	}
}

func TestBreakerExecuteWithResult(t *testing.T) {
	b := NewBreaker(DefaultBreakerConfig("test"))

	result, err := ExecuteWithResult(b, func() (int, error) {
		return 42, nil
	})
	if err != nil || result != 42 {
		t.Errorf("ExecuteWithResult = (%d, %v), want (42, nil)", result, err)
	}
}

func TestBreakerHook(t *testing.T) {
	var transitions []State
	b := testBreaker(1, time.Millisecond, 1)
	b.WithHook(func(name string, from, to State) {
		if name != "test" {
			t.Errorf("hook name = %q, want test", name)
		}
		transitions = append(transitions, to)
	})

	b.Failure()
	time.Sleep(5 * time.Millisecond)
	_ = b.Allow()
	b.Success()

	want := []State{Open, HalfOpen, Closed}
	if len(transitions) != len(want) {
		t.Fatalf("got %v transitions, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestBreakerConcurrentSafety(t *testing.T) {
	b := testBreaker(100, time.Second, 10)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Allow()
			if i%2 == 0 {
				b.Success()
			} else {
				b.Failure()
			}
		}()
	}
	wg.Wait()

	_ = b.State()
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Closed, "closed"},
		{Open, "open"},
		{HalfOpen, "half-open"},
	}

	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestBreakerConfigDefaults(t *testing.T) {
	cfg := BreakerConfig{}.withDefaults()

	if cfg.Name != "default" {
		t.Errorf("Name = %q, want default", cfg.Name)
	}
	if cfg.Threshold != DefaultThreshold {
		t.Errorf("Threshold = %d, want %d", cfg.Threshold, DefaultThreshold)
	}
	if cfg.ResetTimeout != DefaultResetTimeout {
		t.Errorf("ResetTimeout = %v, want %v", cfg.ResetTimeout, DefaultResetTimeout)
	}
	if cfg.HalfOpenSuccesses != DefaultHalfOpenSuccesses {
		t.Errorf("HalfOpenSuccesses = %d, want %d", cfg.HalfOpenSuccesses, DefaultHalfOpenSuccesses)
	}
}

func TestSuccessResetsFailures(t *testing.T) {
	b := testBreaker(3, time.Hour, 1)

	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()

	if b.State() != Closed {
		t.Errorf("state = %v, want Closed", b.State())
	}
}
