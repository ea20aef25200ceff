package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
)

// State represents circuit breaker state
type State uint32

const (
	Closed   State = iota // Normal operation
	Open                  // Failing fast
	HalfOpen              // Probing recovery
)

func (s State) String() string {
	return [...]string{"closed", "open", "half-open"}[s]
}

// ErrOpen is returned while the breaker is failing fast or a half-open probe
// is already running.
var ErrOpen = apperrors.New(apperrors.CodeUnavailable, "circuit breaker open")

// Breaker implements the circuit breaker pattern with atomic state. In the
// half-open state only one probe runs at a time.
type Breaker struct {
	cfg           BreakerConfig
	state         atomic.Uint32
	failures      atomic.Int32
	successes     atomic.Int32
	probing       atomic.Bool
	lastFailure   atomic.Int64 // unix nano
	onStateChange func(name string, from, to State)
}

// NewBreaker creates a breaker with config
func NewBreaker(cfg BreakerConfig) *Breaker {
	b := &Breaker{cfg: cfg.withDefaults()}
	b.state.Store(uint32(Closed))
	return b
}

// WithHook sets a state change callback (metrics, logging).
func (b *Breaker) WithHook(fn func(name string, from, to State)) *Breaker {
	b.onStateChange = fn
	return b
}

func (b *Breaker) Name() string { return b.cfg.Name }

// Allow checks if a request should proceed; returns nil if allowed. A nil
// return in the half-open state claims the single probe slot.
func (b *Breaker) Allow() error {
	switch State(b.state.Load()) {
	case Open:
		if !b.shouldAttemptReset() {
			return ErrOpen
		}
		b.transition(HalfOpen)
		fallthrough
	case HalfOpen:
		if !b.probing.CompareAndSwap(false, true) {
			return ErrOpen
		}
		return nil
	default:
		return nil
	}
}

// Success records a successful call
func (b *Breaker) Success() {
	switch State(b.state.Load()) {
	case HalfOpen:
		b.probing.Store(false)
		if b.successes.Add(1) >= int32(b.cfg.HalfOpenSuccesses) {
			b.transition(Closed)
		}
	case Closed:
		b.failures.Store(0)
	}
}

// Failure records a failed call
func (b *Breaker) Failure() {
	b.lastFailure.Store(time.Now().UnixNano())
	count := b.failures.Add(1)

	switch State(b.state.Load()) {
	case HalfOpen:
		b.probing.Store(false)
		b.transition(Open)
	case Closed:
		if count >= int32(b.cfg.Threshold) {
			b.transition(Open)
		}
	}
}

// State returns current state
func (b *Breaker) State() State {
	return State(b.state.Load())
}

// Reset forces breaker to closed state
func (b *Breaker) Reset() {
	b.transition(Closed)
}

func (b *Breaker) transition(to State) {
	from := State(b.state.Swap(uint32(to)))
	if from == to {
		return
	}

	switch to {
	case Closed:
		b.failures.Store(0)
		b.successes.Store(0)
		b.probing.Store(false)
		slog.Info("circuit breaker closed", "name", b.cfg.Name)
	case Open:
		b.successes.Store(0)
		slog.Warn("circuit breaker opened", "name", b.cfg.Name, "failures", b.failures.Load())
	case HalfOpen:
		b.successes.Store(0)
		slog.Info("circuit breaker half-open", "name", b.cfg.Name)
	}

	if b.onStateChange != nil {
		b.onStateChange(b.cfg.Name, from, to)
	}
}

func (b *Breaker) shouldAttemptReset() bool {
	last := b.lastFailure.Load()
	if last == 0 {
		return true
	}
	return time.Since(time.Unix(0, last)) > b.cfg.ResetTimeout
}

// Execute runs fn with circuit breaker protection. Errors that are not the
// dependency's fault pass through without tripping it.
func (b *Breaker) Execute(fn func() error) error {
	_, err := ExecuteWithResult(b, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// ExecuteWithResult runs fn returning value and error with circuit protection
func ExecuteWithResult[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if err := b.Allow(); err != nil {
		return zero, err
	}
	result, err := fn()
	if err != nil {
		if countable(err) {
			b.Failure()
		} else {
			b.probing.Store(false)
		}
		return zero, err
	}
	b.Success()
	return result, nil
}

// countable reports whether err reflects the dependency's health. Caller
// mistakes and cancellations do not.
func countable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	appErr, ok := apperrors.As(err)
	if !ok {
		return true
	}
	switch appErr.Code {
	case apperrors.CodeInvalidArgument, apperrors.CodeNotFound:
		return false
	}
	return true
}
