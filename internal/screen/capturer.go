// Package screen provides platform-agnostic full-desktop capture.
//
// A Chain tries its strategies in order and returns the first non-empty PNG.
// The chain for the running platform is built once by New (see the
// capture_<goos>.go files) and never changes afterwards.
package screen

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strconv"
	"strings"

	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
	"github.com/GriffinCanCode/snapdeck/internal/metrics"
)

// ErrEmptyCapture is returned when a strategy exits cleanly but yields no bytes.
var ErrEmptyCapture = stderrors.New("capture produced no data")

// Capturer captures one full-screen PNG.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Strategy is one way of grabbing the screen.
type Strategy interface {
	Name() string
	Capture(ctx context.Context) ([]byte, error)
}

// Chain tries strategies in order until one succeeds.
type Chain struct {
	strategies []Strategy
	metrics    *metrics.Metrics
}

// NewChain builds a chain from strategies in priority order.
func NewChain(m *metrics.Metrics, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, metrics: m}
}

// Names lists strategies in the order they are tried.
func (c *Chain) Names() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Capture returns the first non-empty capture. When every strategy fails the
// error carries CodeCaptureFailed and wraps the last strategy's cause.
func (c *Chain) Capture(ctx context.Context) ([]byte, error) {
	if len(c.strategies) == 0 {
		return nil, apperrors.New(apperrors.CodeCaptureFailed, "no capture strategies configured")
	}

	var lastErr error
	failed := make([]string, 0, len(c.strategies))
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeCaptureFailed, "capture cancelled")
		}

		data, err := s.Capture(ctx)
		if err == nil && len(data) == 0 {
			err = ErrEmptyCapture
		}
		c.metrics.CaptureAttempt(s.Name(), err == nil)
		if err != nil {
			slog.Warn("capture strategy failed", "strategy", s.Name(), "error", err)
			failed = append(failed, s.Name())
			lastErr = err
			continue
		}

		slog.Debug("screen captured", "strategy", s.Name(), "bytes", len(data))
		return data, nil
	}

	return nil, apperrors.Wrap(lastErr, apperrors.CodeCaptureFailed, "all capture strategies failed").
		WithMetadata("attempts", strconv.Itoa(len(failed))).
		WithMetadata("strategies", strings.Join(failed, ","))
}
