//go:build !darwin && !linux && !windows

package screen

import "github.com/GriffinCanCode/snapdeck/internal/metrics"

// New creates a display-only chain for platforms without a native utility.
func New(_ string, m *metrics.Metrics) *Chain {
	return NewChain(m, DisplayStrategy{})
}
