//go:build darwin

package screen

import "github.com/GriffinCanCode/snapdeck/internal/metrics"

// New creates the macOS chain: in-memory display grab, then screencapture.
func New(tempDir string, m *metrics.Metrics) *Chain {
	return NewChain(m,
		DisplayStrategy{},
		// -x: no sound, -t png: PNG output
		NewCommandStrategy("screencapture", tempDir, func(out string) (string, []string) {
			return "screencapture", []string{"-x", "-t", "png", out}
		}),
	)
}
