//go:build linux

package screen

import "github.com/GriffinCanCode/snapdeck/internal/metrics"

// New creates the Linux chain: in-memory X11 grab, then gnome-screenshot, then scrot.
func New(tempDir string, m *metrics.Metrics) *Chain {
	return NewChain(m,
		DisplayStrategy{},
		NewCommandStrategy("gnome-screenshot", tempDir, func(out string) (string, []string) {
			return "gnome-screenshot", []string{"-f", out}
		}),
		NewCommandStrategy("scrot", tempDir, func(out string) (string, []string) {
			return "scrot", []string{"-o", out}
		}),
	)
}
