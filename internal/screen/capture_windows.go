//go:build windows

package screen

import "github.com/GriffinCanCode/snapdeck/internal/metrics"

// New creates the Windows chain: in-memory display grab, then a PowerShell
// script that rasterizes the union of all screens.
func New(tempDir string, m *metrics.Metrics) *Chain {
	return NewChain(m,
		DisplayStrategy{},
		NewCommandStrategy("powershell", tempDir, func(out string) (string, []string) {
			return "powershell", []string{"-NoProfile", "-ExecutionPolicy", "Bypass", "-Command", PowerShellScript(out)}
		}),
	)
}
