package orchestrator

import (
	"context"
	"slices"
	"strings"

	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
)

// Accelerators the shell forwards. Modifier aliases (Cmd, Ctrl, CmdOrCtrl)
// are accepted and matching is case-insensitive.
const (
	ShortcutCapture = "CommandOrControl+H"
	ShortcutToggle  = "CommandOrControl+B"
	ShortcutUp      = "CommandOrControl+Up"
	ShortcutDown    = "CommandOrControl+Down"
	ShortcutLeft    = "CommandOrControl+Left"
	ShortcutRight   = "CommandOrControl+Right"
	ShortcutReset   = "CommandOrControl+R"
	ShortcutProcess = "CommandOrControl+Enter"
)

var modifierAliases = map[string]string{
	"cmdorctrl":        "commandorcontrol",
	"commandorcontrol": "commandorcontrol",
	"command":          "commandorcontrol",
	"cmd":              "commandorcontrol",
	"control":          "commandorcontrol",
	"ctrl":             "commandorcontrol",
	"return":           "enter",
}

func normalizeAccelerator(acc string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(acc)), "+")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if alias, ok := modifierAliases[p]; ok {
			p = alias
		}
		parts[i] = p
	}
	return strings.Join(parts, "+")
}

func (m *Manager) shortcutTable() map[string]func(ctx context.Context) error {
	return map[string]func(ctx context.Context) error{
		ShortcutCapture: func(ctx context.Context) error {
			_, err := m.TakeScreenshot(ctx)
			return err
		},
		ShortcutToggle: func(context.Context) error { return m.ToggleMainWindow() },
		ShortcutUp:     func(context.Context) error { return m.MoveWindowUp() },
		ShortcutDown:   func(context.Context) error { return m.MoveWindowDown() },
		ShortcutLeft:   func(context.Context) error { return m.MoveWindowLeft() },
		ShortcutRight:  func(context.Context) error { return m.MoveWindowRight() },
		ShortcutReset:  func(ctx context.Context) error { m.Reset(ctx); return nil },
		ShortcutProcess: func(ctx context.Context) error {
			_, err := m.Process(ctx)
			return err
		},
	}
}

func (m *Manager) bindShortcuts() {
	table := m.shortcutTable()
	m.shortcuts = make(map[string]func(ctx context.Context) error, len(table))
	for acc, fn := range table {
		m.shortcuts[normalizeAccelerator(acc)] = fn
		m.shortcutNames = append(m.shortcutNames, acc)
	}
	slices.Sort(m.shortcutNames)
}

// Dispatch runs the action bound to accelerator.
func (m *Manager) Dispatch(ctx context.Context, accelerator string) error {
	fn, ok := m.shortcuts[normalizeAccelerator(accelerator)]
	if !ok {
		return apperrors.Newf(apperrors.CodeNotFound, "no action bound to %q", accelerator)
	}
	m.log.Debug("shortcut", "accelerator", accelerator)
	return fn(ctx)
}

// Shortcuts lists the bound accelerators.
func (m *Manager) Shortcuts() []string {
	return slices.Clone(m.shortcutNames)
}
