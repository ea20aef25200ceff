package server

import (
	"encoding/json"

	"github.com/GriffinCanCode/snapdeck/internal/window"
)

// Inbound is any message the shell sends. Fields are populated per type.
type Inbound struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	TraceID string `json:"trace_id,omitempty"`

	// attach, moved, resized
	Bounds   *window.Bounds `json:"bounds,omitempty"`
	WorkArea *window.Size   `json:"work_area,omitempty"`

	// command
	Command string          `json:"command,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`

	// shortcut
	Accelerator string `json:"accelerator,omitempty"`
}

// ResultMessage answers a command or shortcut with the same id.
type ResultMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WindowMessage instructs the shell to change its native window. Pointer
// fields keep zero values (opacity 0, false flags) on the wire.
type WindowMessage struct {
	Type    string         `json:"type"`
	Op      string         `json:"op"`
	Bounds  *window.Bounds `json:"bounds,omitempty"`
	X       *int           `json:"x,omitempty"`
	Y       *int           `json:"y,omitempty"`
	Opacity *float64       `json:"opacity,omitempty"`
	Ignore  *bool          `json:"ignore,omitempty"`
	Forward *bool          `json:"forward,omitempty"`
	Flag    *bool          `json:"flag,omitempty"`
}

// ErrorMessage reports a problem not tied to a command id.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Window ops sent in WindowMessage.Op.
const (
	OpSetBounds                 = "setBounds"
	OpSetPosition               = "setPosition"
	OpSetOpacity                = "setOpacity"
	OpSetIgnoreMouseEvents      = "setIgnoreMouseEvents"
	OpSetAlwaysOnTop            = "setAlwaysOnTop"
	OpSetVisibleOnAllWorkspaces = "setVisibleOnAllWorkspaces"
	OpSetContentProtection      = "setContentProtection"
	OpShowInactive              = "showInactive"
)
