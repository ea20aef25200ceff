package server

import (
	"sync"

	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
	"github.com/GriffinCanCode/snapdeck/internal/window"
)

var _ window.Window = (*RemoteWindow)(nil)

// RemoteWindow implements window.Window by sending commands to the shell that
// owns the native window. Bounds are the last ones the shell reported or
// that were sent to it, so reads never round-trip.
type RemoteWindow struct {
	send func(v any) error

	mu        sync.Mutex
	bounds    window.Bounds
	destroyed bool
}

// NewRemoteWindow creates a proxy that delivers commands through send.
func NewRemoteWindow(send func(v any) error, initial window.Bounds) *RemoteWindow {
	return &RemoteWindow{send: send, bounds: initial}
}

func (r *RemoteWindow) Bounds() (window.Bounds, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return window.Bounds{}, apperrors.New(apperrors.CodeWindowUnavailable, "window destroyed")
	}
	return r.bounds, nil
}

func (r *RemoteWindow) SetBounds(b window.Bounds) error {
	r.mu.Lock()
	r.bounds = b
	r.mu.Unlock()
	return r.op(WindowMessage{Op: OpSetBounds, Bounds: &b})
}

func (r *RemoteWindow) SetPosition(x, y int) error {
	r.mu.Lock()
	r.bounds.X, r.bounds.Y = x, y
	r.mu.Unlock()
	return r.op(WindowMessage{Op: OpSetPosition, X: &x, Y: &y})
}

func (r *RemoteWindow) SetOpacity(opacity float64) error {
	return r.op(WindowMessage{Op: OpSetOpacity, Opacity: &opacity})
}

func (r *RemoteWindow) SetIgnoreMouseEvents(ignore, forward bool) error {
	return r.op(WindowMessage{Op: OpSetIgnoreMouseEvents, Ignore: &ignore, Forward: &forward})
}

func (r *RemoteWindow) SetAlwaysOnTop(on bool) error {
	return r.op(WindowMessage{Op: OpSetAlwaysOnTop, Flag: &on})
}

func (r *RemoteWindow) SetVisibleOnAllWorkspaces(on bool) error {
	return r.op(WindowMessage{Op: OpSetVisibleOnAllWorkspaces, Flag: &on})
}

func (r *RemoteWindow) SetContentProtection(on bool) error {
	return r.op(WindowMessage{Op: OpSetContentProtection, Flag: &on})
}

func (r *RemoteWindow) ShowInactive() error {
	return r.op(WindowMessage{Op: OpShowInactive})
}

func (r *RemoteWindow) IsDestroyed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyed
}

// update records bounds reported by the shell.
func (r *RemoteWindow) update(b window.Bounds) {
	r.mu.Lock()
	r.bounds = b
	r.mu.Unlock()
}

func (r *RemoteWindow) destroy() {
	r.mu.Lock()
	r.destroyed = true
	r.mu.Unlock()
}

func (r *RemoteWindow) op(msg WindowMessage) error {
	if r.IsDestroyed() {
		return apperrors.New(apperrors.CodeWindowUnavailable, "window destroyed")
	}
	msg.Type = MsgWindow
	return r.send(msg)
}
