package window

import (
	"errors"
	"log/slog"
	"math"
	"sync"

	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
	"github.com/GriffinCanCode/snapdeck/internal/metrics"
)

// DefaultStep is the distance in pixels of one directional move.
const DefaultStep = 60

// Controller owns the visibility state machine (hidden/visible) and the last
// known geometry of the attached window. Calls against a missing or destroyed
// window are silent no-ops.
type Controller struct {
	step    float64
	metrics *metrics.Metrics

	mu       sync.Mutex
	win      Window
	workArea Size
	visible  bool

	// x, y track position as floats so repeated moves don't drift.
	x, y     float64
	size     *Size
	snapshot *Bounds
}

// NewController creates a detached controller.
func NewController(step int, m *metrics.Metrics) *Controller {
	if step <= 0 {
		step = DefaultStep
	}
	return &Controller{step: float64(step), metrics: m}
}

// Attach binds a native window. The window is assumed to be showing, so the
// state starts visible.
func (c *Controller) Attach(w Window, workArea Size) error {
	b, err := w.Bounds()
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeWindowUnavailable, "failed to read window bounds")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.win = w
	c.workArea = workArea
	c.visible = true
	c.x, c.y = float64(b.X), float64(b.Y)
	c.size = &Size{Width: b.Width, Height: b.Height}
	c.snapshot = nil

	slog.Info("window attached", "bounds", b, "work_area", workArea)
	c.metrics.Visibility("visible")
	return nil
}

// Attached reports whether a live window is bound.
func (c *Controller) Attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive()
}

func (c *Controller) alive() bool {
	return c.win != nil && !c.win.IsDestroyed()
}

// Hide makes the window fully transparent and click-through after
// snapshotting its geometry.
func (c *Controller) Hide() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive() || !c.visible {
		return nil
	}

	snap := c.geometry()
	if b, err := c.win.Bounds(); err == nil {
		snap = &b
		c.x, c.y = float64(b.X), float64(b.Y)
	}

	ignoreErr := c.win.SetIgnoreMouseEvents(true, true)
	opacityErr := c.win.SetOpacity(0)
	// State follows opacity: a window that is still opaque stays visible.
	if opacityErr == nil {
		c.snapshot = snap
		c.visible = false
		c.metrics.Visibility("hidden")
	}
	if err := errors.Join(ignoreErr, opacityErr); err != nil {
		return apperrors.Wrap(err, apperrors.CodeWindowUnavailable, "failed to hide window")
	}
	return nil
}

// Show restores the snapshot geometry, re-enables mouse events, reasserts
// the overlay flags the OS may drop while hidden, and fades opacity back in.
func (c *Controller) Show() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive() {
		return nil
	}

	var errs []error
	if snap := c.snapshot; snap != nil {
		errs = append(errs, c.win.SetBounds(*snap))
		c.x, c.y = float64(snap.X), float64(snap.Y)
		c.size = &Size{Width: snap.Width, Height: snap.Height}
	}
	errs = append(errs,
		c.win.SetIgnoreMouseEvents(false, false),
		c.win.SetAlwaysOnTop(true),
		c.win.SetVisibleOnAllWorkspaces(true),
		c.win.SetContentProtection(true),
		c.win.SetOpacity(0),
		c.win.ShowInactive(),
		c.win.SetOpacity(1),
	)
	c.visible = true
	c.metrics.Visibility("visible")
	if err := errors.Join(errs...); err != nil {
		return apperrors.Wrap(err, apperrors.CodeWindowUnavailable, "failed to show window")
	}
	return nil
}

// Toggle hides a visible window and shows a hidden one.
func (c *Controller) Toggle() error {
	if c.IsVisible() {
		return c.Hide()
	}
	return c.Show()
}

func (c *Controller) IsVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Geometry returns the last known bounds, or nil when no window is attached.
func (c *Controller) Geometry() *Bounds {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.geometry()
}

func (c *Controller) geometry() *Bounds {
	if c.win == nil || c.size == nil {
		return nil
	}
	return &Bounds{
		X:      int(math.Round(c.x)),
		Y:      int(math.Round(c.y)),
		Width:  c.size.Width,
		Height: c.size.Height,
	}
}

// MoveHorizontal applies fn to the current x position.
func (c *Controller) MoveHorizontal(fn func(x float64) float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive() {
		return nil
	}
	c.x = fn(c.x)
	return c.setPosition()
}

// MoveVertical applies fn to the current y position. Moves that would put
// the window more than two thirds of its height beyond the top or bottom of
// the work area are dropped.
func (c *Controller) MoveVertical(fn func(y float64) float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive() {
		return nil
	}

	y := fn(c.y)
	h := c.height()
	upper := -h * 2 / 3
	lower := float64(c.workArea.Height) + h*2/3
	if y < upper || y > lower {
		slog.Debug("vertical move out of range", "y", y, "min", upper, "max", lower)
		return nil
	}
	c.y = y
	return c.setPosition()
}

func (c *Controller) MoveLeft() error {
	return c.MoveHorizontal(func(x float64) float64 {
		return math.Max(-c.width()/2, x-c.step)
	})
}

func (c *Controller) MoveRight() error {
	return c.MoveHorizontal(func(x float64) float64 {
		return math.Min(float64(c.workArea.Width)-c.width()/2, x+c.step)
	})
}

func (c *Controller) MoveUp() error {
	return c.MoveVertical(func(y float64) float64 { return y - c.step })
}

func (c *Controller) MoveDown() error {
	return c.MoveVertical(func(y float64) float64 { return y + c.step })
}

// width and height are read with mu held.
func (c *Controller) width() float64 {
	if c.size == nil {
		return 0
	}
	return float64(c.size.Width)
}

func (c *Controller) height() float64 {
	if c.size == nil {
		return 0
	}
	return float64(c.size.Height)
}

// syncSnapshot moves the hidden-state snapshot to the latest geometry so
// Show restores the last position, not the one at hide time.
func (c *Controller) syncSnapshot() {
	if c.visible || c.snapshot == nil {
		return
	}
	if g := c.geometry(); g != nil {
		c.snapshot = g
	}
}

func (c *Controller) setPosition() error {
	c.syncSnapshot()
	if err := c.win.SetPosition(int(math.Round(c.x)), int(math.Round(c.y))); err != nil {
		return apperrors.Wrap(err, apperrors.CodeWindowUnavailable, "failed to move window")
	}
	return nil
}

// OnMove records a position change reported by the window.
func (c *Controller) OnMove(b Bounds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.win == nil {
		return
	}
	c.x, c.y = float64(b.X), float64(b.Y)
	c.syncSnapshot()
}

// OnResize records a size change reported by the window.
func (c *Controller) OnResize(b Bounds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.win == nil {
		return
	}
	c.size = &Size{Width: b.Width, Height: b.Height}
	c.syncSnapshot()
}

// OnClose detaches the window and forgets its geometry.
func (c *Controller) OnClose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.win == nil {
		return
	}
	c.win = nil
	c.visible = false
	c.size = nil
	c.snapshot = nil
	slog.Info("window closed")
}
