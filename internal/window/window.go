// Package window keeps the overlay window's visibility and position state and
// drives the native window through a narrow capability interface.
package window

// Bounds is a window rectangle in screen coordinates.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Size is a width/height pair, used for the display work area.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Window is the subset of native window operations the controller needs.
// Implementations report IsDestroyed once the native window is gone; every
// other call on a destroyed window may fail.
type Window interface {
	Bounds() (Bounds, error)
	SetBounds(b Bounds) error
	SetPosition(x, y int) error
	SetOpacity(opacity float64) error
	SetIgnoreMouseEvents(ignore, forward bool) error
	SetAlwaysOnTop(on bool) error
	SetVisibleOnAllWorkspaces(on bool) error
	SetContentProtection(on bool) error
	ShowInactive() error
	IsDestroyed() bool
}
