package screenshot

import (
	"context"
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"time"

	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
	"github.com/GriffinCanCode/snapdeck/internal/metrics"
	"github.com/GriffinCanCode/snapdeck/internal/queue"
	"github.com/GriffinCanCode/snapdeck/internal/syncx"
	"github.com/GriffinCanCode/snapdeck/internal/trace"
)

// View selects which queue receives new captures.
type View string

const (
	ViewQueue     View = "queue"
	ViewSolutions View = "solutions"
)

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewQueue, ViewSolutions:
		return v, nil
	}
	return "", apperrors.Newf(apperrors.CodeInvalidArgument, "unknown view %q", s).
		WithMetadata("view", s)
}

// WindowController hides and shows the overlay around a capture.
type WindowController interface {
	Hide() error
	Show() error
}

// Capturer produces PNG bytes of the whole screen.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Config holds directories, capacity and timings. Zero delays mean no wait.
type Config struct {
	ScreenshotDir      string
	ExtraScreenshotDir string
	TempDir            string
	Capacity           int
	SettleDelay        time.Duration
	ShowDelay          time.Duration
}

// Shot describes a persisted capture.
type Shot struct {
	Path      string   `json:"path"`
	View      View     `json:"view"`
	Evicted   []string `json:"evicted,omitempty"`
	Duplicate bool     `json:"duplicate"`
}

// Preview pairs a reference with its data URI.
type Preview struct {
	Path    string `json:"path"`
	Preview string `json:"preview"`
}

// Coordinator owns both queues and the current view.
type Coordinator struct {
	cfg      Config
	window   WindowController
	capturer Capturer
	metrics  *metrics.Metrics

	queue  *queue.Store
	extra  *queue.Store
	view   *syncx.Guard[View]
	flight syncx.Flight
	hashes hashes
}

// New ensures the screenshot directories exist and purges PNGs left over
// from a previous run, so both queues start empty.
func New(cfg Config, window WindowController, capturer Capturer, m *metrics.Metrics) (*Coordinator, error) {
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePersistenceFailed, "failed to create temp directory")
	}
	primary, err := queue.New(string(ViewQueue), cfg.ScreenshotDir, cfg.Capacity, m)
	if err != nil {
		return nil, err
	}
	extra, err := queue.New(string(ViewSolutions), cfg.ExtraScreenshotDir, cfg.Capacity, m)
	if err != nil {
		return nil, err
	}

	log := trace.Logger(context.Background())
	for _, s := range []*queue.Store{primary, extra} {
		n, err := s.Purge()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			log.Info("purged stale screenshots", "queue", s.Name(), "count", n)
		}
	}

	return &Coordinator{
		cfg:      cfg,
		window:   window,
		capturer: capturer,
		metrics:  m,
		queue:    primary,
		extra:    extra,
		view:     syncx.NewGuard(ViewQueue),
	}, nil
}

// TakeScreenshot hides the window, waits for the compositor to settle,
// captures, persists into the current view's queue, and always re-shows the
// window afterwards. Overlapping calls are rejected without touching the
// window. Once started a capture runs to completion; ctx only reaches the
// capture backend.
func (c *Coordinator) TakeScreenshot(ctx context.Context) (Shot, error) {
	if !c.flight.TryAcquire() {
		c.metrics.Screenshot("rejected", 0)
		return Shot{}, apperrors.New(apperrors.CodeCaptureInFlight, "a screenshot is already in progress")
	}

	ctx, span := trace.StartSpan(ctx, "take_screenshot")
	defer span.End()
	log := trace.Logger(ctx)
	start := time.Now()

	if err := c.window.Hide(); err != nil {
		log.Warn("failed to hide window", "error", err)
	}
	defer func() {
		time.Sleep(c.cfg.ShowDelay)
		if err := c.window.Show(); err != nil {
			log.Warn("failed to show window", "error", err)
		}
		c.flight.Release()
	}()

	time.Sleep(c.cfg.SettleDelay)

	shot, err := c.capture(ctx)
	if err != nil {
		span.SetAttr("error", err.Error())
		c.metrics.Screenshot("error", time.Since(start))
		log.Error("screenshot failed", "error", err)
		return Shot{}, err
	}

	span.SetAttr("view", string(shot.View))
	span.SetAttr("evicted", len(shot.Evicted))
	c.metrics.Screenshot("ok", time.Since(start))
	log.Info("screenshot taken", "path", shot.Path, "view", shot.View, "duplicate", shot.Duplicate)
	return shot, nil
}

func (c *Coordinator) capture(ctx context.Context) (Shot, error) {
	data, err := c.capturer.Capture(ctx)
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return Shot{}, err
		}
		return Shot{}, apperrors.Wrap(err, apperrors.CodeCaptureFailed, "screen capture failed")
	}
	if len(data) == 0 {
		return Shot{}, apperrors.New(apperrors.CodeCaptureFailed, "screen capture returned no data")
	}

	view := c.view.Get()
	path, evicted, err := c.store(view).Add(data)
	if err != nil {
		return Shot{}, err
	}
	return Shot{
		Path:      path,
		View:      view,
		Evicted:   evicted,
		Duplicate: c.hashes.observe(view, data),
	}, nil
}

// Busy reports whether a capture is in progress.
func (c *Coordinator) Busy() bool { return c.flight.Busy() }

// ImagePreview returns path as a PNG data URI, or "" if it cannot be read.
// Only files inside a screenshot directory are served.
func (c *Coordinator) ImagePreview(path string) string {
	if !c.owned(path) {
		trace.Logger(context.Background()).Warn("preview refused for unmanaged path", "path", path)
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		trace.Logger(context.Background()).Debug("preview unavailable", "path", path, "error", err)
		return ""
	}
	return previewPrefix + base64.StdEncoding.EncodeToString(data)
}

func (c *Coordinator) owned(path string) bool {
	for _, s := range c.stores() {
		if s.Owns(path) {
			return true
		}
	}
	return false
}

// DeleteScreenshot removes path from whichever queue holds it, regardless of
// the current view. A path no queue holds only has its file removed, and
// only when it lies inside a screenshot directory. Missing files succeed.
func (c *Coordinator) DeleteScreenshot(path string) apperrors.Result {
	return apperrors.ResultOf(c.deleteScreenshot(path))
}

func (c *Coordinator) deleteScreenshot(path string) error {
	if path == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "path is required")
	}
	for _, s := range c.stores() {
		if s.Contains(path) {
			return c.logDelete(s.Delete(path), path)
		}
	}
	for _, s := range c.stores() {
		if s.Owns(path) {
			return c.logDelete(s.Delete(path), path)
		}
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return apperrors.New(apperrors.CodeInvalidArgument, "path is not a managed screenshot").
		WithMetadata("path", path)
}

func (c *Coordinator) logDelete(err error, path string) error {
	log := trace.Logger(context.Background())
	if err != nil {
		log.Error("failed to delete screenshot", "path", path, "error", err)
		return err
	}
	log.Info("screenshot deleted", "path", path)
	return nil
}

// DeleteLastScreenshot deletes the newest capture in the current view's queue.
func (c *Coordinator) DeleteLastScreenshot() (string, apperrors.Result) {
	path, ok := c.store(c.view.Get()).Last()
	if !ok {
		return "", apperrors.Result{Error: "no screenshots to delete"}
	}
	return path, c.DeleteScreenshot(path)
}

// ClearQueues empties both queues and deletes their files.
func (c *Coordinator) ClearQueues() {
	n := c.queue.Clear() + c.extra.Clear()
	c.hashes.forget(ViewQueue, ViewSolutions)
	trace.Logger(context.Background()).Info("queues cleared", "count", n)
}

// ClearExtraScreenshotQueue empties the solutions queue only.
func (c *Coordinator) ClearExtraScreenshotQueue() {
	n := c.extra.Clear()
	c.hashes.forget(ViewSolutions)
	trace.Logger(context.Background()).Info("extra queue cleared", "count", n)
}

// SetView switches the queue that receives new captures.
func (c *Coordinator) SetView(v View) error {
	if _, err := ParseView(string(v)); err != nil {
		return err
	}
	c.view.Set(v)
	return nil
}

func (c *Coordinator) View() View { return c.view.Get() }

// Queue returns the primary queue's references, oldest first.
func (c *Coordinator) Queue() []string { return c.queue.List() }

// ExtraQueue returns the solutions queue's references, oldest first.
func (c *Coordinator) ExtraQueue() []string { return c.extra.List() }

// Previews returns every reference in view's queue with its preview.
func (c *Coordinator) Previews(view View) []Preview {
	paths := c.store(view).List()
	out := make([]Preview, 0, len(paths))
	for _, p := range paths {
		out = append(out, Preview{Path: p, Preview: c.ImagePreview(p)})
	}
	return out
}

func (c *Coordinator) store(v View) *queue.Store {
	if v == ViewSolutions {
		return c.extra
	}
	return c.queue
}

func (c *Coordinator) stores() []*queue.Store {
	return []*queue.Store{c.queue, c.extra}
}
