// Package orchestrator owns the application state (window, queues, view) and
// exposes every operation the shell can invoke.
package orchestrator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/GriffinCanCode/snapdeck/internal/config"
	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
	"github.com/GriffinCanCode/snapdeck/internal/metrics"
	"github.com/GriffinCanCode/snapdeck/internal/orchestrator/screenshot"
	"github.com/GriffinCanCode/snapdeck/internal/processing"
	"github.com/GriffinCanCode/snapdeck/internal/trace"
)

// Window is the overlay window as the manager drives it.
type Window interface {
	Hide() error
	Show() error
	Toggle() error
	MoveLeft() error
	MoveRight() error
	MoveUp() error
	MoveDown() error
	IsVisible() bool
	Attached() bool
}

// Status is a point-in-time summary for the shell and health endpoints.
type Status struct {
	Attached  bool     `json:"attached"`
	Visible   bool     `json:"visible"`
	View      string   `json:"view"`
	Queue     int      `json:"queue"`
	Extra     int      `json:"extra_queue"`
	Capturing bool     `json:"capturing"`
	Shortcuts []string `json:"shortcuts"`
	Capture   []string `json:"capture_strategies,omitempty"`
}

// Manager is the single owner of application state, constructed at startup.
type Manager struct {
	window     Window
	shots      *screenshot.Coordinator
	processor  processing.Processor
	log        *slog.Logger
	strategies []string

	events        chan Event
	shortcuts     map[string]func(ctx context.Context) error
	shortcutNames []string
}

// New wires the coordinator to the window and capture backend. A nil
// processor falls back to processing.Noop.
func New(cfg *config.Config, win Window, capturer screenshot.Capturer, proc processing.Processor, m *metrics.Metrics) (*Manager, error) {
	shots, err := screenshot.New(screenshot.Config{
		ScreenshotDir:      cfg.ScreenshotDir(),
		ExtraScreenshotDir: cfg.ExtraScreenshotDir(),
		TempDir:            cfg.TempDir(),
		Capacity:           cfg.MaxScreenshots,
		SettleDelay:        cfg.SettleDelay,
		ShowDelay:          cfg.ShowDelay,
	}, win, capturer, m)
	if err != nil {
		return nil, err
	}
	if proc == nil {
		proc = processing.Noop{}
	}

	mgr := &Manager{
		window:    win,
		shots:     shots,
		processor: proc,
		log:       slog.Default().With("component", "orchestrator"),
		events:    make(chan Event, EventBuffer),
	}
	if named, ok := capturer.(interface{ Names() []string }); ok {
		mgr.strategies = named.Names()
	}
	mgr.bindShortcuts()
	return mgr, nil
}

// TakeScreenshot captures into the current view's queue and announces it.
func (m *Manager) TakeScreenshot(ctx context.Context) (screenshot.Shot, error) {
	shot, err := m.shots.TakeScreenshot(ctx)
	if err != nil {
		return shot, err
	}
	m.emit(Event{
		Type:      EventScreenshotTaken,
		Path:      shot.Path,
		Preview:   m.shots.ImagePreview(shot.Path),
		Duplicate: shot.Duplicate,
		View:      string(shot.View),
	})
	return shot, nil
}

func (m *Manager) Queue() []string      { return m.shots.Queue() }
func (m *Manager) ExtraQueue() []string { return m.shots.ExtraQueue() }

// ImagePreview returns a data URI, or "" when the file cannot be read.
func (m *Manager) ImagePreview(path string) string { return m.shots.ImagePreview(path) }

// Previews lists the queue for view with previews; an empty view means the
// current one.
func (m *Manager) Previews(view string) ([]screenshot.Preview, error) {
	v := m.shots.View()
	if view != "" {
		parsed, err := screenshot.ParseView(view)
		if err != nil {
			return nil, err
		}
		v = parsed
	}
	return m.shots.Previews(v), nil
}

func (m *Manager) DeleteScreenshot(path string) apperrors.Result {
	res := m.shots.DeleteScreenshot(path)
	if res.Success {
		m.emit(Event{Type: EventScreenshotDeleted, Path: path})
	}
	return res
}

func (m *Manager) DeleteLastScreenshot() apperrors.Result {
	path, res := m.shots.DeleteLastScreenshot()
	if res.Success {
		m.emit(Event{Type: EventScreenshotDeleted, Path: path})
	}
	return res
}

func (m *Manager) ClearQueues() {
	m.shots.ClearQueues()
	m.emit(Event{Type: EventQueuesCleared})
}

func (m *Manager) ClearExtraScreenshotQueue() {
	m.shots.ClearExtraScreenshotQueue()
	m.emit(Event{Type: EventQueuesCleared, View: string(screenshot.ViewSolutions)})
}

func (m *Manager) SetView(view string) error {
	v, err := screenshot.ParseView(view)
	if err != nil {
		return err
	}
	if err := m.shots.SetView(v); err != nil {
		return err
	}
	m.emit(Event{Type: EventViewChanged, View: view})
	return nil
}

func (m *Manager) View() string { return string(m.shots.View()) }

func (m *Manager) ToggleMainWindow() error { return m.window.Toggle() }
func (m *Manager) MoveWindowUp() error     { return m.window.MoveUp() }
func (m *Manager) MoveWindowDown() error   { return m.window.MoveDown() }
func (m *Manager) MoveWindowLeft() error   { return m.window.MoveLeft() }
func (m *Manager) MoveWindowRight() error  { return m.window.MoveRight() }

// Reset cancels any processing job, clears both queues and returns to the
// queue view.
func (m *Manager) Reset(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "orchestrator_reset")
	defer span.End()

	if err := m.processor.Cancel(ctx); err != nil {
		trace.Logger(ctx).Warn("failed to cancel processing", "error", err)
	}
	m.shots.ClearQueues()
	_ = m.shots.SetView(screenshot.ViewQueue)
	m.emit(Event{Type: EventReset, View: string(screenshot.ViewQueue)})
}

// Process sends both queues to the processing service and switches to the
// solutions view on success.
func (m *Manager) Process(ctx context.Context) (json.RawMessage, error) {
	ctx, span := trace.StartSpan(ctx, "orchestrator_process")
	defer span.End()

	req := processing.Request{
		View:             m.View(),
		Screenshots:      m.images(m.shots.Queue()),
		ExtraScreenshots: m.images(m.shots.ExtraQueue()),
	}
	span.SetAttr("screenshots", len(req.Screenshots))
	if len(req.Screenshots) == 0 {
		err := apperrors.New(apperrors.CodeInvalidArgument, "no screenshots to process")
		m.emit(Event{Type: EventProcessingError, Error: apperrors.Message(err)})
		return nil, err
	}

	result, err := m.processor.Process(ctx, req)
	if err != nil {
		span.SetAttr("error", err.Error())
		m.emit(Event{Type: EventProcessingError, Error: apperrors.Message(err)})
		return nil, err
	}

	_ = m.shots.SetView(screenshot.ViewSolutions)
	m.emit(Event{Type: EventProcessingResult, Result: result, View: string(screenshot.ViewSolutions)})
	return result, nil
}

func (m *Manager) images(paths []string) []processing.Image {
	out := make([]processing.Image, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			m.log.Warn("skipping unreadable screenshot", "path", p, "error", err)
			continue
		}
		out = append(out, processing.Image{Path: p, Data: base64.StdEncoding.EncodeToString(data)})
	}
	return out
}

// Status summarizes current state.
func (m *Manager) Status() Status {
	return Status{
		Attached:  m.window.Attached(),
		Visible:   m.window.IsVisible(),
		View:      m.View(),
		Queue:     len(m.shots.Queue()),
		Extra:     len(m.shots.ExtraQueue()),
		Capturing: m.shots.Busy(),
		Shortcuts: m.Shortcuts(),
		Capture:   m.strategies,
	}
}
