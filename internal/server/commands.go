package server

import (
	"context"
	"encoding/json"
	"errors"

	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
)

// commandFunc handles one named WebSocket command. The returned value
// becomes the reply's data field.
type commandFunc func(ctx context.Context, args json.RawMessage) (any, error)

type pathArgs struct {
	Path string `json:"path"`
}

type viewArgs struct {
	View string `json:"view"`
}

// ScreenshotResult is returned for a successful capture.
type ScreenshotResult struct {
	Path      string `json:"path"`
	Preview   string `json:"preview"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidArgument, "invalid command arguments")
	}
	return nil
}

// resultErr turns a failed boundary Result back into an error for replies.
func resultErr(res apperrors.Result) error {
	if res.Success {
		return nil
	}
	return errors.New(res.Error)
}

func noArgs(fn func() error) commandFunc {
	return func(context.Context, json.RawMessage) (any, error) { return nil, fn() }
}

func (s *Server) commandTable() map[string]commandFunc {
	return map[string]commandFunc{
		"take-screenshot": func(ctx context.Context, _ json.RawMessage) (any, error) {
			shot, err := s.app.TakeScreenshot(ctx)
			if err != nil {
				return nil, err
			}
			return ScreenshotResult{Path: shot.Path, Preview: s.app.ImagePreview(shot.Path), Duplicate: shot.Duplicate}, nil
		},
		"get-screenshot-queue": func(context.Context, json.RawMessage) (any, error) {
			return s.app.Queue(), nil
		},
		"get-extra-screenshot-queue": func(context.Context, json.RawMessage) (any, error) {
			return s.app.ExtraQueue(), nil
		},
		"get-screenshots": func(_ context.Context, raw json.RawMessage) (any, error) {
			var args viewArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			return s.app.Previews(args.View)
		},
		"get-image-preview": func(_ context.Context, raw json.RawMessage) (any, error) {
			var args pathArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			return s.app.ImagePreview(args.Path), nil
		},
		"delete-screenshot": func(_ context.Context, raw json.RawMessage) (any, error) {
			var args pathArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if args.Path == "" {
				return nil, apperrors.New(apperrors.CodeInvalidArgument, "path is required")
			}
			return nil, resultErr(s.app.DeleteScreenshot(args.Path))
		},
		"delete-last-screenshot": func(context.Context, json.RawMessage) (any, error) {
			return nil, resultErr(s.app.DeleteLastScreenshot())
		},
		"clear-queues": func(context.Context, json.RawMessage) (any, error) {
			s.app.ClearQueues()
			return nil, nil
		},
		"clear-extra-screenshot-queue": func(context.Context, json.RawMessage) (any, error) {
			s.app.ClearExtraScreenshotQueue()
			return nil, nil
		},
		"set-view": func(_ context.Context, raw json.RawMessage) (any, error) {
			var args viewArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			return nil, s.app.SetView(args.View)
		},
		"get-view": func(context.Context, json.RawMessage) (any, error) {
			return s.app.View(), nil
		},
		"toggle-window":     noArgs(s.app.ToggleMainWindow),
		"move-window-up":    noArgs(s.app.MoveWindowUp),
		"move-window-down":  noArgs(s.app.MoveWindowDown),
		"move-window-left":  noArgs(s.app.MoveWindowLeft),
		"move-window-right": noArgs(s.app.MoveWindowRight),
		"reset": func(ctx context.Context, _ json.RawMessage) (any, error) {
			s.app.Reset(ctx)
			return nil, nil
		},
		"process": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return s.app.Process(ctx)
		},
		"get-status": func(context.Context, json.RawMessage) (any, error) {
			return s.app.Status(), nil
		},
	}
}
