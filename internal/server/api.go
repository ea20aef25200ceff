package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
)

// httpStatus maps error codes onto REST status codes.
var httpStatus = map[apperrors.Code]int{
	apperrors.CodeInvalidArgument:   http.StatusBadRequest,
	apperrors.CodeNotFound:          http.StatusNotFound,
	apperrors.CodeCaptureInFlight:   http.StatusConflict,
	apperrors.CodeUnavailable:       http.StatusServiceUnavailable,
	apperrors.CodeWindowUnavailable: http.StatusServiceUnavailable,
	apperrors.CodeProcessingFailed:  http.StatusBadGateway,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to encode response", "error", err)
	}
}

// writeError renders err as a failed Result.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if appErr, ok := apperrors.As(err); ok {
		if s, ok := httpStatus[appErr.Code]; ok {
			status = s
		}
	}
	writeJSON(w, status, apperrors.ResultOf(err))
}

func writeResult(w http.ResponseWriter, res apperrors.Result) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}

func (s *Server) handleTakeScreenshot(w http.ResponseWriter, r *http.Request) {
	shot, err := s.app.TakeScreenshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ScreenshotResult{
		Path:      shot.Path,
		Preview:   s.app.ImagePreview(shot.Path),
		Duplicate: shot.Duplicate,
	})
}

func (s *Server) handleListScreenshots(w http.ResponseWriter, r *http.Request) {
	previews, err := s.app.Previews(r.URL.Query().Get("view"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, previews)
}

func (s *Server) handleDeleteScreenshot(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, apperrors.New(apperrors.CodeInvalidArgument, "path is required"))
		return
	}
	writeResult(w, s.app.DeleteScreenshot(path))
}

func (s *Server) handleDeleteLast(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.app.DeleteLastScreenshot())
}

func (s *Server) handleClearQueues(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("queue") == "extra" {
		s.app.ClearExtraScreenshotQueue()
	} else {
		s.app.ClearQueues()
	}
	writeJSON(w, http.StatusOK, apperrors.OK())
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewArgs{View: s.app.View()})
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	var body viewArgs
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "invalid request body"))
		return
	}
	if err := s.app.SetView(body.View); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if err := s.app.ToggleMainWindow(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Status())
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var move func() error
	switch r.PathValue("dir") {
	case "up":
		move = s.app.MoveWindowUp
	case "down":
		move = s.app.MoveWindowDown
	case "left":
		move = s.app.MoveWindowLeft
	case "right":
		move = s.app.MoveWindowRight
	default:
		writeError(w, apperrors.Newf(apperrors.CodeInvalidArgument, "unknown direction %q", r.PathValue("dir")))
		return
	}
	if err := move(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apperrors.OK())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.app.Reset(r.Context())
	writeJSON(w, http.StatusOK, apperrors.OK())
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	result, err := s.app.Process(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Status())
}
