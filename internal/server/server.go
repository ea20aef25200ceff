package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/time/rate"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/GriffinCanCode/snapdeck/internal/config"
	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
	"github.com/GriffinCanCode/snapdeck/internal/metrics"
	"github.com/GriffinCanCode/snapdeck/internal/orchestrator"
	"github.com/GriffinCanCode/snapdeck/internal/orchestrator/screenshot"
	"github.com/GriffinCanCode/snapdeck/internal/trace"
	"github.com/GriffinCanCode/snapdeck/internal/window"
)

// App is the orchestrator surface the server exposes.
type App interface {
	TakeScreenshot(ctx context.Context) (screenshot.Shot, error)
	Queue() []string
	ExtraQueue() []string
	ImagePreview(path string) string
	Previews(view string) ([]screenshot.Preview, error)
	DeleteScreenshot(path string) apperrors.Result
	DeleteLastScreenshot() apperrors.Result
	ClearQueues()
	ClearExtraScreenshotQueue()
	SetView(view string) error
	View() string
	ToggleMainWindow() error
	MoveWindowUp() error
	MoveWindowDown() error
	MoveWindowLeft() error
	MoveWindowRight() error
	Reset(ctx context.Context)
	Process(ctx context.Context) (json.RawMessage, error)
	Dispatch(ctx context.Context, accelerator string) error
	Status() orchestrator.Status
	Events() <-chan orchestrator.Event
}

// WindowHost receives the native window lifecycle reported by the shell.
type WindowHost interface {
	Attach(w window.Window, workArea window.Size) error
	OnMove(b window.Bounds)
	OnResize(b window.Bounds)
	OnClose()
}

// HealthReporter is satisfied by *health.Server.
type HealthReporter interface {
	SetServingStatus(service string, status healthpb.HealthCheckResponse_ServingStatus)
}

// client is one WebSocket connection. All writes go through send so window
// commands reach the shell in the order they were issued.
type client struct {
	conn    *websocket.Conn
	limiter *rate.Limiter
	send    chan any
	done    chan struct{}
	remote  *RemoteWindow // set while this client owns the window; guarded by Server.mu
}

func (c *client) enqueue(v any) error {
	select {
	case <-c.done:
		return apperrors.New(apperrors.CodeWindowUnavailable, "connection closed")
	default:
	}
	select {
	case c.send <- v:
		return nil
	default:
		return apperrors.New(apperrors.CodeUnavailable, "send buffer full")
	}
}

func (c *client) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, WriteTimeout)
			err := wsjson.Write(wctx, c.conn, v)
			cancel()
			if err != nil {
				slog.Debug("websocket write error", "error", err)
				return
			}
		}
	}
}

// Server handles HTTP, WebSocket and health reporting.
type Server struct {
	app      App
	window   WindowHost
	cfg      *config.Config
	metrics  *metrics.Metrics
	health   HealthReporter
	commands map[string]commandFunc

	mu      sync.RWMutex
	clients map[*client]struct{}
	shell   *client
}

// New creates a server and starts broadcasting orchestrator events.
func New(app App, win WindowHost, cfg *config.Config, m *metrics.Metrics) *Server {
	s := &Server{
		app:     app,
		window:  win,
		cfg:     cfg,
		metrics: m,
		clients: make(map[*client]struct{}),
	}
	s.commands = s.commandTable()

	go s.broadcastEvents()
	return s
}

// WithHealth reports window attachment through h.
func (s *Server) WithHealth(h HealthReporter) *Server {
	s.health = h
	s.setServing(false)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("POST /api/screenshots", s.handleTakeScreenshot)
	mux.HandleFunc("GET /api/screenshots", s.handleListScreenshots)
	mux.HandleFunc("DELETE /api/screenshots", s.handleDeleteScreenshot)
	mux.HandleFunc("DELETE /api/screenshots/last", s.handleDeleteLast)
	mux.HandleFunc("POST /api/queues/clear", s.handleClearQueues)
	mux.HandleFunc("GET /api/view", s.handleGetView)
	mux.HandleFunc("PUT /api/view", s.handleSetView)
	mux.HandleFunc("POST /api/window/toggle", s.handleToggle)
	mux.HandleFunc("POST /api/window/move/{dir}", s.handleMove)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// Apply middleware: trace -> CORS
	return corsMiddleware(s.cfg.AllowedOrigins, trace.Middleware(mux))
}

// corsMiddleware answers preflights and rejects browser requests from
// origins outside the allowed patterns. Requests without an Origin header
// (the shell, curl) pass through.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if !originAllowed(origin, r.Host, origins) {
				slog.Warn("rejected cross-origin request", "origin", origin, "path", r.URL.Path)
				writeJSON(w, http.StatusForbidden, apperrors.ResultOf(apperrors.New(apperrors.CodeInvalidArgument, "origin not allowed")))
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "*")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// originAllowed applies the same rule as the WebSocket handshake: same host,
// or the origin's host[:port] matches one of the patterns.
func originAllowed(origin, host string, patterns []string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, host) {
		return true
	}
	for _, p := range patterns {
		if ok, err := path.Match(strings.ToLower(p), strings.ToLower(u.Host)); err == nil && ok {
			return true
		}
	}
	return false
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.AllowedOrigins,
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
	conn.SetReadLimit(ReadLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &client{
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(s.cfg.WSRateLimit), s.cfg.WSRateBurst),
		send:    make(chan any, SendBuffer),
		done:    make(chan struct{}),
	}
	s.register(c)
	defer s.unregister(c)
	go c.writeLoop(ctx)

	log := trace.Logger(ctx)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		var msg Inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			_ = c.enqueue(ErrorMessage{Type: MsgError, Message: "malformed message"})
			continue
		}
		s.metrics.WSMessage(messageKind(msg.Type))
		s.handleMessage(ctx, c, msg)
	}
}

// messageKind bounds the metric label to known inbound types.
func messageKind(t string) string {
	switch t {
	case MsgAttach, MsgMoved, MsgResized, MsgClosed, MsgCommand, MsgShortcut:
		return t
	}
	return "unknown"
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.metrics.WSConnected(1)
}

func (s *Server) unregister(c *client) {
	s.detach(c)
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	close(c.done)
	s.metrics.WSConnected(-1)
}

func (s *Server) handleMessage(ctx context.Context, c *client, msg Inbound) {
	switch msg.Type {
	case MsgAttach:
		s.attach(c, msg)
	case MsgMoved, MsgResized:
		if msg.Bounds == nil {
			return
		}
		s.mu.RLock()
		remote := c.remote
		s.mu.RUnlock()
		if remote == nil {
			return
		}
		remote.update(*msg.Bounds)
		if msg.Type == MsgMoved {
			s.window.OnMove(*msg.Bounds)
		} else {
			s.window.OnResize(*msg.Bounds)
		}
	case MsgClosed:
		s.detach(c)
	case MsgCommand, MsgShortcut:
		// Window lifecycle messages are exempt; dragging emits many of them.
		if !c.limiter.Allow() {
			trace.Logger(ctx).Warn("rate limit exceeded", "type", msg.Type)
			s.reply(c, msg.ID, nil, apperrors.New(apperrors.CodeUnavailable, "rate limit exceeded"))
			return
		}
		ctx = trace.FromID(ctx, msg.TraceID)
		if msg.Type == MsgCommand {
			go s.runCommand(ctx, c, msg)
		} else {
			go s.runShortcut(ctx, c, msg)
		}
	default:
		_ = c.enqueue(ErrorMessage{Type: MsgError, Message: "unknown message type: " + msg.Type})
	}
}

// attach makes c the shell that owns the window. A previous owner's proxy
// is destroyed so its late messages are ignored.
func (s *Server) attach(c *client, msg Inbound) {
	if msg.Bounds == nil || msg.WorkArea == nil {
		s.reply(c, msg.ID, nil, apperrors.New(apperrors.CodeInvalidArgument, "attach requires bounds and work_area"))
		return
	}
	remote := NewRemoteWindow(c.enqueue, *msg.Bounds)

	s.mu.Lock()
	prev := s.shell
	if prev != nil && prev.remote != nil {
		prev.remote.destroy()
		prev.remote = nil
	}
	s.shell = c
	c.remote = remote
	s.mu.Unlock()

	err := s.window.Attach(remote, *msg.WorkArea)
	s.setServing(err == nil)
	s.reply(c, msg.ID, nil, err)
}

func (s *Server) detach(c *client) {
	s.mu.Lock()
	if s.shell != c {
		s.mu.Unlock()
		return
	}
	remote := c.remote
	s.shell = nil
	c.remote = nil
	s.mu.Unlock()

	if remote != nil {
		remote.destroy()
	}
	s.setServing(false)
	s.window.OnClose()
	slog.Info("shell window detached")
}

func (s *Server) setServing(ok bool) {
	if s.health == nil {
		return
	}
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(HealthService, st)
}

func (s *Server) runCommand(ctx context.Context, c *client, msg Inbound) {
	ctx, span := trace.StartSpan(ctx, "ws_command")
	defer span.End()
	span.SetAttr("command", msg.Command)

	fn, ok := s.commands[msg.Command]
	if !ok {
		s.reply(c, msg.ID, nil, apperrors.Newf(apperrors.CodeNotFound, "unknown command: %s", msg.Command))
		return
	}
	data, err := fn(ctx, msg.Args)
	if err != nil {
		span.SetAttr("error", err.Error())
		trace.Logger(ctx).Warn("command failed", "command", msg.Command, "error", err)
	}
	s.reply(c, msg.ID, data, err)
}

func (s *Server) runShortcut(ctx context.Context, c *client, msg Inbound) {
	ctx, span := trace.StartSpan(ctx, "ws_shortcut")
	defer span.End()
	span.SetAttr("accelerator", msg.Accelerator)

	err := s.app.Dispatch(ctx, msg.Accelerator)
	if err != nil {
		trace.Logger(ctx).Warn("shortcut failed", "accelerator", msg.Accelerator, "error", err)
	}
	s.reply(c, msg.ID, nil, err)
}

// reply sends a result; only the user-facing message of err is exposed.
func (s *Server) reply(c *client, id string, data any, err error) {
	res := ResultMessage{Type: MsgResult, ID: id, Success: err == nil}
	if err != nil {
		res.Error = apperrors.Message(err)
	} else {
		res.Data = data
	}
	if sendErr := c.enqueue(res); sendErr != nil {
		slog.Debug("dropping reply", "id", id, "error", sendErr)
	}
}

func (s *Server) broadcastEvents() {
	for evt := range s.app.Events() {
		s.mu.RLock()
		for c := range s.clients {
			if err := c.enqueue(evt); err != nil {
				slog.Debug("dropping event", "type", evt.Type, "error", err)
			}
		}
		s.mu.RUnlock()
	}
}
