// Package processing submits queued screenshots to the external processing
// service and relays its JSON result.
package processing

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/GriffinCanCode/snapdeck/internal/errors"
	"github.com/GriffinCanCode/snapdeck/internal/metrics"
	"github.com/GriffinCanCode/snapdeck/internal/resilience"
	"github.com/GriffinCanCode/snapdeck/internal/trace"
)

const (
	processPath = "/process"
	cancelPath  = "/cancel"
	userAgent   = "snapdeck/1.0"

	// maxErrorBody bounds how much of an error response ends up in messages.
	maxErrorBody = 256
)

// Image is one screenshot as sent to the service.
type Image struct {
	Path string `json:"path"`
	Data string `json:"data"` // base64 PNG
}

// Request carries both queues at the moment processing was triggered.
type Request struct {
	View             string  `json:"view"`
	Screenshots      []Image `json:"screenshots"`
	ExtraScreenshots []Image `json:"extra_screenshots,omitempty"`
}

// Processor is implemented by Client and Noop.
type Processor interface {
	Process(ctx context.Context, req Request) (json.RawMessage, error)
	Cancel(ctx context.Context) error
}

// Client talks to the processing service over HTTP. Only one Process call is
// tracked for local cancellation at a time; a newer call replaces it.
type Client struct {
	http    *resty.Client
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
	metrics *metrics.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	job    uint64
}

// New creates a client for baseURL with a per-request timeout.
func New(baseURL string, timeout time.Duration, m *metrics.Metrics) *Client {
	r := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	return &Client{
		http:    r,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerConfig("processing")),
		retry:   resilience.DefaultRetryConfig(),
		metrics: m,
	}
}

// WithRetry overrides the retry policy.
func (c *Client) WithRetry(cfg resilience.RetryConfig) *Client {
	c.retry = cfg
	return c
}

// WithBreaker overrides the circuit breaker.
func (c *Client) WithBreaker(b *resilience.Breaker) *Client {
	c.breaker = b
	return c
}

// Process posts req and returns the service's JSON result. Transient failures
// (transport errors, 429, 5xx) are retried; a breaker stops calls while the
// service keeps failing.
func (c *Client) Process(ctx context.Context, req Request) (json.RawMessage, error) {
	ctx, span := trace.StartSpan(ctx, "processing_process")
	defer span.End()
	span.SetAttr("screenshots", len(req.Screenshots))
	span.SetAttr("extra_screenshots", len(req.ExtraScreenshots))

	ctx, done := c.track(ctx)
	defer done()

	out, err := resilience.ExecuteWithResult(c.breaker, func() (json.RawMessage, error) {
		return resilience.RetryValue(ctx, c.retry, func(ctx context.Context) (json.RawMessage, error) {
			return c.post(ctx, processPath, req)
		})
	})
	c.metrics.ProcessingCall("process", err == nil)
	if err != nil {
		span.SetAttr("error", err.Error())
		trace.Logger(ctx).Error("processing failed", "error", err)
		return nil, err
	}
	return out, nil
}

// Cancel aborts the in-flight Process call locally and asks the service to
// stop. The local abort happens even if the remote call fails.
func (c *Client) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	_, err := c.post(ctx, cancelPath, struct{}{})
	c.metrics.ProcessingCall("cancel", err == nil)
	return err
}

// track derives a cancellable context for one Process call.
func (c *Client) track(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.job++
	job := c.job
	c.cancel = cancel
	c.mu.Unlock()

	return ctx, func() {
		c.mu.Lock()
		if c.job == job {
			c.cancel = nil
		}
		c.mu.Unlock()
		cancel()
	}
}

func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	r := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if tc, ok := trace.FromContext(ctx); ok {
		r.SetHeader(trace.TraceIDKey, tc.TraceID).SetHeader(trace.SpanIDKey, tc.SpanID)
	}

	resp, err := r.Post(path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.Wrap(ctx.Err(), apperrors.CodeProcessingFailed, "processing cancelled")
		}
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "processing service unreachable")
	}
	if resp.IsError() {
		return nil, statusError(resp.StatusCode(), resp.Body())
	}

	data := resp.Body()
	if len(data) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(data) {
		return nil, apperrors.New(apperrors.CodeProcessingFailed, "processing service returned invalid JSON")
	}
	return json.RawMessage(data), nil
}

// statusError maps an HTTP error status: rate limiting and server errors are
// transient, anything else is the request's fault.
func statusError(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	if msg == "" {
		msg = http.StatusText(code)
	}

	errCode := apperrors.CodeProcessingFailed
	if code == http.StatusTooManyRequests || code >= http.StatusInternalServerError {
		errCode = apperrors.CodeUnavailable
	}
	return apperrors.Newf(errCode, "processing service returned %d: %s", code, msg).
		WithMetadata("status", strconv.Itoa(code))
}

// Noop is used when no processing service is configured.
type Noop struct{}

func (Noop) Process(context.Context, Request) (json.RawMessage, error) {
	return nil, apperrors.New(apperrors.CodeUnavailable, "processing service is not configured")
}

func (Noop) Cancel(context.Context) error { return nil }
