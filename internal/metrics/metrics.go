// Package metrics holds the platform's Prometheus collectors.
//
// Every recording method is safe on a nil *Metrics so components can be
// built without instrumentation in tests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "snapdeck"

// Metrics holds all collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	CaptureAttempts *prometheus.CounterVec
	Captures        *prometheus.CounterVec
	CaptureDuration prometheus.Histogram

	QueueLength *prometheus.GaugeVec
	Evictions   *prometheus.CounterVec

	VisibilityChanges *prometheus.CounterVec

	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	ProcessingCalls *prometheus.CounterVec
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CaptureAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_attempts_total",
			Help:      "Capture strategy attempts by strategy and result",
		}, []string{"strategy", "result"}),
		Captures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screenshots_total",
			Help:      "Screenshot transactions by result",
		}, []string{"result"}),
		CaptureDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "screenshot_duration_seconds",
			Help:      "Duration of the hide-capture-persist-show transaction",
			Buckets:   []float64{.25, .5, .75, 1, 1.5, 2, 3, 5, 10},
		}),
		QueueLength: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_length",
			Help:      "Screenshots currently held per queue",
		}, []string{"queue"}),
		Evictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_evictions_total",
			Help:      "Screenshots evicted for capacity per queue",
		}, []string{"queue"}),
		VisibilityChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "window_visibility_changes_total",
			Help:      "Overlay hide/show transitions",
		}, []string{"state"}),
		WSConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Connected shell WebSockets",
		}),
		WSMessages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Inbound shell messages by type",
		}, []string{"type"}),
		ProcessingCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processing_calls_total",
			Help:      "Calls to the external processing service",
		}, []string{"op", "result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests, extra collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func (m *Metrics) CaptureAttempt(strategy string, ok bool) {
	if m == nil {
		return
	}
	m.CaptureAttempts.WithLabelValues(strategy, result(ok)).Inc()
}

// Screenshot records a finished transaction; outcome is ok, error or rejected.
func (m *Metrics) Screenshot(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Captures.WithLabelValues(outcome).Inc()
	if outcome != "rejected" {
		m.CaptureDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) SetQueueLength(queue string, n int) {
	if m == nil {
		return
	}
	m.QueueLength.WithLabelValues(queue).Set(float64(n))
}

func (m *Metrics) Evicted(queue string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Evictions.WithLabelValues(queue).Add(float64(n))
}

func (m *Metrics) Visibility(state string) {
	if m == nil {
		return
	}
	m.VisibilityChanges.WithLabelValues(state).Inc()
}

func (m *Metrics) WSConnected(delta int) {
	if m == nil {
		return
	}
	m.WSConnections.Add(float64(delta))
}

func (m *Metrics) WSMessage(kind string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(kind).Inc()
}

func (m *Metrics) ProcessingCall(op string, ok bool) {
	if m == nil {
		return
	}
	m.ProcessingCalls.WithLabelValues(op, result(ok)).Inc()
}
