// Package metrics exports Prometheus metrics for the advisor, its model
// calls and the HTTP surface.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/agriadvisor/internal/advisor"
	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/alexanderramin/agriadvisor/internal/llm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agriadvisor"

// Metrics holds every collector. Each instance owns its registry so tests
// can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// Advisor
	AnswersTotal     *prometheus.CounterVec
	DegradedTotal    prometheus.Counter
	BusyRejections   prometheus.Counter
	SessionsActive   prometheus.Gauge
	TranscriptsSaved prometheus.Counter

	// Model calls
	LLMCallsTotal   *prometheus.CounterVec
	LLMCallDuration *prometheus.HistogramVec

	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// WebSocket
	WSConnectionsActive prometheus.Gauge
	WSMessagesTotal     *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AnswersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answers_total",
				Help:      "Resolved answers by source and mode",
			},
			[]string{"source", "mode"},
		),
		DegradedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degraded_sessions_total",
				Help:      "Sessions that switched to local-only answers",
			},
		),
		BusyRejections: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "busy_rejections_total",
				Help:      "Submits rejected because a request was in flight",
			},
		),
		SessionsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Live conversation sessions",
			},
		),
		TranscriptsSaved: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transcripts_saved_total",
				Help:      "Sessions written to the transcript archive",
			},
		),
		LLMCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_calls_total",
				Help:      "Remote model calls by provider and outcome",
			},
			[]string{"provider", "task", "status"},
		),
		LLMCallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_call_duration_seconds",
				Help:      "Remote model call latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30},
			},
			[]string{"provider", "task"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		WSConnectionsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "websocket_connections_active",
				Help:      "Active WebSocket connections",
			},
		),
		WSMessagesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "websocket_messages_total",
				Help:      "Total WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// OnCallComplete implements llm.Observer.
func (m *Metrics) OnCallComplete(event llm.LLMCallEvent) {
	status := "ok"
	if !event.Success {
		status = event.ErrorCode
		if status == "" {
			status = "UNKNOWN"
		}
	}
	m.LLMCallsTotal.WithLabelValues(string(event.Provider), string(event.Task), status).Inc()
	m.LLMCallDuration.WithLabelValues(string(event.Provider), string(event.Task)).
		Observe(float64(event.LatencyMs) / 1000)
}

// ObserveAnswer implements advisor.Recorder.
func (m *Metrics) ObserveAnswer(source domain.AnswerSource, mode domain.TopicalMode) {
	m.AnswersTotal.WithLabelValues(string(source), string(mode)).Inc()
}

func (m *Metrics) ObserveDegraded() { m.DegradedTotal.Inc() }
func (m *Metrics) ObserveBusy()     { m.BusyRejections.Inc() }

// SetSessions records the number of live sessions.
func (m *Metrics) SetSessions(n int) { m.SessionsActive.Set(float64(n)) }

// RecordTranscriptSaved counts one archived session.
func (m *Metrics) RecordTranscriptSaved() { m.TranscriptsSaved.Inc() }

// RecordWSMessage counts a WebSocket frame. direction is "in" or "out".
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessagesTotal.WithLabelValues(direction, msgType).Inc()
}

// Middleware records request count, latency and in-flight gauge.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := NormalizePath(r.URL.Path)
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// Hijack passes WebSocket upgrades through to the underlying connection.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

// NormalizePath replaces session ids with a placeholder to bound label
// cardinality.
func NormalizePath(path string) string {
	for _, prefix := range []string{"/api/sessions/", "/ws/sessions/"} {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || rest == "" {
			continue
		}
		if _, tail, found := strings.Cut(rest, "/"); found {
			return prefix + "{id}/" + tail
		}
		return prefix + "{id}"
	}
	return path
}

var (
	_ llm.Observer     = (*Metrics)(nil)
	_ advisor.Recorder = (*Metrics)(nil)
)
