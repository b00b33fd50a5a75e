package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/alexanderramin/agriadvisor/internal/llm"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_AdvisorRecorder(t *testing.T) {
	m := New()
	m.ObserveAnswer(domain.SourceLocal, domain.ModeSensors)
	m.ObserveAnswer(domain.SourceLocal, domain.ModeSensors)
	m.ObserveAnswer(domain.SourceRemote, domain.ModeGeneral)
	m.ObserveDegraded()
	m.ObserveBusy()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnswersTotal.WithLabelValues("local", "sensors")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersTotal.WithLabelValues("remote", "general")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DegradedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BusyRejections))
}

func TestMetrics_LLMObserver(t *testing.T) {
	m := New()
	m.OnCallComplete(llm.LLMCallEvent{Task: llm.TaskAdvise, Provider: llm.ProviderGemini, LatencyMs: 420, Success: true})
	m.OnCallComplete(llm.LLMCallEvent{Task: llm.TaskAdvise, Provider: llm.ProviderGemini, ErrorCode: "TIMEOUT"})
	m.OnCallComplete(llm.LLMCallEvent{Task: llm.TaskAdvise, Provider: llm.ProviderOllama})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCallsTotal.WithLabelValues("gemini", "advise", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCallsTotal.WithLabelValues("gemini", "advise", "TIMEOUT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCallsTotal.WithLabelValues("ollama", "advise", "UNKNOWN")))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveBusy()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.BusyRejections))
	assert.Zero(t, testutil.ToFloat64(b.BusyRejections))
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	m := New()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/abc-123/messages", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/api/sessions/{id}/messages", "409")))
	assert.Zero(t, testutil.ToFloat64(m.HTTPRequestsInFlight))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "agriadvisor_http_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/api/sessions":              "/api/sessions",
		"/api/sessions/":             "/api/sessions/",
		"/api/sessions/abc":          "/api/sessions/{id}",
		"/api/sessions/abc/mode":     "/api/sessions/{id}/mode",
		"/api/sessions/abc/messages": "/api/sessions/{id}/messages",
		"/ws/sessions/abc":           "/ws/sessions/{id}",
		"/healthz":                   "/healthz",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePath(in), in)
	}
}
