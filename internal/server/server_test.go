package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/agriadvisor/internal/advisor"
	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/alexanderramin/agriadvisor/internal/metrics"
	"github.com/alexanderramin/agriadvisor/internal/session"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator answers remotely, optionally holding each call until
// release is closed.
type stubGenerator struct {
	text    string
	err     error
	release chan struct{}
	started chan struct{}
}

func (g *stubGenerator) Generate(ctx context.Context, _ string, mode domain.TopicalMode, _ domain.ContextSnapshot) (domain.ResolvedAnswer, error) {
	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return domain.ResolvedAnswer{}, ctx.Err()
		}
	}
	if g.err != nil {
		return domain.ResolvedAnswer{}, g.err
	}
	return domain.ResolvedAnswer{
		Content:     g.text,
		Confidence:  90,
		Suggestions: advisor.Suggestions(mode),
		Mode:        mode,
		Source:      domain.SourceRemote,
	}, nil
}

type memoryArchive struct {
	mu    sync.Mutex
	saved []domain.Transcript
	err   error
}

func (a *memoryArchive) Save(_ context.Context, t domain.Transcript) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.saved = append(a.saved, t)
	return nil
}

func (a *memoryArchive) Saved() []domain.Transcript {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Transcript(nil), a.saved...)
}

type testEnv struct {
	srv     *Server
	mgr     *session.Manager
	metrics *metrics.Metrics
}

// newTestEnv builds a server whose sessions use gen as the remote tier;
// a nil gen means local answers only.
func newTestEnv(t *testing.T, gen advisor.Generator, opts ...Option) *testEnv {
	t.Helper()
	m := metrics.New()
	factory := func() *advisor.Orchestrator {
		synth := advisor.NewSynthesizer(7, nil)
		return advisor.NewOrchestrator(gen, advisor.NewResolver(synth), synth, advisor.Options{
			RemoteEnabled: gen != nil,
			Recorder:      m,
		})
	}
	mgr := session.NewManager(factory)
	srv := New(mgr, append([]Option{WithMetrics(m)}, opts...)...)
	return &testEnv{srv: srv, mgr: mgr, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) createSession(t *testing.T, mode domain.TopicalMode) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/sessions", `{"mode":"`+string(mode)+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ID
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotContains(t, w.Body.String(), "remote_reachable")
}

func TestHealthz_ReportsRemoteReachability(t *testing.T) {
	for _, reachable := range []bool{true, false} {
		var probed int
		env := newTestEnv(t, nil, WithRemoteProbe(func(context.Context) bool {
			probed++
			return reachable
		}))

		w := env.do(t, http.MethodGet, "/healthz", "")

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[healthResponse](t, w)
		require.NotNil(t, resp.RemoteReachable)
		assert.Equal(t, reachable, *resp.RemoteReachable)
		assert.Equal(t, 1, probed)
	}
}

func TestCreateSession_DefaultsToGeneral(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/sessions", "")

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode[sessionResponse](t, w)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, domain.ModeGeneral, resp.Mode)
	assert.False(t, resp.Degraded)
	assert.False(t, resp.RemoteEnabled)
	assert.Zero(t, resp.MessageCount)
	assert.Equal(t, 1, env.mgr.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.SessionsActive))
}

func TestCreateSession_RejectsBadInput(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"unknown mode", `{"mode":"astrology"}`},
		{"malformed json", `{"mode":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/sessions", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
	assert.Zero(t, env.mgr.Len())
}

func TestSessionLifecycle(t *testing.T) {
	archive := &memoryArchive{}
	env := newTestEnv(t, nil, WithArchive(archive))
	id := env.createSession(t, domain.ModeSensors)

	w := env.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"text":"Show me my sensor data analysis"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ans := decode[answerResponse](t, w)
	assert.Equal(t, domain.RoleAssistant, ans.Message.Role)
	assert.Equal(t, domain.SourceLocal, ans.Message.Source)
	assert.Equal(t, domain.ModeSensors, ans.Message.Mode)
	require.NotNil(t, ans.Message.Confidence)
	assert.GreaterOrEqual(t, *ans.Message.Confidence, 85)
	assert.LessOrEqual(t, *ans.Message.Confidence, 100)
	assert.Equal(t, advisor.Suggestions(domain.ModeSensors), ans.Message.Suggestions)
	assert.False(t, ans.Degraded)

	w = env.do(t, http.MethodGet, "/api/sessions/"+id+"/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode[historyResponse](t, w)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, domain.RoleUser, hist.Messages[0].Role)
	assert.Equal(t, "Show me my sensor data analysis", hist.Messages[0].Text)
	assert.Equal(t, domain.RoleAssistant, hist.Messages[1].Role)

	w = env.do(t, http.MethodPut, "/api/sessions/"+id+"/mode", `{"mode":"weather"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.ModeWeather, decode[sessionResponse](t, w).Mode)

	w = env.do(t, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[sessionResponse](t, w)
	assert.Equal(t, 2, status.MessageCount)
	assert.Equal(t, domain.ModeWeather, status.Mode)

	w = env.do(t, http.MethodDelete, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[deleteResponse](t, w).Archived)

	saved := archive.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, id, saved[0].SessionID)
	assert.Len(t, saved[0].Messages, 2)

	w = env.do(t, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, testutil.ToFloat64(env.metrics.SessionsActive))
}

func TestSetMode_Invalid(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createSession(t, domain.ModeMarket)

	w := env.do(t, http.MethodPut, "/api/sessions/"+id+"/mode", `{"mode":"poetry"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/sessions/"+id+"/mode", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	sess, err := env.mgr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeMarket, sess.Mode())
}

func TestSendMessage_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createSession(t, domain.ModeGeneral)

	w := env.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/sessions/missing/messages", `{"text":"hello"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	sess, err := env.mgr.Get(id)
	require.NoError(t, err)
	assert.Zero(t, sess.Len())
}

func TestSendMessage_Arithmetic(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createSession(t, domain.ModeGeneral)

	w := env.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"text":"2+2"}`)

	require.Equal(t, http.StatusOK, w.Code)
	ans := decode[answerResponse](t, w)
	assert.Contains(t, ans.Message.Text, "4")
	require.NotNil(t, ans.Message.Confidence)
	assert.Equal(t, 100, *ans.Message.Confidence)
}

func TestSendMessage_RemoteAnswer(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{text: "Irrigate early tomorrow morning."})
	id := env.createSession(t, domain.ModeWeather)

	w := env.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"text":"Should I irrigate today?"}`)

	require.Equal(t, http.StatusOK, w.Code)
	ans := decode[answerResponse](t, w)
	assert.Equal(t, domain.SourceRemote, ans.Message.Source)
	assert.Equal(t, "Irrigate early tomorrow morning.", ans.Message.Text)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.AnswersTotal.WithLabelValues("remote", "weather")))
}

func TestSendMessage_RemoteFailureDegrades(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{err: errors.New("connection refused")})
	id := env.createSession(t, domain.ModeMarket)

	w := env.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"text":"Which crop has the best price now?"}`)

	require.Equal(t, http.StatusOK, w.Code)
	ans := decode[answerResponse](t, w)
	assert.Equal(t, domain.SourceLocal, ans.Message.Source)
	assert.True(t, ans.Degraded)

	w = env.do(t, http.MethodGet, "/api/sessions/"+id, "")
	assert.True(t, decode[sessionResponse](t, w).Degraded)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.DegradedTotal))
}

func TestSendMessage_BusyReturnsConflict(t *testing.T) {
	gen := &stubGenerator{
		text:    "Prices are steady.",
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	env := newTestEnv(t, gen)
	id := env.createSession(t, domain.ModeMarket)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- env.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"text":"How is demand for soybean?"}`)
	}()

	select {
	case <-gen.started:
	case <-time.After(2 * time.Second):
		t.Fatal("remote call did not start")
	}

	w := env.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"text":"And wheat?"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(gen.release)
	w = <-first
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.SourceRemote, decode[answerResponse](t, w).Message.Source)

	sess, err := env.mgr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.BusyRejections))
}

func TestDeleteSession(t *testing.T) {
	t.Run("without archive", func(t *testing.T) {
		env := newTestEnv(t, nil)
		id := env.createSession(t, domain.ModeGeneral)
		env.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"text":"hello"}`)

		w := env.do(t, http.MethodDelete, "/api/sessions/"+id, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, decode[deleteResponse](t, w).Archived)
	})

	t.Run("archive failure still removes", func(t *testing.T) {
		archive := &memoryArchive{err: errors.New("disk full")}
		env := newTestEnv(t, nil, WithArchive(archive))
		id := env.createSession(t, domain.ModeGeneral)
		env.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"text":"hello"}`)

		w := env.do(t, http.MethodDelete, "/api/sessions/"+id, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, decode[deleteResponse](t, w).Archived)
		assert.Zero(t, env.mgr.Len())
	})

	t.Run("unknown id", func(t *testing.T) {
		env := newTestEnv(t, nil)
		w := env.do(t, http.MethodDelete, "/api/sessions/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteSession_PendingQuestionConflicts(t *testing.T) {
	gen := &stubGenerator{
		text:    "Spray in the evening.",
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	archive := &memoryArchive{}
	env := newTestEnv(t, gen, WithArchive(archive))
	id := env.createSession(t, domain.ModePestDetection)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- env.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"text":"aphids on chilli"}`)
	}()
	select {
	case <-gen.started:
	case <-time.After(2 * time.Second):
		t.Fatal("remote call did not start")
	}

	w := env.do(t, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, env.mgr.Len())
	assert.Empty(t, archive.Saved())

	close(gen.release)
	require.Equal(t, http.StatusOK, (<-first).Code)

	w = env.do(t, http.MethodDelete, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[deleteResponse](t, w).Archived)
	saved := archive.Saved()
	require.Len(t, saved, 1)
	require.Len(t, saved[0].Messages, 2)
	assert.Equal(t, domain.RoleAssistant, saved[0].Messages[1].Role)
}

func TestSendMessage_ClosedSessionIsGone(t *testing.T) {
	env := newTestEnv(t, nil)
	sess, err := env.mgr.Create(domain.ModeGeneral)
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	_, err = sess.Submit(context.Background(), "hello")
	assert.ErrorIs(t, err, session.ErrClosed)

	w := env.do(t, http.MethodPost, "/api/sessions/"+sess.ID()+"/messages", `{"text":"hello"}`)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Zero(t, sess.Len())
}

func TestListSessions(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createSession(t, domain.ModeWeather)
	env.createSession(t, domain.ModePestDetection)

	w := env.do(t, http.MethodGet, "/api/sessions", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]sessionResponse](t, w), 2)
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = env.do(t, http.MethodGet, "/healthz", "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createSession(t, domain.ModeGeneral)
	env.do(t, http.MethodPost, "/api/sessions/"+id+"/messages", `{"text":"2+2"}`)

	w := env.do(t, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "agriadvisor_answers_total")
	assert.Contains(t, body, `path="/api/sessions/{id}/messages"`)
}

func TestListenAndServe_ArchivesOpenSessionsOnShutdown(t *testing.T) {
	archive := &memoryArchive{}
	env := newTestEnv(t, nil, WithArchive(archive))

	sess, err := env.mgr.Create(domain.ModeGeneral)
	require.NoError(t, err)
	_, err = sess.Submit(context.Background(), "hello")
	require.NoError(t, err)
	_, err = env.mgr.Create(domain.ModeWeather)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	saved := archive.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, sess.ID(), saved[0].SessionID)
	assert.Zero(t, env.mgr.Len())
}

func TestChainMiddlewares_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := chainMiddlewares(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("inner"), mw("outer"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "outer,inner,handler", strings.Join(order, ","))
}
