// Package server exposes conversation sessions over HTTP JSON and
// WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/alexanderramin/agriadvisor/internal/metrics"
	"github.com/alexanderramin/agriadvisor/internal/session"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultPingInterval    = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	maxBodyBytes           = 64 << 10
)

// TranscriptSaver archives a finished conversation.
type TranscriptSaver interface {
	Save(ctx context.Context, t domain.Transcript) error
}

// Server routes API requests to live sessions.
type Server struct {
	sessions *session.Manager
	archive  TranscriptSaver
	metrics  *metrics.Metrics
	log      *zap.Logger
	probe    RemoteProbe

	upgrader     websocket.Upgrader
	pingInterval time.Duration
	handler      http.Handler
}

// RemoteProbe reports whether the remote model backend answers.
type RemoteProbe func(ctx context.Context) bool

// Option configures a Server.
type Option func(*Server)

// WithArchive saves sessions when they are deleted or at shutdown.
func WithArchive(a TranscriptSaver) Option {
	return func(s *Server) { s.archive = a }
}

// WithRemoteProbe makes /healthz report remote_reachable.
func WithRemoteProbe(p RemoteProbe) Option {
	return func(s *Server) { s.probe = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithPingInterval sets how often WebSocket clients are pinged. Clients
// that miss two pings are disconnected.
func WithPingInterval(d time.Duration) Option {
	return func(s *Server) { s.pingInterval = d }
}

// New builds a Server over sessions.
func New(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:     sessions,
		log:          zap.NewNop(),
		pingInterval: defaultPingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	s.log = s.log.Named("server")
	s.handler = s.routes()
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("PUT /api/sessions/{id}/mode", s.handleSetMode)
	mux.HandleFunc("POST /api/sessions/{id}/messages", s.handleSendMessage)
	mux.HandleFunc("GET /api/sessions/{id}/messages", s.handleListMessages)
	mux.HandleFunc("GET /ws/sessions/{id}", s.handleWebSocket)

	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return chainMiddlewares(mux,
		s.metrics.Middleware,
		s.withRequestLogging,
		withRequestID,
	)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// and archives the sessions still open.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultShutdownTimeout)
	defer cancel()

	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.closeAll(shutdownCtx)
	return nil
}

// closeAll removes and archives every live session, including ones whose
// last question is still unanswered.
func (s *Server) closeAll(ctx context.Context) {
	for _, sess := range s.sessions.Drain() {
		s.archiveSession(ctx, sess)
	}
	s.metrics.SetSessions(s.sessions.Len())
}

// archiveSession reports whether the transcript was stored.
func (s *Server) archiveSession(ctx context.Context, sess *session.Session) bool {
	if s.archive == nil || sess.Len() == 0 {
		return false
	}
	if err := s.archive.Save(ctx, sess.Transcript()); err != nil {
		s.log.Warn("archiving session failed", zap.String("session_id", sess.ID()), zap.Error(err))
		return false
	}
	return true
}
