package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/alexanderramin/agriadvisor/internal/advisor"
	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/alexanderramin/agriadvisor/internal/session"
	"go.uber.org/zap"
)

// ─────────────────────────────────────────────
// DTOs
// ─────────────────────────────────────────────

type modeRequest struct {
	Mode string `json:"mode"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sessionResponse struct {
	ID            string             `json:"id"`
	Mode          domain.TopicalMode `json:"mode"`
	Degraded      bool               `json:"degraded"`
	RemoteEnabled bool               `json:"remote_enabled"`
	Pending       bool               `json:"pending"`
	MessageCount  int                `json:"message_count"`
	CreatedAt     time.Time          `json:"created_at"`
}

type answerResponse struct {
	Message  domain.Message `json:"message"`
	Degraded bool           `json:"degraded"`
}

type historyResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []domain.Message `json:"messages"`
}

type deleteResponse struct {
	ID       string `json:"id"`
	Archived bool   `json:"archived"`
}

type healthResponse struct {
	Status          string `json:"status"`
	Sessions        int    `json:"sessions"`
	RemoteReachable *bool  `json:"remote_reachable,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toSessionResponse(s *session.Session) sessionResponse {
	return sessionResponse{
		ID:            s.ID(),
		Mode:          s.Mode(),
		Degraded:      s.Degraded(),
		RemoteEnabled: s.RemoteEnabled(),
		Pending:       s.Pending(),
		MessageCount:  s.Len(),
		CreatedAt:     s.CreatedAt(),
	}
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Sessions: s.sessions.Len()}
	if s.probe != nil {
		reachable := s.probe(r.Context())
		resp.RemoteReachable = &reachable
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid JSON body")
		return
	}

	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	sess, err := s.sessions.Create(mode)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	s.metrics.SetSessions(s.sessions.Len())

	s.log.Debug("session created",
		zap.String("request_id", RequestIDFrom(r.Context())),
		zap.String("session_id", sess.ID()),
		zap.Stringer("mode", mode),
	)
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	live := s.sessions.List()
	out := make([]sessionResponse, 0, len(live))
	for _, sess := range live {
		out = append(out, toSessionResponse(sess))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Delete(r.PathValue("id"))
	switch {
	case errors.Is(err, advisor.ErrBusy):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "session has a question in flight"})
		return
	case err != nil:
		notFound(w, err)
		return
	}
	s.metrics.SetSessions(s.sessions.Len())

	archived := s.archiveSession(r.Context(), sess)
	writeJSON(w, http.StatusOK, deleteResponse{ID: sess.ID(), Archived: archived})
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req modeRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err == nil {
		err = sess.SetMode(mode)
	}
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	msg, err := sess.Submit(r.Context(), req.Text)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, answerResponse{Message: msg, Degraded: sess.Degraded()})
	case errors.Is(err, session.ErrEmptyMessage):
		badRequest(w, "text is required")
	case errors.Is(err, advisor.ErrBusy):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrClosed):
		writeJSON(w, http.StatusGone, errorResponse{Error: err.Error()})
	case errors.Is(err, advisor.ErrDiscarded):
		s.log.Debug("client went away before the answer",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("session_id", sess.ID()),
		)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		s.log.Error("submit failed", zap.String("session_id", sess.ID()), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: sess.ID(), Messages: sess.History()})
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		notFound(w, err)
		return nil, false
	}
	return sess, true
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func notFound(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
}
