package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/alexanderramin/agriadvisor/internal/advisor"
	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/alexanderramin/agriadvisor/internal/session"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket frame types.
const (
	FrameMessage = "message"
	FrameMode    = "mode"
	FramePing    = "ping"
	FramePong    = "pong"
	FrameAnswer  = "answer"
	FrameError   = "error"
)

const (
	wsReadLimit    = 8 << 10
	wsWriteTimeout = 10 * time.Second
)

// Frame is one JSON message on the chat socket.
//
//	in:  {"type":"message","text":"..."}  {"type":"mode","mode":"weather"}  {"type":"ping"}
//	out: {"type":"answer","message":{...},"degraded":false}  {"type":"mode","mode":"weather"}
//	     {"type":"pong"}  {"type":"error","error":"...","code":"busy"}
type Frame struct {
	Type     string             `json:"type"`
	Text     string             `json:"text,omitempty"`
	Mode     domain.TopicalMode `json:"mode,omitempty"`
	Message  *domain.Message    `json:"message,omitempty"`
	Degraded bool               `json:"degraded,omitempty"`
	Error    string             `json:"error,omitempty"`
	Code     string             `json:"code,omitempty"`
}

// wsClient serializes writes to one connection.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(f)
}

// handleWebSocket runs a chat over GET /ws/sessions/{id}. Each message
// frame is answered on its own goroutine, so a second question while one
// is pending is rejected as busy rather than queued.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.metrics.WSConnectionsActive.Inc()
	defer s.metrics.WSConnectionsActive.Dec()

	log := s.log.With(
		zap.String("request_id", RequestIDFrom(r.Context())),
		zap.String("session_id", sess.ID()),
	)
	log.Debug("websocket connected")

	// Cancelled when the read loop ends; a pending answer is then discarded.
	ctx, cancel := context.WithCancel(r.Context())
	client := &wsClient{conn: conn}

	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		log.Debug("websocket closed")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.pingLoop(ctx, conn)
	}()

	conn.SetReadLimit(wsReadLimit)
	s.extendReadDeadline(conn)
	conn.SetPongHandler(func(string) error {
		s.extendReadDeadline(conn)
		return nil
	})

	for {
		var in Frame
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		s.metrics.RecordWSMessage("in", in.Type)

		switch in.Type {
		case FramePing:
			s.reply(client, Frame{Type: FramePong})
		case FrameMode:
			s.reply(client, modeFrame(sess, in.Mode))
		case FrameMessage:
			wg.Add(1)
			go func(text string) {
				defer wg.Done()
				s.answer(ctx, client, sess, text)
			}(in.Text)
		default:
			s.reply(client, Frame{Type: FrameError, Error: "unknown frame type " + in.Type, Code: "bad_request"})
		}
	}
}

func (s *Server) answer(ctx context.Context, client *wsClient, sess *session.Session, text string) {
	msg, err := sess.Submit(ctx, text)
	switch {
	case err == nil:
		s.reply(client, Frame{Type: FrameAnswer, Message: &msg, Degraded: sess.Degraded()})
	case errors.Is(err, advisor.ErrDiscarded):
		// Connection is gone; nobody to tell.
	case errors.Is(err, advisor.ErrBusy):
		s.reply(client, Frame{Type: FrameError, Error: err.Error(), Code: "busy"})
	case errors.Is(err, session.ErrEmptyMessage):
		s.reply(client, Frame{Type: FrameError, Error: err.Error(), Code: "bad_request"})
	case errors.Is(err, session.ErrClosed):
		s.reply(client, Frame{Type: FrameError, Error: err.Error(), Code: "closed"})
	default:
		s.reply(client, Frame{Type: FrameError, Error: "internal error", Code: "internal"})
	}
}

func modeFrame(sess *session.Session, requested domain.TopicalMode) Frame {
	mode, err := domain.ParseMode(string(requested))
	if err == nil {
		err = sess.SetMode(mode)
	}
	if err != nil {
		return Frame{Type: FrameError, Error: err.Error(), Code: "bad_request"}
	}
	return Frame{Type: FrameMode, Mode: mode}
}

func (s *Server) reply(client *wsClient, f Frame) {
	if err := client.send(f); err != nil {
		s.log.Debug("websocket write failed", zap.String("type", f.Type), zap.Error(err))
		return
	}
	s.metrics.RecordWSMessage("out", f.Type)
}

func (s *Server) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func (s *Server) extendReadDeadline(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(2 * s.pingInterval))
}
