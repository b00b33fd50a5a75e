// Package session holds one advisory conversation: its ordered history, the
// active topical mode and the orchestrator whose degraded flag it reports.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/agriadvisor/internal/advisor"
	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/google/uuid"
)

var (
	// ErrEmptyMessage rejects a submit with no visible text.
	ErrEmptyMessage = errors.New("message text is empty")

	// ErrClosed rejects a submit to a session that has been ended.
	ErrClosed = errors.New("session is closed")
)

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator overrides message and session id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

// WithMode sets the initial topical mode.
func WithMode(m domain.TopicalMode) Option {
	return func(s *Session) { s.mode = m }
}

// Session is safe for concurrent use. Submits do not queue: a second
// submit while one is pending fails with advisor.ErrBusy.
type Session struct {
	id        string
	createdAt time.Time
	now       func() time.Time
	newID     func() string
	orch      *advisor.Orchestrator

	mu      sync.Mutex
	mode    domain.TopicalMode
	history []domain.Message
	pending bool
	closed  bool
}

// New starts a conversation in general mode over orch.
func New(orch *advisor.Orchestrator, opts ...Option) *Session {
	s := &Session{
		now:   time.Now,
		newID: uuid.NewString,
		orch:  orch,
		mode:  domain.ModeGeneral,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.id = s.newID()
	s.createdAt = s.now()
	return s
}

func (s *Session) ID() string           { return s.id }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Degraded reports whether answers now come only from the local tier.
func (s *Session) Degraded() bool { return s.orch.Degraded() }

// RemoteEnabled reports whether a remote tier was configured.
func (s *Session) RemoteEnabled() bool { return s.orch.RemoteEnabled() }

func (s *Session) Mode() domain.TopicalMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode changes the active mode. It applies to the next submit.
func (s *Session) SetMode(m domain.TopicalMode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownMode, m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	return nil
}

// Pending reports whether a submit is in flight.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Close ends the session so the history is final. It fails with
// advisor.ErrBusy while a submit is pending. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return advisor.ErrBusy
	}
	s.closed = true
	return nil
}

// forceClose ends the session even with a submit in flight.
func (s *Session) forceClose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// History returns a copy of the messages in append order.
func (s *Session) History() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.history))
	for i, m := range s.history {
		out[i] = m.Clone()
	}
	return out
}

// Len returns the number of messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Submit appends text as a user message, resolves it in the active mode and
// appends the assistant answer. If ctx ends while the remote tier is pending
// the user message stays and advisor.ErrDiscarded is returned.
func (s *Session) Submit(ctx context.Context, text string) (domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Message{}, ErrClosed
	}
	if s.pending {
		s.mu.Unlock()
		return domain.Message{}, advisor.ErrBusy
	}
	s.pending = true
	mode := s.mode
	s.history = append(s.history, domain.Message{
		ID:        s.newID(),
		Role:      domain.RoleUser,
		Text:      text,
		CreatedAt: s.now(),
		Mode:      mode,
	})
	s.mu.Unlock()

	ans, err := s.orch.Submit(ctx, text, mode)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	if err != nil {
		return domain.Message{}, err
	}

	conf := ans.Confidence
	msg := domain.Message{
		ID:          s.newID(),
		Role:        domain.RoleAssistant,
		Text:        ans.Content,
		CreatedAt:   s.now(),
		Mode:        ans.Mode,
		Suggestions: ans.Suggestions,
		Confidence:  &conf,
		Source:      ans.Source,
	}
	s.history = append(s.history, msg)
	return msg.Clone(), nil
}

// Transcript captures the conversation for archiving.
func (s *Session) Transcript() domain.Transcript {
	history := s.History()
	return domain.Transcript{
		SessionID: s.id,
		StartedAt: s.createdAt,
		EndedAt:   s.now(),
		Mode:      s.Mode(),
		Degraded:  s.Degraded(),
		Messages:  history,
	}
}
