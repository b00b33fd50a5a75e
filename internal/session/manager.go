package session

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/alexanderramin/agriadvisor/internal/advisor"
	"github.com/alexanderramin/agriadvisor/internal/domain"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// OrchestratorFactory builds the orchestrator for a new session. Each
// session gets its own so the degraded flag is never shared.
type OrchestratorFactory func() *advisor.Orchestrator

// Manager keeps live sessions by id.
type Manager struct {
	factory OrchestratorFactory
	opts    []Option

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns an empty Manager. opts apply to every created session.
func NewManager(factory OrchestratorFactory, opts ...Option) *Manager {
	return &Manager{
		factory:  factory,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session in mode.
func (m *Manager) Create(mode domain.TopicalMode) (*Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMode, mode)
	}
	opts := append(slices.Clone(m.opts), WithMode(mode))
	s := New(m.factory(), opts...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete closes and removes the session and returns it so the caller can
// archive it. A session with a pending submit is left in place and
// advisor.ErrBusy is returned.
func (m *Manager) Delete(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := s.Close(); err != nil {
		return nil, err
	}
	delete(m.sessions, id)
	return s, nil
}

// Drain closes and removes every session, pending or not, oldest first.
func (m *Manager) Drain() []*Session {
	m.mu.Lock()
	out := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		s.forceClose()
		out = append(out, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	sortOldestFirst(out)
	return out
}

// List returns live sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sortOldestFirst(out)
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func sortOldestFirst(out []*Session) {
	slices.SortFunc(out, func(a, b *Session) int {
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return strings.Compare(a.ID(), b.ID())
	})
}
