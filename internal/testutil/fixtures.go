package testutil

import (
	"fmt"
	"time"

	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/google/uuid"
)

// TranscriptOption customises NewTestTranscript.
type TranscriptOption func(*domain.Transcript)

func WithTranscriptMode(m domain.TopicalMode) TranscriptOption {
	return func(t *domain.Transcript) { t.Mode = m }
}

func WithStartedAt(ts time.Time) TranscriptOption {
	return func(t *domain.Transcript) {
		t.StartedAt = ts
		t.EndedAt = ts.Add(10 * time.Minute)
	}
}

func WithDegraded() TranscriptOption {
	return func(t *domain.Transcript) { t.Degraded = true }
}

// WithExchanges appends n user/assistant pairs.
func WithExchanges(n int) TranscriptOption {
	return func(t *domain.Transcript) {
		at := t.StartedAt
		for i := 0; i < n; i++ {
			at = at.Add(time.Second)
			t.Messages = append(t.Messages, NewTestUserMessage(fmt.Sprintf("question %d", i+1), t.Mode, at))
			at = at.Add(time.Second)
			t.Messages = append(t.Messages, NewTestAssistantMessage(fmt.Sprintf("answer %d", i+1), t.Mode, at))
		}
	}
}

// NewTestTranscript returns an empty general-mode transcript with a random id.
func NewTestTranscript(opts ...TranscriptOption) *domain.Transcript {
	start := time.Date(2025, 4, 10, 8, 0, 0, 0, time.UTC)
	t := &domain.Transcript{
		SessionID: uuid.NewString(),
		StartedAt: start,
		EndedAt:   start.Add(10 * time.Minute),
		Mode:      domain.ModeGeneral,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func NewTestUserMessage(text string, mode domain.TopicalMode, at time.Time) domain.Message {
	return domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Text:      text,
		CreatedAt: at,
		Mode:      mode,
	}
}

func NewTestAssistantMessage(text string, mode domain.TopicalMode, at time.Time) domain.Message {
	conf := 90
	return domain.Message{
		ID:          uuid.NewString(),
		Role:        domain.RoleAssistant,
		Text:        text,
		CreatedAt:   at,
		Mode:        mode,
		Suggestions: []string{"one", "two", "three"},
		Confidence:  &conf,
		Source:      domain.SourceLocal,
	}
}
