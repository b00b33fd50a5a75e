package domain

import (
	"slices"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation. Messages are never mutated once
// appended to a session.
type Message struct {
	ID          string       `json:"id"`
	Role        Role         `json:"role"`
	Text        string       `json:"text"`
	CreatedAt   time.Time    `json:"created_at"`
	Mode        TopicalMode  `json:"mode"`
	Suggestions []string     `json:"suggestions,omitempty"`
	Confidence  *int         `json:"confidence,omitempty"`
	Source      AnswerSource `json:"source,omitempty"`
}

// Clone returns a deep copy so callers cannot reach into session history.
func (m Message) Clone() Message {
	out := m
	out.Suggestions = slices.Clone(m.Suggestions)
	if m.Confidence != nil {
		c := *m.Confidence
		out.Confidence = &c
	}
	return out
}
