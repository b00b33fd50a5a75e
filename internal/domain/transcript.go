package domain

import "time"

// Transcript is a closed conversation as stored in the archive.
type Transcript struct {
	SessionID string      `json:"session_id"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   time.Time   `json:"ended_at"`
	Mode      TopicalMode `json:"mode"`
	Degraded  bool        `json:"degraded"`
	Messages  []Message   `json:"messages,omitempty"`
}

// TranscriptSummary is a Transcript without its messages.
type TranscriptSummary struct {
	SessionID    string      `json:"session_id"`
	StartedAt    time.Time   `json:"started_at"`
	EndedAt      time.Time   `json:"ended_at"`
	Mode         TopicalMode `json:"mode"`
	Degraded     bool        `json:"degraded"`
	MessageCount int         `json:"message_count"`
}
