package domain

import "slices"

type AnswerSource string

const (
	SourceRemote AnswerSource = "remote"
	SourceLocal  AnswerSource = "local"
)

// Suggestion list bounds for every ResolvedAnswer.
const (
	MinSuggestions = 3
	MaxSuggestions = 6
)

// ResolvedAnswer is the single output shape of both generation tiers.
// Source is informational only.
type ResolvedAnswer struct {
	Content     string       `json:"content"`
	Confidence  int          `json:"confidence"`
	Suggestions []string     `json:"suggestions"`
	Mode        TopicalMode  `json:"mode"`
	Source      AnswerSource `json:"source"`
}

// Clone returns a copy with its own suggestion slice.
func (a ResolvedAnswer) Clone() ResolvedAnswer {
	a.Suggestions = slices.Clone(a.Suggestions)
	return a
}

// ClampConfidence bounds c to [lo, hi].
func ClampConfidence(c, lo, hi int) int {
	if c < lo {
		return lo
	}
	if c > hi {
		return hi
	}
	return c
}
