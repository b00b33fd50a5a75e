package formatter

import (
	"testing"
	"time"

	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFormatTranscriptList(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	out := FormatTranscriptList([]domain.TranscriptSummary{
		{SessionID: "s-1", StartedAt: now.Add(-2 * time.Hour), Mode: domain.ModeWeather, MessageCount: 4},
		{SessionID: "s-2", StartedAt: now.Add(-72 * time.Hour), Mode: domain.ModeMarket, MessageCount: 2, Degraded: true},
	}, now)

	assert.Contains(t, out, "SESSION")
	assert.Contains(t, out, "s-1")
	assert.Contains(t, out, "2h ago")
	assert.Contains(t, out, "Weather")
	assert.Contains(t, out, "offline")
	assert.Contains(t, out, "online")

	assert.Contains(t, FormatTranscriptList(nil, now), "No archived conversations")
}

func TestFormatTranscript(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	conf := 88
	tr := &domain.Transcript{
		SessionID: "abc",
		StartedAt: start,
		EndedAt:   start.Add(5 * time.Minute),
		Mode:      domain.ModeMarket,
		Degraded:  true,
		Messages: []domain.Message{
			{Role: domain.RoleUser, Text: "wheat price?", CreatedAt: start.Add(time.Minute), Mode: domain.ModeMarket},
			{Role: domain.RoleAssistant, Text: "**Market Price Update**", CreatedAt: start.Add(2 * time.Minute),
				Mode: domain.ModeMarket, Confidence: &conf, Source: domain.SourceLocal},
		},
	}

	out := FormatTranscript(tr)
	assert.Contains(t, out, "CONVERSATION abc")
	assert.Contains(t, out, "wheat price?")
	assert.Contains(t, out, "Market Price Update")
	assert.Contains(t, out, "[Local | Market | Confidence: 88%]")
	assert.Contains(t, out, "OFFLINE MODE")
}
