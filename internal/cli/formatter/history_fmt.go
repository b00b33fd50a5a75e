package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/agriadvisor/internal/domain"
)

// FormatTranscriptList renders archived sessions as a table.
func FormatTranscriptList(items []domain.TranscriptSummary, now time.Time) string {
	if len(items) == 0 {
		return Dim("No archived conversations yet.") + "\n"
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		status := StyleGreen.Render("online")
		if it.Degraded {
			status = StyleYellow.Render("offline")
		}
		rows = append(rows, []string{
			it.SessionID,
			HumanTimestampFrom(it.StartedAt, now),
			it.Mode.Label(),
			fmt.Sprintf("%d", it.MessageCount),
			status,
		})
	}
	return RenderTable([]string{"SESSION", "STARTED", "MODE", "MESSAGES", "REMOTE"}, rows)
}

// FormatTranscript renders one archived conversation.
func FormatTranscript(t *domain.Transcript) string {
	var b strings.Builder
	// Session ids are case-sensitive, so only the label goes through Header.
	b.WriteString(StyleHeader.Render("CONVERSATION") + " " + t.SessionID)
	b.WriteString("\n")
	b.WriteString(Dim(fmt.Sprintf("%s to %s, %d messages",
		t.StartedAt.Local().Format("Jan 2 15:04"), t.EndedAt.Local().Format("15:04"), len(t.Messages))))
	b.WriteString("\n\n")

	for _, m := range t.Messages {
		ts := Dim(m.CreatedAt.Local().Format("15:04:05"))
		switch m.Role {
		case domain.RoleUser:
			fmt.Fprintf(&b, "%s %s %s\n", ts, StyleGreen.Render("You"), m.Text)
		default:
			fmt.Fprintf(&b, "%s %s %s\n", ts, StylePurple.Render("Advisor"), Dim(answerFooter(m)))
			b.WriteString(indentWrapped(renderInlineMarkdown(m.Text), 2, answerWrapWidth))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if t.Degraded {
		b.WriteString(DegradedBadge() + "\n")
	}
	return b.String()
}
