package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const answerWrapWidth = 88

// FormatAnswer renders an assistant message for the terminal.
func FormatAnswer(msg domain.Message, degraded bool) string {
	var b strings.Builder

	b.WriteString(indentWrapped(renderInlineMarkdown(msg.Text), 2, answerWrapWidth))
	b.WriteString("\n")

	if len(msg.Suggestions) > 0 {
		b.WriteString("\n")
		b.WriteString(Header("Try Next"))
		b.WriteString("\n")
		for _, s := range msg.Suggestions {
			b.WriteString(fmt.Sprintf("  %s\n", StyleBlue.Render("› "+s)))
		}
	}

	b.WriteString("\n  ")
	b.WriteString(Dim(answerFooter(msg)))
	b.WriteString("\n")
	if degraded {
		b.WriteString("  ")
		b.WriteString(DegradedBadge())
		b.WriteString("\n")
	}

	return RenderBox(msg.Mode.Label(), b.String())
}

// FormatAnswerPlain renders an assistant message without styling, for
// non-terminal output.
func FormatAnswerPlain(msg domain.Message, degraded bool) string {
	var b strings.Builder
	b.WriteString(msg.Text)
	b.WriteString("\n")
	if len(msg.Suggestions) > 0 {
		b.WriteString("\nTry next:\n")
		for _, s := range msg.Suggestions {
			b.WriteString("  - " + s + "\n")
		}
	}
	b.WriteString("\n" + answerFooter(msg) + "\n")
	if degraded {
		b.WriteString("[offline mode: answers from local knowledge]\n")
	}
	return b.String()
}

func answerFooter(msg domain.Message) string {
	footer := fmt.Sprintf("[%s | %s", SourceLabel(msg.Source), msg.Mode.Label())
	if msg.Confidence != nil {
		footer += fmt.Sprintf(" | Confidence: %d%%", *msg.Confidence)
	}
	return footer + "]"
}

// FormatUserLine renders the echo of a user turn.
func FormatUserLine(text string) string {
	return Dim("You: ") + text
}

// FormatChatWelcome renders the banner for interactive chat.
func FormatChatWelcome(mode domain.TopicalMode, remoteEnabled bool) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(StylePurple.Render("  agriadvisor") + StyleDim.Render(" farm assistant"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("  ─────────────────────────────") + "\n\n")
	b.WriteString(StyleDim.Render("  Ask about crops, weather, prices, sensors or pests.") + "\n")
	b.WriteString(StyleDim.Render("  Mode: ") + ModeBadge(mode) + "\n")
	if !remoteEnabled {
		b.WriteString(StyleDim.Render("  Remote model not configured; using local knowledge.") + "\n")
	}
	b.WriteString(StyleDim.Render("  Commands: /mode <name>, /modes, /history, /quit") + "\n\n")
	return b.String()
}

// FormatModeList renders the available modes, marking the active one.
func FormatModeList(active domain.TopicalMode) string {
	rows := make([][]string, 0, len(domain.AllModes))
	for _, m := range domain.AllModes {
		marker := " "
		if m == active {
			marker = StyleGreen.Render("●")
		}
		rows = append(rows, []string{marker, string(m), m.Label()})
	}
	return RenderTable([]string{"", "MODE", "LABEL"}, rows)
}

// FormatModeCatalog renders every mode with its follow-up suggestions.
func FormatModeCatalog(suggestions func(domain.TopicalMode) []string) string {
	var b strings.Builder
	for i, m := range domain.AllModes {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s\n", Bold(m.Label()), Dim("("+string(m)+")"))
		for _, s := range suggestions(m) {
			fmt.Fprintf(&b, "  %s\n", StyleBlue.Render("› "+s))
		}
	}
	return b.String()
}

// renderInlineMarkdown styles **bold** spans and drops the markers.
func renderInlineMarkdown(text string) string {
	var b strings.Builder
	for {
		start := strings.Index(text, "**")
		if start < 0 {
			break
		}
		end := strings.Index(text[start+2:], "**")
		if end < 0 {
			break
		}
		b.WriteString(text[:start])
		b.WriteString(StyleBold.Render(text[start+2 : start+2+end]))
		text = text[start+2+end+2:]
	}
	b.WriteString(text)
	return b.String()
}

func indentWrapped(text string, indent, width int) string {
	prefix := strings.Repeat(" ", indent)
	lines := strings.Split(wrapText(text, width), "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(line)
	}
	return b.String()
}

// wrapText wraps on visible width, keeping list indentation.
func wrapText(text string, width int) string {
	if width <= 0 {
		return strings.TrimSpace(text)
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			out = append(out, "")
			continue
		}
		lead := trimmed[:len(trimmed)-len(strings.TrimLeft(trimmed, " \t"))]
		words := strings.Fields(trimmed)

		current := lead + words[0]
		for _, word := range words[1:] {
			if lipgloss.Width(current)+1+lipgloss.Width(word) <= width {
				current += " " + word
				continue
			}
			out = append(out, current)
			current = lead + "  " + word
		}
		out = append(out, current)
	}
	return strings.Join(out, "\n")
}
