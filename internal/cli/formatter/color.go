package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// ConfidenceStyle colors a 0-100 confidence score.
func ConfidenceStyle(confidence int) lipgloss.Style {
	switch {
	case confidence >= 90:
		return StyleGreen
	case confidence >= 80:
		return StyleYellow
	default:
		return StyleRed
	}
}

// SourceLabel names the tier that produced an answer.
func SourceLabel(src domain.AnswerSource) string {
	switch src {
	case domain.SourceRemote:
		return "Remote"
	case domain.SourceLocal:
		return "Local"
	default:
		return "Unknown"
	}
}

// SourceBadge returns a colored source indicator such as "● Remote".
func SourceBadge(src domain.AnswerSource) string {
	switch src {
	case domain.SourceRemote:
		return StylePurple.Render("● " + SourceLabel(src))
	case domain.SourceLocal:
		return StyleBlue.Render("● " + SourceLabel(src))
	default:
		return StyleDim.Render("● " + SourceLabel(src))
	}
}

// DegradedBadge is shown once the remote tier has been abandoned.
func DegradedBadge() string {
	return StyleYellow.Render("▲ OFFLINE MODE") + Dim(" (answers from local knowledge)")
}

// ModeBadge renders a topical mode label.
func ModeBadge(m domain.TopicalMode) string {
	return StylePurple.Render(m.Label())
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
