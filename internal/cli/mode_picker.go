package cli

import (
	"fmt"

	"github.com/alexanderramin/agriadvisor/internal/cli/formatter"
	"github.com/alexanderramin/agriadvisor/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// advisorHuhTheme returns a huh theme matching the formatter palette.
func advisorHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// modeForm builds the topical mode selector writing into value.
func modeForm(value *domain.TopicalMode) *huh.Form {
	options := make([]huh.Option[domain.TopicalMode], 0, len(domain.AllModes))
	for _, m := range domain.AllModes {
		options = append(options, huh.NewOption(m.Label(), m))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[domain.TopicalMode]().
				Title("What would you like to talk about?").
				Description("The mode shapes answers and follow-up suggestions. Change it later with /mode.").
				Options(options...).
				Value(value),
		),
	).WithTheme(advisorHuhTheme()).WithShowHelp(false)
}

func pickModeForm() (domain.TopicalMode, error) {
	mode := domain.ModeGeneral
	if err := modeForm(&mode).Run(); err != nil {
		return "", fmt.Errorf("choosing mode: %w", err)
	}
	return mode, nil
}
