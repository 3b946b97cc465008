package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

var (
	cPurple     = lipgloss.Color("99")
	cRed        = lipgloss.Color("210")
	cGold       = lipgloss.Color("220")
	cNeonGreen  = lipgloss.Color("118")
	cGray       = lipgloss.Color("240")
	cBrightGray = lipgloss.Color("246")
	cWhite      = lipgloss.Color("255")
	cHighlight  = lipgloss.Color("57")

	styleTitle = lipgloss.NewStyle().Foreground(cBrightGray)

	styleHeadline = lipgloss.NewStyle().Foreground(cWhite).Bold(true)

	styleWarning = lipgloss.NewStyle().Foreground(cGold)

	styleButton = lipgloss.NewStyle().
			Foreground(cWhite).
			Padding(0, 2)

	styleButtonFocused = lipgloss.NewStyle().
				Background(cHighlight).
				Foreground(cWhite).
				Bold(true).
				Padding(0, 2)

	styleButtonDisabled = lipgloss.NewStyle().
				Foreground(cGray).
				Padding(0, 2)

	styleOperation = lipgloss.NewStyle().Foreground(cBrightGray)

	styleError = lipgloss.NewStyle().Foreground(cRed)

	styleDone = lipgloss.NewStyle().Foreground(cNeonGreen).Bold(true)

	styleHint = lipgloss.NewStyle().Foreground(cWhite).Italic(true)

	styleIndicator = lipgloss.NewStyle().Foreground(cGray)

	styleNotes = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(cGray)

	// Footer bar styles
	styleKeyPill = lipgloss.NewStyle().
			Background(cPurple).
			Foreground(cWhite).
			Bold(true)

	styleKeyDesc = lipgloss.NewStyle().
			Foreground(cBrightGray)

	styleFooterMuted = lipgloss.NewStyle().
				Foreground(cBrightGray)
)

// buildMarkdownRenderer returns a release-notes renderer for the given
// glamour style. "plain", or a renderer that fails to build, falls back to
// word wrapping.
func buildMarkdownRenderer(format string, width int) func(string) string {
	fallback := func(input string) string {
		return wordwrap.String(input, width)
	}

	style := strings.ToLower(strings.TrimSpace(format))
	if style == "" || style == "rich" {
		style = "dark"
	}
	if style == "plain" {
		return fallback
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fallback
	}
	return func(input string) string {
		out, err := renderer.Render(input)
		if err != nil {
			return fallback(input)
		}
		return strings.TrimSpace(out)
	}
}
