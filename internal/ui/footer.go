package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nextui-updater/internal/navigation"
)

// footerHint defines a key hint for the footer bar.
type footerHint struct {
	key  string
	desc string
}

var closedFooterHints = []footerHint{
	{"⏎", "Select"},
	{"x", "Versions"},
	{"r", "Check"},
	{"Esc", "Quit"},
}

var warningFooterHints = []footerHint{
	{"⏎", "Select"},
	{"Esc", "Back"},
}

var selectorFooterHints = []footerHint{
	{"←→", "Version"},
	{"⏎", "Select"},
	{"Esc", "Back"},
}

// renderFooter renders the key hints for the current selector state with
// the repository on the right.
func (m *App) renderFooter() string {
	var hints []footerHint
	switch navigation.StateOf(m.snap) {
	case navigation.OpenUnconfirmed:
		hints = warningFooterHints
	case navigation.OpenConfirmed:
		hints = selectorFooterHints
	default:
		hints = closedFooterHints
	}

	right := ""
	if m.repo != "" {
		right = styleFooterMuted.Render(m.repo)
	}
	rightWidth := lipgloss.Width(right)
	hints = trimHintsToFit(hints, m.layout.width-rightWidth-2)

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, keyPill(h.key, h.desc))
	}
	left := strings.Join(parts, "  ")

	spacing := m.layout.width - lipgloss.Width(left) - rightWidth
	if spacing < 2 {
		spacing = 2
	}
	return left + strings.Repeat(" ", spacing) + right
}

// keyPill renders a single key hint as a pill with description.
func keyPill(key, desc string) string {
	return styleKeyPill.Render(" "+key+" ") + " " + styleKeyDesc.Render(desc)
}

// trimHintsToFit drops hints from the end until they fit.
func trimHintsToFit(hints []footerHint, availableWidth int) []footerHint {
	for len(hints) > 0 && renderHintsWidth(hints) > availableWidth {
		hints = hints[:len(hints)-1]
	}
	return hints
}

// renderHintsWidth calculates the visual width of rendered hints.
func renderHintsWidth(hints []footerHint) int {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, keyPill(h.key, h.desc))
	}
	return lipgloss.Width(strings.Join(parts, "  "))
}
