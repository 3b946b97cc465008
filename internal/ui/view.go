package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"nextui-updater/internal/state"
)

const (
	downgradeWarning = "WARNING\n" +
		"Downgrades are not fully supported by NextUI!\n" +
		"Some settings may be lost or unstable in old versions\n" +
		"Manual editing of settings or files may be required"

	rebootNotice      = "Update complete! Restart your device to finish."
	selectIndicator   = "[x] Select Version"
	noReleaseHeadline = "No release information available"

	percentageThreshold = 0.1
)

// titleFor returns the window title for the selector state.
func titleFor(snap state.Snapshot, version string) string {
	title := "NextUI Updater"
	if version != "" {
		title += " " + version
	}
	switch {
	case snap.MenuOpen && snap.Confirmed:
		return title + " Version Selector"
	case snap.MenuOpen:
		return title + " Version Selector Warning"
	default:
		return title
	}
}

// wrapTag decorates a tag name with arrows toward the entries that can be
// reached from the current selection: "<<" while older entries exist (left),
// ">>" while newer ones do (right).
func wrapTag(snap state.Snapshot, name string) string {
	tag := "NextUI " + name
	if !snap.MenuOpen {
		return tag
	}
	if !snap.IsOldestIndex() {
		tag = "<<     " + tag
	}
	if !snap.IsNewestIndex() {
		tag += "     >>"
	}
	return tag
}

// headline describes the target release relative to the installed build.
func headline(snap state.Snapshot) string {
	if snap.MenuOpen && !snap.Confirmed {
		return downgradeWarning
	}

	release, tag := snap.Target()
	switch {
	case snap.InstalledVersion != "" && tag != nil:
		name := wrapTag(snap, tag.Name)
		switch {
		case snap.TargetInstalled() && snap.MenuOpen:
			return fmt.Sprintf("Selected Version: %s\nThis version is currently already installed!", name)
		case snap.TargetInstalled():
			return "You currently have the latest available version:\n" + name
		case snap.MenuOpen:
			return "Selected Version: " + name
		default:
			return "New version available: " + name
		}
	case release != nil:
		if snap.MenuOpen {
			return "Selected Version: " + wrapTag(snap, release.TagName)
		}
		return "Latest version: NextUI " + release.TagName
	default:
		return noReleaseHeadline
	}
}

// renderButtons renders the action buttons, one per line.
func renderButtons(buttons []button, focus int, disabled bool) string {
	lines := make([]string, 0, len(buttons))
	for i, b := range buttons {
		style := styleButton
		switch {
		case disabled:
			style = styleButtonDisabled
		case i == focus:
			style = styleButtonFocused
		}
		lines = append(lines, style.Render(b.label))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

// View renders one frame from the last snapshot.
func (m *App) View() string {
	snap := m.snap
	width := m.layout.width

	var sections []string

	title := styleTitle.Render(titleFor(snap, m.version))
	if !snap.MenuOpen && !snap.InProgress() {
		indicator := styleIndicator.Render(selectIndicator)
		gap := width - lipgloss.Width(title) - lipgloss.Width(indicator)
		if gap >= 1 {
			title += strings.Repeat(" ", gap) + indicator
		}
	}
	sections = append(sections, title, "")

	text := headline(snap)
	if snap.MenuOpen && !snap.Confirmed {
		sections = append(sections, m.center(styleWarning.Render(text)))
	} else {
		sections = append(sections, m.center(styleHeadline.Render(text)))
	}
	sections = append(sections, "", m.center(renderButtons(m.buttons, m.focus, snap.InProgress())), "")

	if snap.Label != "" {
		sections = append(sections, m.center(styleOperation.Render(snap.Label)))
	}
	if snap.Error != "" {
		sections = append(sections, m.center(styleError.Render(snap.Error)))
	}
	if bar := m.renderProgress(snap.Progress); bar != "" {
		sections = append(sections, m.center(bar))
	}
	if snap.RebootRequired && !snap.InProgress() {
		sections = append(sections, m.center(styleDone.Render(rebootNotice)))
	}

	if notes := m.renderNotes(snap); notes != "" {
		sections = append(sections, "", notes)
	}

	body := strings.Join(sections, "\n")
	footer := m.renderFooter()
	hint := ""
	if snap.Hint != "" {
		hint = m.center(styleHint.Render(snap.Hint))
	}

	bottom := []string{hint, footer}
	used := lipgloss.Height(body) + len(bottom)
	if pad := m.layout.height - used; pad > 0 {
		body += strings.Repeat("\n", pad)
	}

	out := body + "\n" + strings.Join(bottom, "\n")
	return clipLines(out, width)
}

// renderProgress renders a spinner for indeterminate progress and a bar
// otherwise. The percentage is only shown once it fits inside the bar.
func (m *App) renderProgress(p state.Progress) string {
	switch p.Kind {
	case state.ProgressIndeterminate:
		return m.spinner.View()
	case state.ProgressDeterminate:
		bar := m.progress
		bar.ShowPercentage = p.Fraction > percentageThreshold
		return bar.ViewAs(p.Fraction)
	default:
		return ""
	}
}

func (m *App) center(s string) string {
	if m.layout.width <= 0 {
		return s
	}
	return lipgloss.PlaceHorizontal(m.layout.width, lipgloss.Center, s)
}

// clipLines truncates every line to width cells.
func clipLines(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if ansi.StringWidth(line) > width {
			lines[i] = ansi.Truncate(line, width, "…")
		}
	}
	return strings.Join(lines, "\n")
}
