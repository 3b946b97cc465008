package ui

import (
	"strings"

	"nextui-updater/internal/state"
)

// notesCache holds the last rendered release notes.
type notesCache struct {
	tag    string
	width  int
	output string
}

// renderNotes renders the target release's notes, clipped to the space
// left by the layout. Rendering is cached per tag and width since glamour
// is far too slow to run every frame.
func (m *App) renderNotes(snap state.Snapshot) string {
	if m.layout.notesHeight <= 0 || (snap.MenuOpen && !snap.Confirmed) {
		return ""
	}
	release, _ := snap.Target()
	if release == nil || strings.TrimSpace(release.Body) == "" {
		return ""
	}

	width := m.layout.width - 2
	if width < 20 {
		width = 20
	}
	if m.notes.tag != release.TagName || m.notes.width != width {
		render := buildMarkdownRenderer(m.notesStyle, width)
		m.notes = notesCache{tag: release.TagName, width: width, output: render(release.Body)}
	}

	lines := strings.Split(m.notes.output, "\n")
	if len(lines) > m.layout.notesHeight {
		lines = lines[:m.layout.notesHeight]
	}
	return styleNotes.Render(strings.Join(lines, "\n"))
}
