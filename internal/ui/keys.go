package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts for the application. Handheld
// buttons arrive as the same keys: D-pad as arrows, B as enter, A as
// escape, Y as x.
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Older key.Binding
	Newer key.Binding

	Enter   key.Binding
	Back    key.Binding
	Select  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑↓", "Focus"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↑↓", "Focus"),
		),
		Older: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←→", "Version"),
		),
		Newer: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("←→", "Version"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("⏎", "Select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("Esc", "Back"),
		),
		Select: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Select Version"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Check"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
	}
}
