package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// frameMsg drives one read of the shared store.
type frameMsg struct{}

// scheduleFrame bounds how long the loop waits without input before the
// next store read.
func scheduleFrame(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = defaultFrameInterval
	}
	return tea.Tick(interval, func(time.Time) tea.Msg { return frameMsg{} })
}
