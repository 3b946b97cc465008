// Package ui renders the updater with Bubble Tea. Every frame reads a
// snapshot of the shared store; input is turned into non-blocking calls on
// the navigation controller and the update pipeline.
package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"nextui-updater/internal/state"
	"nextui-updater/internal/update"
)

const (
	defaultFrameInterval = 50 * time.Millisecond
	defaultWidth         = 80
	defaultHeight        = 24
	minNotesHeight       = 3
	chromeHeight         = 16
)

// Navigator handles version-selector input.
type Navigator interface {
	Open() bool
	AcceptWarning() bool
	Back() bool
	Quit() bool
	NavigateOlder() bool
	NavigateNewer() bool
	ForgetCurrentTag()
}

// Updater starts update attempts.
type Updater interface {
	Start(mode update.Mode) bool
}

// Config configures the UI application.
type Config struct {
	Store     *state.Store
	Navigator Navigator
	Updater   Updater
	// Refresh re-checks the latest release in the background. Optional.
	Refresh       func()
	FrameInterval time.Duration
	NotesStyle    string
	Version       string
	Repo          string
}

// layout holds sizes derived from the terminal window.
type layout struct {
	width       int
	height      int
	notesHeight int
}

func newLayout(width, height int) layout {
	l := layout{width: width, height: height}
	if notes := height - chromeHeight; notes >= minNotesHeight {
		l.notesHeight = notes
	}
	return l
}

// App implements the Bubble Tea model for the updater.
type App struct {
	store   *state.Store
	nav     Navigator
	updater Updater
	refresh func()

	keys     KeyMap
	spinner  spinner.Model
	progress progress.Model

	frameInterval time.Duration
	notesStyle    string
	version       string
	repo          string

	layout layout
	snap   state.Snapshot

	buttons   []button
	buttonSet string
	focus     int

	notes notesCache
}

// NewApp creates the UI model.
func NewApp(cfg Config) *App {
	interval := cfg.FrameInterval
	if interval <= 0 {
		interval = defaultFrameInterval
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleOperation

	m := &App{
		store:         cfg.Store,
		nav:           cfg.Navigator,
		updater:       cfg.Updater,
		refresh:       cfg.Refresh,
		keys:          DefaultKeyMap(),
		spinner:       sp,
		progress:      progress.New(progress.WithDefaultGradient()),
		frameInterval: interval,
		notesStyle:    cfg.NotesStyle,
		version:       cfg.Version,
		repo:          cfg.Repo,
	}
	m.resize(defaultWidth, defaultHeight)
	m.sync()
	return m
}

// Init starts the frame loop and the spinner.
func (m *App) Init() tea.Cmd {
	return tea.Batch(scheduleFrame(m.frameInterval), m.spinner.Tick)
}

// Update handles one message.
func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.sync()
		if m.snap.ShouldQuit {
			return m, tea.Quit
		}
		return m, scheduleFrame(m.frameInterval)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		m.handleKey(msg)
		m.sync()
		if m.snap.ShouldQuit {
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m *App) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.layout = newLayout(width, height)
	barWidth := width / 2
	if barWidth < 10 {
		barWidth = 10
	}
	m.progress.Width = barWidth
}

// handleKey maps a key to a controller or pipeline call. While an
// operation runs only quit requests get through, and the store refuses
// those.
func (m *App) handleKey(msg tea.KeyMsg) {
	busy := m.store.InProgress()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.nav.Quit()
	case key.Matches(msg, m.keys.Back):
		if busy {
			m.nav.Quit()
			return
		}
		m.nav.Back()
	case busy:
		return
	case key.Matches(msg, m.keys.Up):
		m.moveFocus(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveFocus(1)
	case key.Matches(msg, m.keys.Older):
		m.nav.NavigateOlder()
	case key.Matches(msg, m.keys.Newer):
		m.nav.NavigateNewer()
	case key.Matches(msg, m.keys.Select):
		m.nav.Open()
	case key.Matches(msg, m.keys.Refresh):
		if m.refresh != nil && !m.store.ReleaseSelectionMenu() {
			m.refresh()
		}
	case key.Matches(msg, m.keys.Enter):
		m.activate()
	}
}

func (m *App) moveFocus(delta int) {
	n := len(m.buttons)
	if n == 0 {
		return
	}
	m.focus = (m.focus + delta + n) % n
}

// activate runs the focused button.
func (m *App) activate() {
	if m.focus < 0 || m.focus >= len(m.buttons) {
		return
	}
	switch m.buttons[m.focus].id {
	case btnQuickUpdate:
		m.updater.Start(update.ModeQuick)
	case btnFullUpdate:
		m.updater.Start(update.ModeFull)
	case btnUpdateAnyway:
		m.nav.ForgetCurrentTag()
	case btnQuit, btnReturn:
		m.nav.Back()
	case btnAcceptWarning:
		m.nav.AcceptWarning()
	}
}

// sync takes a fresh snapshot and rebuilds the buttons. Focus returns to
// the first button whenever the offered set changes, and the focused
// button's hint is published to the store.
func (m *App) sync() {
	m.snap = m.store.Snapshot()

	buttons := buttonsFor(m.snap)
	if setKey := buttonSetKey(buttons); setKey != m.buttonSet {
		m.buttonSet = setKey
		m.focus = 0
	}
	m.buttons = buttons
	if m.focus >= len(buttons) {
		m.focus = 0
	}

	hint := ""
	if !m.snap.InProgress() && len(buttons) > 0 {
		hint = buttons[m.focus].hint
	}
	if hint != m.snap.Hint {
		m.store.SetHint(hint)
		m.snap.Hint = hint
	}
}
