// Package navigation interprets version-selector input against the shared
// store: opening and closing the selector, accepting the downgrade warning
// and moving through the release catalog.
package navigation

import (
	"context"

	"go.uber.org/zap"

	"nextui-updater/internal/debug"
	"nextui-updater/internal/state"
	"nextui-updater/internal/worker"
)

// State is the selector state derived from the store.
type State int

const (
	// Closed shows the latest release.
	Closed State = iota
	// OpenUnconfirmed shows the downgrade warning.
	OpenUnconfirmed
	// OpenConfirmed allows moving through the catalog.
	OpenConfirmed
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case OpenUnconfirmed:
		return "open-unconfirmed"
	case OpenConfirmed:
		return "open-confirmed"
	default:
		return "unknown"
	}
}

// Dispatcher runs tasks off the frame loop.
type Dispatcher interface {
	Submit(name string, task worker.Task) bool
}

// CatalogRefresher reloads the release catalog into the store.
type CatalogRefresher interface {
	RefreshCatalog(ctx context.Context) bool
}

// Controller applies navigation events. Every method returns immediately.
type Controller struct {
	store      *state.Store
	dispatcher Dispatcher
	refresher  CatalogRefresher
	log        *zap.SugaredLogger
}

// New creates a controller. refresher may be nil, in which case opening the
// selector keeps whatever catalog the store already holds.
func New(store *state.Store, dispatcher Dispatcher, refresher CatalogRefresher) *Controller {
	return &Controller{
		store:      store,
		dispatcher: dispatcher,
		refresher:  refresher,
		log:        debug.L("navigation"),
	}
}

// State returns the current selector state.
func (c *Controller) State() State {
	return StateOf(c.store.Snapshot())
}

// StateOf derives the selector state from a snapshot.
func StateOf(snap state.Snapshot) State {
	switch {
	case !snap.MenuOpen:
		return Closed
	case !snap.Confirmed:
		return OpenUnconfirmed
	default:
		return OpenConfirmed
	}
}

// Open moves Closed to OpenUnconfirmed, selecting the newest entry and
// reloading the catalog in the background. It is ignored while an
// operation runs or when the selector is already open.
func (c *Controller) Open() bool {
	if c.store.InProgress() {
		return false
	}
	if !c.store.SetReleaseSelectionMenu(true) {
		return false
	}
	c.log.Debug("version selector opened")

	if c.refresher != nil && c.dispatcher != nil {
		if !c.dispatcher.Submit("refresh catalog", func(ctx context.Context) {
			c.refresher.RefreshCatalog(ctx)
		}) {
			c.log.Warn("catalog refresh not dispatched")
		}
	}
	return true
}

// AcceptWarning moves OpenUnconfirmed to OpenConfirmed.
func (c *Controller) AcceptWarning() bool {
	if c.State() != OpenUnconfirmed {
		return false
	}
	return c.store.SetReleaseSelectionConfirmed(true)
}

// Back closes the selector from either open state. When already closed it
// requests quit, which the store refuses while an operation runs. It
// reports whether anything changed.
func (c *Controller) Back() bool {
	if c.store.SetReleaseSelectionMenu(false) {
		c.log.Debug("version selector closed")
		return true
	}
	return c.Quit()
}

// Quit requests the frame loop to stop. It is refused while an operation runs.
func (c *Controller) Quit() bool {
	if !c.store.RequestQuit() {
		c.log.Debug("quit refused, operation in progress")
		return false
	}
	return true
}

// NavigateOlder selects the next older entry. Only effective in
// OpenConfirmed; the oldest entry is a hard stop.
func (c *Controller) NavigateOlder() bool {
	return c.store.MoveSelection(1)
}

// NavigateNewer selects the next newer entry. Only effective in
// OpenConfirmed; the newest entry is a hard stop.
func (c *Controller) NavigateNewer() bool {
	return c.store.MoveSelection(-1)
}

// ForgetCurrentTag drops the latest tag so the installed version is offered
// for update again.
func (c *Controller) ForgetCurrentTag() {
	c.store.SetLatestTag(nil)
	c.log.Debug("current tag forgotten")
}
