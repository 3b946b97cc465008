package ui

import "nextui-updater/internal/state"

// buttonID identifies an on-screen action.
type buttonID int

const (
	btnQuickUpdate buttonID = iota
	btnFullUpdate
	btnUpdateAnyway
	btnQuit
	btnReturn
	btnAcceptWarning
)

// button is a focusable action with the hint shown while it has focus.
type button struct {
	id    buttonID
	label string
	hint  string
}

// Button hints.
const (
	hintQuick         = "Update MinUI.zip only"
	hintFull          = "Extract full zip files (base + extras)"
	hintUpdateAnyway  = "Ignore current version"
	hintQuit          = "Quit NextUI Updater"
	hintReturn        = "Return to Latest Version options"
	hintAcceptWarning = "Confirm warning and open update options"
)

// buttonsFor returns the actions offered for a snapshot, in focus order.
func buttonsFor(snap state.Snapshot) []button {
	switch {
	case snap.MenuOpen && !snap.Confirmed:
		return []button{
			{btnReturn, "Return", hintReturn},
			{btnAcceptWarning, "Accept Warning", hintAcceptWarning},
		}
	case snap.UpdateAvailable():
		return []button{
			{btnQuickUpdate, "Quick Update", hintQuick},
			{btnFullUpdate, "Full Update", hintFull},
		}
	default:
		quitHint := hintQuit
		if snap.MenuOpen {
			quitHint = hintReturn
		}
		return []button{
			{btnUpdateAnyway, "Update anyway", hintUpdateAnyway},
			{btnQuit, "Quit", quitHint},
		}
	}
}

// buttonSetKey identifies a button set so focus can reset when it changes.
func buttonSetKey(buttons []button) string {
	key := make([]byte, 0, len(buttons))
	for _, b := range buttons {
		key = append(key, byte('a'+b.id))
	}
	return string(key)
}
