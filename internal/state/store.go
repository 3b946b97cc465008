// Package state holds the shared, lock-protected record observed by the
// display loop and mutated by background tasks.
//
// Every field is independently readable and writable. Readers may observe a
// combination of two fields written by two separate calls in either order;
// the display loop tolerates one frame of staleness. The only grouped
// transitions are the ones that guard invariants: the operation gate
// (TryBeginOperation/FinishOperation), menu open/close, and selection moves.
//
// Releases, tags and catalog entries handed out by the store are shared and
// must be treated as read-only.
package state

import "sync"

// Store is the single source of truth shared between the display loop and
// background work. Construct it with New and pass it by pointer.
type Store struct {
	installed string

	mu sync.RWMutex

	label    string
	progress Progress
	errMsg   string
	hint     string

	shouldQuit     bool
	rebootRequired bool
	submenu        Submenu

	menuOpen  bool
	confirmed bool

	latestRelease *Release
	latestTag     *Tag

	catalog []CatalogEntry
	index   int
}

// New creates a store for the given installed-version fingerprint.
func New(installed string) *Store {
	return &Store{installed: installed, submenu: SubmenuNextUI}
}

// InstalledVersion returns the fingerprint of the running build.
func (s *Store) InstalledVersion() string {
	return s.installed
}

// CurrentOperation returns the label of the running operation, or "".
func (s *Store) CurrentOperation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.label
}

// SetCurrentOperation replaces the operation label. Use TryBeginOperation to
// start an operation; this only relabels one that is already running.
func (s *Store) SetCurrentOperation(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = label
}

// InProgress reports whether a worker-driven operation is running.
func (s *Store) InProgress() bool {
	return s.CurrentOperation() != ""
}

func (s *Store) Progress() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

func (s *Store) SetProgress(p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = p
}

func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = msg
}

func (s *Store) Hint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hint
}

func (s *Store) SetHint(hint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hint = hint
}

// TryBeginOperation starts an operation if none is running. It sets the
// label, clears any previous error and sets indeterminate progress in one
// step. It returns false, changing nothing, when an operation is already in
// progress.
func (s *Store) TryBeginOperation(label string) bool {
	if label == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.label != "" {
		return false
	}
	s.label = label
	s.errMsg = ""
	s.progress = Indeterminate()
	return true
}

// FinishOperation ends the running operation. An empty errMsg means success.
func (s *Store) FinishOperation(errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = ""
	s.progress = Progress{}
	s.errMsg = errMsg
}

// ShouldQuit reports whether the display loop should stop.
func (s *Store) ShouldQuit() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shouldQuit
}

// SetShouldQuit raises the quit flag. The flag is one-way: false is ignored.
func (s *Store) SetShouldQuit(quit bool) {
	if !quit {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldQuit = true
}

// RequestQuit raises the quit flag unless an operation is writing in the
// background, in which case it returns false and leaves the flag alone.
func (s *Store) RequestQuit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.label != "" {
		return false
	}
	s.shouldQuit = true
	return true
}

func (s *Store) RebootRequired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rebootRequired
}

func (s *Store) SetRebootRequired(required bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebootRequired = required
}

func (s *Store) Submenu() Submenu {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submenu
}

func (s *Store) SetSubmenu(m Submenu) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submenu = m
}

// ReleaseSelectionMenu reports whether the version selector is open.
func (s *Store) ReleaseSelectionMenu() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.menuOpen
}

// SetReleaseSelectionMenu opens or closes the version selector. Opening
// resets the index to the newest entry; both directions clear confirmation
// so the downgrade warning is shown again on the next open. It returns
// whether the state changed.
func (s *Store) SetReleaseSelectionMenu(open bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.menuOpen == open {
		return false
	}
	s.menuOpen = open
	s.confirmed = false
	if open {
		s.index = 0
	}
	return true
}

func (s *Store) ReleaseSelectionConfirmed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.confirmed
}

// SetReleaseSelectionConfirmed sets the confirmation flag. Confirmation is
// only possible while the selector is open; it returns whether the flag now
// holds the requested value.
func (s *Store) SetReleaseSelectionConfirmed(confirmed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if confirmed && !s.menuOpen {
		return false
	}
	s.confirmed = confirmed
	return true
}

func (s *Store) LatestRelease() *Release {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestRelease
}

func (s *Store) SetLatestRelease(r *Release) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestRelease = r
}

func (s *Store) LatestTag() *Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestTag
}

// SetLatestTag replaces the latest tag. Passing nil forgets it, which makes
// an already-installed version offered for update again.
func (s *Store) SetLatestTag(t *Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestTag = t
}

// SetLatest commits a freshly fetched release and tag together.
func (s *Store) SetLatest(r *Release, t *Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestRelease = r
	s.latestTag = t
}

// Catalog returns a copy of the navigable release/tag list.
func (s *Store) Catalog() []CatalogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]CatalogEntry(nil), s.catalog...)
}

// SetCatalog replaces the catalog and moves the selection to the newest entry.
func (s *Store) SetCatalog(entries []CatalogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = append([]CatalogEntry(nil), entries...)
	s.index = 0
}

func (s *Store) CatalogIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// SetCatalogIndex moves the selection, clamped to the catalog bounds.
func (s *Store) SetCatalogIndex(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = clampIndex(i, len(s.catalog))
}

// MoveSelection shifts the selection by delta (positive = older) when the
// selector is open and confirmed. Moves past either end are no-ops. It
// returns whether the index changed.
func (s *Store) MoveSelection(delta int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.menuOpen || !s.confirmed || delta == 0 {
		return false
	}
	next := s.index + delta
	if next < 0 || next >= len(s.catalog) {
		return false
	}
	s.index = next
	return true
}

// Snapshot copies every field for one frame of rendering.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		InstalledVersion: s.installed,
		Label:            s.label,
		Progress:         s.progress,
		Error:            s.errMsg,
		Hint:             s.hint,
		ShouldQuit:       s.shouldQuit,
		RebootRequired:   s.rebootRequired,
		Submenu:          s.submenu,
		MenuOpen:         s.menuOpen,
		Confirmed:        s.confirmed,
		LatestRelease:    s.latestRelease,
		LatestTag:        s.latestTag,
		Catalog:          append([]CatalogEntry(nil), s.catalog...),
		Index:            s.index,
	}
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
