package state

import "strings"

// Snapshot is a point-in-time copy of the store used to render one frame.
type Snapshot struct {
	InstalledVersion string

	Label    string
	Progress Progress
	Error    string
	Hint     string

	ShouldQuit     bool
	RebootRequired bool
	Submenu        Submenu

	MenuOpen  bool
	Confirmed bool

	LatestRelease *Release
	LatestTag     *Tag

	Catalog []CatalogEntry
	Index   int
}

// InProgress reports whether an operation was running when the snapshot was taken.
func (s Snapshot) InProgress() bool {
	return s.Label != ""
}

// Selected returns the catalog entry under the selection, if any.
func (s Snapshot) Selected() (CatalogEntry, bool) {
	if s.Index < 0 || s.Index >= len(s.Catalog) {
		return CatalogEntry{}, false
	}
	return s.Catalog[s.Index], true
}

// Target returns the release and tag an update would install: the selected
// catalog entry while the selector is open, the latest ones otherwise.
func (s Snapshot) Target() (*Release, *Tag) {
	if !s.MenuOpen {
		return s.LatestRelease, s.LatestTag
	}
	entry, ok := s.Selected()
	if !ok {
		return nil, nil
	}
	return entry.Release, entry.Tag
}

// TargetInstalled reports whether the target tag points at the installed
// build. A forgotten latest tag always reports false so the update is
// offered again.
func (s Snapshot) TargetInstalled() bool {
	if s.InstalledVersion == "" || s.LatestTag == nil {
		return false
	}
	_, tag := s.Target()
	if tag == nil {
		return false
	}
	return strings.HasPrefix(tag.Commit.SHA, s.InstalledVersion)
}

// UpdateAvailable reports whether the update controls should be offered.
func (s Snapshot) UpdateAvailable() bool {
	return !s.TargetInstalled()
}

// IsOldestIndex reports whether the selection is on the last (oldest) entry.
func (s Snapshot) IsOldestIndex() bool {
	return len(s.Catalog) > 0 && s.Index >= len(s.Catalog)-1
}

// IsNewestIndex reports whether the selection is on the first (newest) entry.
func (s Snapshot) IsNewestIndex() bool {
	return s.Index == 0
}
