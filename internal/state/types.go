package state

import "time"

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	ContentType        string `json:"content_type"`
	Size               int64  `json:"size"`
}

// Release is a published distribution descriptor.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
	Prerelease  bool      `json:"prerelease"`
	Draft       bool      `json:"draft"`
	Assets      []Asset   `json:"assets"`
}

// Commit identifies the commit a tag points at.
type Commit struct {
	SHA string `json:"sha"`
	URL string `json:"url"`
}

// Tag is a named pointer to a commit.
type Tag struct {
	Name   string `json:"name"`
	Commit Commit `json:"commit"`
}

// CatalogEntry pairs a release and a tag of the same name. Either side may be
// nil when the remote only knows one of them.
type CatalogEntry struct {
	Release *Release
	Tag     *Tag
}

// Name returns the tag name of the entry, preferring the tag side.
func (e CatalogEntry) Name() string {
	if e.Tag != nil {
		return e.Tag.Name
	}
	if e.Release != nil {
		return e.Release.TagName
	}
	return ""
}

// ProgressKind distinguishes absent, indeterminate and determinate progress.
type ProgressKind int

const (
	ProgressNone ProgressKind = iota
	ProgressIndeterminate
	ProgressDeterminate
)

// Progress is the observable progress of the running operation.
type Progress struct {
	Kind     ProgressKind
	Fraction float64
}

// Indeterminate returns progress with an unknown total.
func Indeterminate() Progress {
	return Progress{Kind: ProgressIndeterminate}
}

// Determinate returns progress for a known fraction, clamped to [0, 1].
func Determinate(fraction float64) Progress {
	switch {
	case fraction != fraction || fraction < 0: // NaN or negative
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	return Progress{Kind: ProgressDeterminate, Fraction: fraction}
}

// Fraction computes done/total as determinate progress. A non-positive total
// yields indeterminate progress.
func Fraction(done, total int64) Progress {
	if total <= 0 {
		return Indeterminate()
	}
	return Determinate(float64(done) / float64(total))
}

// Submenu identifies the update target shown by the presentation layer.
type Submenu int

const (
	SubmenuNextUI Submenu = iota
)
