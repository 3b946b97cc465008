package update

import (
	"strings"

	apperrors "nextui-updater/internal/errors"
	"nextui-updater/internal/state"
)

// Mode selects which packages an update installs.
type Mode int

const (
	// ModeQuick installs only the core system archive from the primary package.
	ModeQuick Mode = iota
	// ModeFull installs the primary and supplementary packages completely.
	ModeFull
)

// String returns the string representation of a Mode.
func (m Mode) String() string {
	switch m {
	case ModeQuick:
		return "quick"
	case ModeFull:
		return "full"
	default:
		return "unknown"
	}
}

// Default asset naming.
const (
	DefaultPrimarySuffix = "-base.zip"
	DefaultExtrasSuffix  = "-extras.zip"
	DefaultChecksumName  = "checksums.txt"
)

// AssetSet is the ordered list of packages an attempt downloads, plus the
// optional checksum manifest.
type AssetSet struct {
	Packages []state.Asset
	Checksum *state.Asset
}

// SelectAssets picks the packages mode requires from release. A missing
// required package is a CodeMissingPackage error.
func SelectAssets(release *state.Release, mode Mode, cfg Config) (AssetSet, error) {
	if release == nil {
		return AssetSet{}, apperrors.New(apperrors.CodeMissingPackage, "No release information available", nil)
	}
	cfg = cfg.withDefaults()

	primary := findAsset(release.Assets, func(name string) bool {
		return strings.HasSuffix(name, cfg.PrimarySuffix)
	})
	if primary == nil {
		return AssetSet{}, missingPackage(release.TagName, cfg.PrimarySuffix)
	}

	set := AssetSet{Packages: []state.Asset{*primary}}
	if mode == ModeFull {
		extras := findAsset(release.Assets, func(name string) bool {
			return strings.HasSuffix(name, cfg.ExtrasSuffix)
		})
		if extras == nil {
			return AssetSet{}, missingPackage(release.TagName, cfg.ExtrasSuffix)
		}
		set.Packages = append(set.Packages, *extras)
	}

	set.Checksum = findAsset(release.Assets, func(name string) bool {
		return name == cfg.ChecksumName
	})
	return set, nil
}

func findAsset(assets []state.Asset, match func(string) bool) *state.Asset {
	for i := range assets {
		if match(assets[i].Name) {
			return &assets[i]
		}
	}
	return nil
}

func missingPackage(tag, suffix string) error {
	return apperrors.New(apperrors.CodeMissingPackage,
		"Release "+tag+" is missing required package *"+suffix, nil)
}
