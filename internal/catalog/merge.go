package catalog

import "nextui-updater/internal/state"

// Merge pairs releases and tags by name. Released entries follow release
// order (newest first, as the API returns them). A tag without a release is
// placed just before the next released tag that follows it in tag order, so
// a tag pushed after the latest release still sorts first; tags below the
// last released one come at the end. Drafts count as unreleased.
func Merge(releases []state.Release, tags []state.Tag) []state.CatalogEntry {
	released := make(map[string]bool, len(releases))
	for i := range releases {
		if !releases[i].Draft {
			released[releases[i].TagName] = true
		}
	}

	tagByName := make(map[string]*state.Tag, len(tags))
	before := make(map[string][]*state.Tag)
	var pending []*state.Tag
	for i := range tags {
		name := tags[i].Name
		if _, dup := tagByName[name]; dup {
			continue
		}
		tagByName[name] = &tags[i]
		if !released[name] {
			pending = append(pending, &tags[i])
			continue
		}
		if len(pending) > 0 {
			before[name] = pending
			pending = nil
		}
	}

	entries := make([]state.CatalogEntry, 0, len(releases)+len(tags))
	emitted := make(map[string]bool, len(releases))
	for i := range releases {
		rel := &releases[i]
		if rel.Draft || emitted[rel.TagName] {
			continue
		}
		emitted[rel.TagName] = true
		for _, orphan := range before[rel.TagName] {
			entries = append(entries, state.CatalogEntry{Tag: orphan})
		}
		entries = append(entries, state.CatalogEntry{Release: rel, Tag: tagByName[rel.TagName]})
	}
	for _, orphan := range pending {
		entries = append(entries, state.CatalogEntry{Tag: orphan})
	}
	return entries
}
