package catalog

import (
	"testing"

	"nextui-updater/internal/state"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		releases []state.Release
		tags     []state.Tag
		want     []string
	}{
		{
			name: "empty",
			want: nil,
		},
		{
			name:     "paired in release order",
			releases: []state.Release{{TagName: "v2"}, {TagName: "v1"}},
			tags:     []state.Tag{{Name: "v1"}, {Name: "v2"}},
			want:     []string{"v2", "v1"},
		},
		{
			name: "tags only",
			tags: []state.Tag{{Name: "b"}, {Name: "a"}},
			want: []string{"b", "a"},
		},
		{
			name:     "tag newer than the latest release comes first",
			releases: []state.Release{{TagName: "v3"}, {TagName: "v2"}},
			tags:     []state.Tag{{Name: "v4"}, {Name: "v3"}, {Name: "v2"}},
			want:     []string{"v4", "v3", "v2"},
		},
		{
			name:     "orphans keep their place between releases",
			releases: []state.Release{{TagName: "v3"}, {TagName: "v1"}},
			tags:     []state.Tag{{Name: "v3"}, {Name: "v2-rc"}, {Name: "v2"}, {Name: "v1"}, {Name: "v0"}},
			want:     []string{"v3", "v2-rc", "v2", "v1", "v0"},
		},
		{
			name:     "release without a tag",
			releases: []state.Release{{TagName: "v2"}, {TagName: "v1"}},
			tags:     []state.Tag{{Name: "v3"}, {Name: "v1"}},
			want:     []string{"v2", "v3", "v1"},
		},
		{
			name:     "drafts skipped",
			releases: []state.Release{{TagName: "v3", Draft: true}, {TagName: "v2"}},
			want:     []string{"v2"},
		},
		{
			name:     "duplicate names collapse",
			releases: []state.Release{{TagName: "v1"}, {TagName: "v1"}},
			tags:     []state.Tag{{Name: "v1"}, {Name: "v1"}},
			want:     []string{"v1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.releases, tt.tags)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for i, name := range tt.want {
				if got[i].Name() != name {
					t.Errorf("entry %d = %q, want %q", i, got[i].Name(), name)
				}
			}
		})
	}
}

func TestMergeDraftTagStaysAsOrphan(t *testing.T) {
	got := Merge(
		[]state.Release{{TagName: "v3", Draft: true}},
		[]state.Tag{{Name: "v3"}},
	)
	if len(got) != 1 || got[0].Release != nil || got[0].Tag == nil {
		t.Fatalf("expected tag-only entry for a draft release, got %+v", got)
	}
}
