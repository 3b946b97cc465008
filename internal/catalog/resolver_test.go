package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	apperrors "nextui-updater/internal/errors"
	"nextui-updater/internal/state"
)

// rewriteTransport redirects requests to the test server.
type rewriteTransport struct {
	base      http.RoundTripper
	targetURL string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = t.targetURL[7:] // strip "http://"
	return t.base.RoundTrip(req)
}

func newTestResolver(t *testing.T, store *state.Store, handler http.Handler, opts ...Option) *Resolver {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := &http.Client{
		Transport: &rewriteTransport{base: http.DefaultTransport, targetURL: server.URL},
	}
	return New(store, "owner", "repo", append([]Option{WithHTTPClient(client)}, opts...)...)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode: %v", err)
	}
}

func TestNew(t *testing.T) {
	r := New(state.New(""), "owner", "repo")
	if r.Repository() != "owner/repo" {
		t.Errorf("Repository() = %q, want owner/repo", r.Repository())
	}
	if r.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", r.baseURL, DefaultBaseURL)
	}
	if r.perPage != DefaultPerPage || r.maxPages != DefaultMaxPages {
		t.Errorf("paging = %d/%d, want defaults", r.perPage, r.maxPages)
	}
}

func TestFetchLatest(t *testing.T) {
	store := state.New("abc123")
	store.SetError("old failure")

	r := newTestResolver(t, store, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if got := req.Header.Get("Accept"); got != acceptHeader {
			t.Errorf("Accept = %q", got)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		switch req.URL.Path {
		case "/repos/owner/repo/releases/latest":
			writeJSON(t, w, state.Release{TagName: "v2", Body: "notes"})
		case "/repos/owner/repo/tags":
			if req.URL.Query().Get("per_page") != "1" {
				t.Errorf("tags per_page = %q, want 1", req.URL.Query().Get("per_page"))
			}
			writeJSON(t, w, []state.Tag{{Name: "v2", Commit: state.Commit{SHA: "xyz999"}}})
		default:
			t.Errorf("unexpected path: %s", req.URL.Path)
			http.NotFound(w, req)
		}
	}), WithToken("secret"))

	release, tag, err := r.FetchLatest(context.Background())
	if err != nil {
		t.Fatalf("FetchLatest() error: %v", err)
	}
	if release == nil || release.TagName != "v2" {
		t.Fatalf("release = %+v, want v2", release)
	}
	if tag == nil || tag.Commit.SHA != "xyz999" {
		t.Fatalf("tag = %+v, want xyz999", tag)
	}
	if store.LatestRelease() != release || store.LatestTag() != tag {
		t.Error("latest release and tag should be committed to the store")
	}
	if store.Error() != "" {
		t.Errorf("error should be cleared, got %q", store.Error())
	}

	snap := store.Snapshot()
	if !snap.UpdateAvailable() {
		t.Error("expected update available for a different commit")
	}
}

func TestFetchLatestMissingRelease(t *testing.T) {
	store := state.New("")
	r := newTestResolver(t, store, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/repos/owner/repo/tags" {
			writeJSON(t, w, []state.Tag{{Name: "v1"}})
			return
		}
		http.NotFound(w, req)
	}))

	release, tag, err := r.FetchLatest(context.Background())
	if err != nil {
		t.Fatalf("FetchLatest() error: %v", err)
	}
	if release != nil {
		t.Errorf("release = %+v, want nil", release)
	}
	if tag == nil || tag.Name != "v1" {
		t.Errorf("tag = %+v, want v1", tag)
	}
}

func TestFetchLatestRateLimited(t *testing.T) {
	store := state.New("")
	previous := &state.Release{TagName: "v1"}
	store.SetLatestRelease(previous)

	r := newTestResolver(t, store, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, _, err := r.FetchLatest(context.Background())
	if !apperrors.IsCode(err, apperrors.CodeRateLimited) {
		t.Fatalf("expected rate limited error, got %v", err)
	}
	if store.LatestRelease() != previous {
		t.Error("failed fetch must not replace the cached release")
	}
}

func TestFetchLatestMalformed(t *testing.T) {
	r := newTestResolver(t, state.New(""), http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))

	_, _, err := r.FetchLatest(context.Background())
	if !apperrors.IsCode(err, apperrors.CodeParseFailed) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestFetchCatalogPaginatesAndMerges(t *testing.T) {
	releases := []state.Release{{TagName: "v3"}, {TagName: "v2"}, {TagName: "v1"}}
	tags := []state.Tag{{Name: "v4"}, {Name: "v3"}, {Name: "v1"}, {Name: "v0"}}

	var requests atomic.Int32
	store := state.New("")
	r := newTestResolver(t, store, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requests.Add(1)
		page, _ := strconv.Atoi(req.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(req.URL.Query().Get("per_page"))
		if perPage != 2 {
			t.Errorf("per_page = %d, want 2", perPage)
		}
		switch req.URL.Path {
		case "/repos/owner/repo/releases":
			writeJSON(t, w, pageOf(releases, page, perPage))
		case "/repos/owner/repo/tags":
			writeJSON(t, w, pageOf(tags, page, perPage))
		default:
			http.NotFound(w, req)
		}
	}), WithPaging(2, 10))

	entries, err := r.FetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("FetchCatalog() error: %v", err)
	}

	want := []string{"v4", "v3", "v2", "v1", "v0"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, name := range want {
		if entries[i].Name() != name {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].Name(), name)
		}
	}
	if entries[2].Tag != nil {
		t.Error("v2 has no tag and should keep a nil tag side")
	}
	if entries[0].Release != nil {
		t.Error("v4 has no release and should keep a nil release side")
	}

	// releases: one full page then a short one; tags: two full pages then an empty one.
	if got := requests.Load(); got != 5 {
		t.Errorf("requests = %d, want 5", got)
	}
	if len(store.Catalog()) != len(want) {
		t.Error("catalog should be committed to the store")
	}
}

func TestFetchCatalogStopsAtMaxPages(t *testing.T) {
	var requests atomic.Int32
	r := newTestResolver(t, state.New(""), http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requests.Add(1)
		if req.URL.Path == "/repos/owner/repo/releases" {
			writeJSON(t, w, []state.Release{{TagName: "v" + req.URL.Query().Get("page")}})
			return
		}
		writeJSON(t, w, []state.Tag{})
	}), WithPaging(1, 3))

	entries, err := r.FetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("FetchCatalog() error: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
	if got := requests.Load(); got != 4 {
		t.Errorf("requests = %d, want 4", got)
	}
}

func TestRefreshCatalogKeepsStaleDataOnFailure(t *testing.T) {
	store := state.New("")
	stale := []state.CatalogEntry{{Release: &state.Release{TagName: "v1"}}}
	store.SetCatalog(stale)

	r := newTestResolver(t, store, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	if !r.RefreshCatalog(context.Background()) {
		t.Fatal("expected refresh to run")
	}

	got := store.Catalog()
	if len(got) != 1 || got[0].Name() != "v1" {
		t.Fatalf("catalog = %+v, want stale entry kept", got)
	}
	if store.Error() == "" {
		t.Error("expected error text after failed fetch")
	}
	if store.InProgress() {
		t.Error("label should be cleared after refresh")
	}
	if store.Progress().Kind != state.ProgressNone {
		t.Error("progress should be cleared after refresh")
	}
}

func TestRefreshLatestClearsLabel(t *testing.T) {
	store := state.New("")
	r := newTestResolver(t, store, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if store.CurrentOperation() != LabelLatest {
			t.Errorf("label during fetch = %q, want %q", store.CurrentOperation(), LabelLatest)
		}
		http.NotFound(w, req)
	}))

	if !r.RefreshLatest(context.Background()) {
		t.Fatal("expected refresh to run")
	}
	if store.InProgress() || store.Error() != "" {
		t.Errorf("expected idle store without error, label=%q error=%q", store.CurrentOperation(), store.Error())
	}
}

func TestRefreshRejectedWhileBusy(t *testing.T) {
	store := state.New("")
	store.TryBeginOperation("Downloading...")

	var requests atomic.Int32
	r := newTestResolver(t, store, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requests.Add(1)
	}))

	if r.RefreshCatalog(context.Background()) {
		t.Fatal("refresh must not run while another operation holds the gate")
	}
	if requests.Load() != 0 {
		t.Error("no request should be made while busy")
	}
	if store.CurrentOperation() != "Downloading..." {
		t.Errorf("label = %q, want the running operation", store.CurrentOperation())
	}
}

func pageOf[T any](items []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
