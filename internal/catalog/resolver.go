// Package catalog resolves the latest release and the navigable release/tag
// history from the GitHub REST API and commits them to the shared store.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nextui-updater/internal/debug"
	apperrors "nextui-updater/internal/errors"
	"nextui-updater/internal/state"
)

// Default configuration values.
const (
	DefaultBaseURL  = "https://api.github.com"
	DefaultTimeout  = 15 * time.Second
	DefaultPerPage  = 30
	DefaultMaxPages = 5

	userAgent    = "nextui-updater"
	acceptHeader = "application/vnd.github.v3+json"

	// LabelLatest and LabelCatalog are the operation labels shown while a
	// refresh is running.
	LabelLatest  = "Checking for updates..."
	LabelCatalog = "Fetching releases..."
)

// ErrNotFound is returned for a 404 from the API.
var ErrNotFound = errors.New("not found")

// Resolver fetches releases and tags for one repository.
type Resolver struct {
	store      *state.Store
	owner      string
	repo       string
	baseURL    string
	token      string
	perPage    int
	maxPages   int
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		r.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.httpClient.Timeout = timeout
		}
	}
}

// WithBaseURL points the resolver at a different API root.
func WithBaseURL(base string) Option {
	return func(r *Resolver) {
		if base != "" {
			r.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(r *Resolver) {
		r.token = token
	}
}

// WithPaging bounds catalog pagination.
func WithPaging(perPage, maxPages int) Option {
	return func(r *Resolver) {
		if perPage > 0 {
			r.perPage = perPage
		}
		if maxPages > 0 {
			r.maxPages = maxPages
		}
	}
}

// New creates a resolver for owner/repo that commits results to store.
func New(store *state.Store, owner, repo string, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		owner:    owner,
		repo:     repo,
		baseURL:  DefaultBaseURL,
		perPage:  DefaultPerPage,
		maxPages: DefaultMaxPages,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: debug.L("catalog"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Repository returns "owner/repo".
func (r *Resolver) Repository() string {
	return r.owner + "/" + r.repo
}

// FetchLatest queries the newest release and the newest tag concurrently.
// Either may be nil when the repository has none. On success both are
// committed to the store and any previous error is cleared; on failure the
// store is left untouched.
func (r *Resolver) FetchLatest(ctx context.Context) (*state.Release, *state.Tag, error) {
	var (
		release *state.Release
		tag     *state.Tag
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var rel state.Release
		err := r.getJSON(gctx, "releases/latest", nil, &rel)
		switch {
		case errors.Is(err, ErrNotFound):
			return nil
		case err != nil:
			return err
		}
		release = &rel
		return nil
	})
	g.Go(func() error {
		var tags []state.Tag
		err := r.getJSON(gctx, "tags", url.Values{"per_page": {"1"}}, &tags)
		switch {
		case errors.Is(err, ErrNotFound):
			return nil
		case err != nil:
			return err
		}
		if len(tags) > 0 {
			tag = &tags[0]
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	r.store.SetLatest(release, tag)
	r.store.SetError("")
	r.log.Debugw("latest resolved", "release", releaseName(release), "tag", tagName(tag))
	return release, tag, nil
}

// FetchCatalog pages through releases and tags and merges them newest-first.
// On success the catalog is committed and the selection reset; on failure the
// previous catalog stays in the store.
func (r *Resolver) FetchCatalog(ctx context.Context) ([]state.CatalogEntry, error) {
	var (
		releases []state.Release
		tags     []state.Tag
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		releases, err = fetchPages[state.Release](gctx, r, "releases")
		return err
	})
	g.Go(func() error {
		var err error
		tags, err = fetchPages[state.Tag](gctx, r, "tags")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := Merge(releases, tags)
	r.store.SetCatalog(entries)
	r.log.Debugw("catalog resolved", "releases", len(releases), "tags", len(tags), "entries", len(entries))
	return entries, nil
}

// RefreshLatest runs FetchLatest as a gated operation. It returns false when
// another operation already holds the gate.
func (r *Resolver) RefreshLatest(ctx context.Context) bool {
	if !r.store.TryBeginOperation(LabelLatest) {
		return false
	}
	_, _, err := r.FetchLatest(ctx)
	r.finish("latest", err)
	return true
}

// RefreshCatalog runs FetchCatalog as a gated operation. It returns false
// when another operation already holds the gate.
func (r *Resolver) RefreshCatalog(ctx context.Context) bool {
	if !r.store.TryBeginOperation(LabelCatalog) {
		return false
	}
	_, err := r.FetchCatalog(ctx)
	r.finish("catalog", err)
	return true
}

func (r *Resolver) finish(what string, err error) {
	if err != nil {
		r.log.Warnw("refresh failed", "what", what, "error", err)
		r.store.FinishOperation(err.Error())
		return
	}
	r.store.FinishOperation("")
}

// fetchPages reads up to maxPages pages of path, stopping at the first short page.
func fetchPages[T any](ctx context.Context, r *Resolver, path string) ([]T, error) {
	var all []T
	for page := 1; page <= r.maxPages; page++ {
		query := url.Values{
			"per_page": {strconv.Itoa(r.perPage)},
			"page":     {strconv.Itoa(page)},
		}
		var batch []T
		err := r.getJSON(ctx, path, query, &batch)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < r.perPage {
			break
		}
	}
	return all, nil
}

// getJSON performs a GET against the repository API and decodes the body.
func (r *Resolver) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/%s", r.baseURL, r.owner, r.repo, path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.New(apperrors.CodeFetchFailed, "Failed to build request", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return apperrors.New(apperrors.CodeFetchFailed, "Failed to reach GitHub", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.New(apperrors.CodeRateLimited, "GitHub API rate limit exceeded, try again later", nil)
	case resp.StatusCode != http.StatusOK:
		return apperrors.New(apperrors.CodeFetchFailed, "Failed to fetch release information",
			fmt.Errorf("status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.New(apperrors.CodeParseFailed, "Malformed response from GitHub", err)
	}
	return nil
}

func releaseName(r *state.Release) string {
	if r == nil {
		return ""
	}
	return r.TagName
}

func tagName(t *state.Tag) string {
	if t == nil {
		return ""
	}
	return t.Name
}
