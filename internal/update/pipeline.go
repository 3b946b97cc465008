package update

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"nextui-updater/internal/debug"
	apperrors "nextui-updater/internal/errors"
	"nextui-updater/internal/history"
	"nextui-updater/internal/state"
	"nextui-updater/internal/worker"
)

// Operation labels shown while an attempt runs.
const (
	LabelPreparing = "Preparing update..."
	LabelChecksums = "Downloading checksums..."
	LabelExtract   = "Extracting files..."
)

// Default quick-mode entry extracted from the primary package.
const DefaultQuickEntry = "MinUI.zip"

// Dispatcher runs tasks off the frame loop.
type Dispatcher interface {
	Submit(name string, task worker.Task) bool
}

// Recorder stores finished attempts.
type Recorder interface {
	Record(ctx context.Context, a history.Attempt) error
}

// Config controls where and what the pipeline installs.
type Config struct {
	StorageRoot   string
	TempDir       string
	PrimarySuffix string
	ExtrasSuffix  string
	ChecksumName  string
	QuickEntries  []string
}

func (c Config) withDefaults() Config {
	if c.PrimarySuffix == "" {
		c.PrimarySuffix = DefaultPrimarySuffix
	}
	if c.ExtrasSuffix == "" {
		c.ExtrasSuffix = DefaultExtrasSuffix
	}
	if c.ChecksumName == "" {
		c.ChecksumName = DefaultChecksumName
	}
	if len(c.QuickEntries) == 0 {
		c.QuickEntries = []string{DefaultQuickEntry}
	}
	return c
}

// Pipeline runs update attempts, one at a time.
type Pipeline struct {
	store      *state.Store
	dispatcher Dispatcher
	cfg        Config
	httpClient *http.Client
	recorder   Recorder
	now        func() time.Time
	log        *zap.SugaredLogger

	// running is set from Start until the attempt's outcome is published.
	running atomic.Bool
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithDownloadClient sets the HTTP client used for package downloads.
func WithDownloadClient(client *http.Client) PipelineOption {
	return func(p *Pipeline) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithRecorder records every finished attempt.
func WithRecorder(r Recorder) PipelineOption {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// NewPipeline creates a pipeline that publishes to store and runs its work
// on dispatcher.
func NewPipeline(store *state.Store, dispatcher Dispatcher, cfg Config, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		store:      store,
		dispatcher: dispatcher,
		cfg:        cfg.withDefaults(),
		httpClient: &http.Client{
			Timeout: 0, // No timeout for downloads
		},
		now: time.Now,
		log: debug.L("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// attempt is one update run, resolved on the frame loop.
type attempt struct {
	mode    Mode
	release *state.Release
	assets  AssetSet
	started time.Time
}

func (a attempt) tag() string {
	if a.release == nil {
		return ""
	}
	return a.release.TagName
}

// Start begins an update attempt without blocking. It returns false when
// another operation is already running, in which case nothing changes.
// Missing packages fail the attempt immediately, before any network access.
func (p *Pipeline) Start(mode Mode) bool {
	if !p.store.TryBeginOperation(LabelPreparing) {
		p.log.Debugw("update rejected, operation in progress", "mode", mode)
		return false
	}
	p.store.SetRebootRequired(false)
	p.running.Store(true)

	job := attempt{
		mode:    mode,
		release: TargetRelease(p.store.Snapshot()),
		started: p.now(),
	}

	assets, err := SelectAssets(job.release, mode, p.cfg)
	if err != nil {
		p.recordLater(p.finish(job, err))
		return true
	}
	job.assets = assets

	submitted := p.dispatcher.Submit("update "+mode.String(), func(ctx context.Context) {
		p.execute(ctx, job)
	})
	if !submitted {
		p.recordLater(p.finish(job,
			apperrors.New(apperrors.CodeUnknown, "Update could not be started, try again", nil)))
	}
	return true
}

// Running reports whether an attempt may still be writing to storage.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// TargetRelease returns the release an update would install: the selected
// entry when the version selector is open and confirmed, the latest release
// otherwise.
func TargetRelease(snap state.Snapshot) *state.Release {
	if snap.MenuOpen && snap.Confirmed {
		entry, ok := snap.Selected()
		if !ok {
			return nil
		}
		return entry.Release
	}
	return snap.LatestRelease
}

// execute runs a resolved attempt on the calling goroutine.
func (p *Pipeline) execute(ctx context.Context, job attempt) {
	p.log.Infow("update started", "mode", job.mode, "tag", job.tag(), "packages", len(job.assets.Packages))
	err := p.install(ctx, job)
	p.record(context.WithoutCancel(ctx), p.finish(job, err))
}

func (p *Pipeline) install(ctx context.Context, job attempt) error {
	dir, err := os.MkdirTemp(p.cfg.TempDir, "nextui-update-*")
	if err != nil {
		return apperrors.New(apperrors.CodeDownloadFailed, "Could not create temporary directory", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	manifest, err := p.fetchManifest(ctx, job.assets.Checksum)
	if err != nil {
		return err
	}

	paths := make([]string, len(job.assets.Packages))
	for i, asset := range job.assets.Packages {
		p.store.SetCurrentOperation(fmt.Sprintf("Downloading %s (%d/%d)...", asset.Name, i+1, len(job.assets.Packages)))
		p.store.SetProgress(state.Indeterminate())

		paths[i] = filepath.Join(dir, filepath.Base(asset.Name))
		n, err := DownloadFile(ctx, p.httpClient, asset.BrowserDownloadURL, paths[i], func(done, total int64) {
			p.store.SetProgress(state.Fraction(done, total))
		})
		if err != nil {
			return apperrors.New(apperrors.CodeDownloadFailed, "Download of "+asset.Name+" failed", err)
		}
		p.log.Debugw("package downloaded", "asset", asset.Name, "bytes", n)
	}

	for i, asset := range job.assets.Packages {
		p.store.SetCurrentOperation("Verifying " + asset.Name + "...")
		p.store.SetProgress(state.Indeterminate())

		checked, err := manifest.Verify(asset.Name, paths[i])
		if err != nil {
			return apperrors.New(apperrors.CodeVerifyFailed, "Package "+asset.Name+" failed verification", err)
		}
		if !checked && manifest != nil {
			p.log.Warnw("package not listed in manifest", "asset", asset.Name)
		}
		if err := VerifyArchive(paths[i]); err != nil {
			return apperrors.New(apperrors.CodeVerifyFailed, "Package "+asset.Name+" is corrupt", err)
		}
	}

	return p.extract(job, paths)
}

func (p *Pipeline) fetchManifest(ctx context.Context, asset *state.Asset) (Manifest, error) {
	if asset == nil {
		return nil, nil
	}
	p.store.SetCurrentOperation(LabelChecksums)

	var buf bytes.Buffer
	if _, err := Download(ctx, p.httpClient, asset.BrowserDownloadURL, &buf, nil); err != nil {
		return nil, apperrors.New(apperrors.CodeDownloadFailed, "Download of "+asset.Name+" failed", err)
	}
	manifest, err := ParseManifest(&buf)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeVerifyFailed, "Could not read "+asset.Name, err)
	}
	return manifest, nil
}

// extract writes every verified package onto the storage root. Nothing is
// written until every package has been opened and its entries checked.
func (p *Pipeline) extract(job attempt, paths []string) error {
	p.store.SetCurrentOperation(LabelExtract)
	p.store.SetProgress(state.Indeterminate())

	readers := make([]*zip.ReadCloser, 0, len(paths))
	defer func() {
		for _, r := range readers {
			_ = r.Close()
		}
	}()

	var files []*zip.File
	for i, path := range paths {
		zr, err := zip.OpenReader(path)
		if err != nil {
			return apperrors.New(apperrors.CodeExtractFailed, "Could not open "+job.assets.Packages[i].Name, err)
		}
		readers = append(readers, zr)

		var only []string
		if job.mode == ModeQuick && i == 0 {
			only = p.cfg.QuickEntries
		}
		selected, err := selectEntries(&zr.Reader, only)
		if err != nil {
			return apperrors.New(apperrors.CodeExtractFailed, "Package "+job.assets.Packages[i].Name+" cannot be installed", err)
		}
		files = append(files, selected...)
	}

	if err := checkFreeSpace(p.cfg.StorageRoot, uncompressedSize(files)); err != nil {
		if errors.Is(err, ErrInsufficientDisk) {
			return apperrors.New(apperrors.CodeExtractFailed, "Not enough free space on storage", err)
		}
		p.log.Warnw("free space check skipped", "root", p.cfg.StorageRoot, "error", err)
	}

	done := 0
	err := extractEntries(files, p.cfg.StorageRoot, func() {
		done++
		p.store.SetProgress(state.Fraction(int64(done), int64(len(files))))
	})
	if err != nil {
		return apperrors.New(apperrors.CodeExtractFailed, "Extraction failed, storage may be partially updated", err)
	}
	p.log.Infow("packages extracted", "entries", len(files), "root", p.cfg.StorageRoot)
	return nil
}

// finish publishes the outcome and returns the attempt to record. It
// never touches the history store, so it is safe on the frame loop.
func (p *Pipeline) finish(job attempt, err error) history.Attempt {
	msg := ""
	if err != nil {
		msg = err.Error()
		p.log.Warnw("update failed", "mode", job.mode, "tag", job.tag(), "code", apperrors.CodeOf(err), "error", err)
	}
	if err == nil {
		p.store.SetRebootRequired(true)
		p.log.Infow("update finished", "mode", job.mode, "tag", job.tag())
	}
	p.store.FinishOperation(msg)
	p.running.Store(false)

	return history.Attempt{
		Mode:       job.mode.String(),
		Tag:        job.tag(),
		Error:      msg,
		StartedAt:  job.started,
		FinishedAt: p.now(),
	}
}

// record writes a finished attempt to the history store, if any.
func (p *Pipeline) record(ctx context.Context, rec history.Attempt) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, rec); err != nil {
		p.log.Warnw("record attempt failed", "error", err)
	}
}

// recordLater records an attempt that ended on the frame loop. The write
// goes to the dispatcher, or to its own goroutine when the dispatcher is
// full or stopped.
func (p *Pipeline) recordLater(rec history.Attempt) {
	if p.recorder == nil {
		return
	}
	if p.dispatcher.Submit("record attempt", func(ctx context.Context) {
		p.record(context.WithoutCancel(ctx), rec)
	}) {
		return
	}
	go p.record(context.Background(), rec)
}
