package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"nextui-updater/internal/catalog"
	"nextui-updater/internal/config"
	"nextui-updater/internal/debug"
	"nextui-updater/internal/history"
	"nextui-updater/internal/navigation"
	"nextui-updater/internal/state"
	"nextui-updater/internal/ui"
	"nextui-updater/internal/update"
	"nextui-updater/internal/worker"
)

const shutdownTimeout = 5 * time.Second

type programRunner interface {
	Run() (tea.Model, error)
}

type programFactory func(*ui.App) programRunner

func defaultProgram(m *ui.App) programRunner {
	return tea.NewProgram(m, tea.WithAltScreen())
}

// app holds the components shared by the display loop and the workers.
type app struct {
	store    *state.Store
	pool     *worker.Pool
	resolver *catalog.Resolver
	pipeline *update.Pipeline
	nav      *navigation.Controller
	history  *history.Store
}

// installedVersionPath returns the version file on the configured storage.
func installedVersionPath() string {
	return filepath.Join(
		config.GetString(config.KeyStorageRoot),
		filepath.FromSlash(config.GetString(config.KeyStorageVersionFile)),
	)
}

func newResolver(store *state.Store) *catalog.Resolver {
	return catalog.New(store,
		config.GetString(config.KeyRepoOwner),
		config.GetString(config.KeyRepoName),
		catalog.WithBaseURL(config.GetString(config.KeyAPIBaseURL)),
		catalog.WithToken(config.GetString(config.KeyAPIToken)),
		catalog.WithTimeout(config.GetDuration(config.KeyAPITimeout)),
		catalog.WithPaging(config.GetInt(config.KeyCatalogPerPage), config.GetInt(config.KeyCatalogMaxPages)),
	)
}

// historyPath returns the configured history database, defaulting to the
// user config directory.
func historyPath() (string, error) {
	if path := strings.TrimSpace(config.GetString(config.KeyHistoryPath)); path != "" {
		return path, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, history.FileName), nil
}

// openHistory opens the attempt log. A log that cannot be opened is
// skipped since it is informational only.
func openHistory(ctx context.Context) *history.Store {
	if !config.GetBool(config.KeyHistoryEnabled) {
		return nil
	}
	log := debug.L("main")
	path, err := historyPath()
	if err != nil {
		log.Warnw("history disabled", "error", err)
		return nil
	}
	hist, err := history.Open(ctx, path)
	if err != nil {
		log.Warnw("history disabled", "path", path, "error", err)
		return nil
	}
	return hist
}

func newApp(ctx context.Context) *app {
	installed := update.ReadInstalledVersion(installedVersionPath())
	store := state.New(installed)

	a := &app{
		store:    store,
		pool:     worker.New(config.GetInt(config.KeyWorkersCount), config.GetInt(config.KeyWorkersQueue)),
		resolver: newResolver(store),
		history:  openHistory(ctx),
	}

	opts := []update.PipelineOption{}
	if a.history != nil {
		opts = append(opts, update.WithRecorder(a.history))
	}
	a.pipeline = update.NewPipeline(store, a.pool, update.Config{
		StorageRoot:   config.GetString(config.KeyStorageRoot),
		TempDir:       config.GetString(config.KeyStorageTempDir),
		PrimarySuffix: config.GetString(config.KeyAssetsPrimarySuffix),
		ExtrasSuffix:  config.GetString(config.KeyAssetsExtrasSuffix),
		ChecksumName:  config.GetString(config.KeyAssetsChecksumName),
		QuickEntries:  config.GetStringSlice(config.KeyAssetsQuickEntries),
	}, opts...)
	a.nav = navigation.New(store, a.pool, a.resolver)

	debug.L("main").Infow("runtime ready",
		"installed", installed,
		"repo", a.resolver.Repository(),
		"storageRoot", config.GetString(config.KeyStorageRoot))
	return a
}

// refreshLatest re-checks the latest release on the worker pool.
func (a *app) refreshLatest() {
	if !a.pool.Submit("refresh latest", func(ctx context.Context) {
		a.resolver.RefreshLatest(ctx)
	}) {
		debug.L("main").Warn("latest refresh not dispatched")
	}
}

// close drains the pool and closes the history log.
func (a *app) close() {
	shutdownPool(a.pool, a.pipeline.Running, shutdownTimeout)
	if a.history != nil {
		_ = a.history.Close()
	}
}

// shutdownPool drains pool. While an update may be writing to storage the
// drain has no deadline; otherwise only fetches are in flight and they are
// cancelled after timeout.
func shutdownPool(pool *worker.Pool, writing func() bool, timeout time.Duration) bool {
	if writing != nil && writing() {
		debug.L("main").Info("waiting for the running update to finish")
		return pool.Shutdown(context.Background())
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return pool.Shutdown(ctx)
}

func runTUI(ctx context.Context, factory programFactory) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if factory == nil {
		return fmt.Errorf("program factory is nil")
	}

	a := newApp(ctx)
	defer a.close()

	a.refreshLatest()

	model := ui.NewApp(ui.Config{
		Store:         a.store,
		Navigator:     a.nav,
		Updater:       a.pipeline,
		Refresh:       a.refreshLatest,
		FrameInterval: config.GetDuration(config.KeyUIFrameInterval),
		NotesStyle:    config.GetString(config.KeyUINotesStyle),
		Version:       Version,
		Repo:          a.resolver.Repository(),
	})

	prog := factory(model)
	if prog == nil {
		return fmt.Errorf("program is nil")
	}
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	return nil
}
