package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyStorageRoot        = "storage.root"
	KeyStorageVersionFile = "storage.version-file"
	KeyStorageTempDir     = "storage.temp-dir"

	KeyRepoOwner  = "repo.owner"
	KeyRepoName   = "repo.name"
	KeyAPIBaseURL = "api.base-url"
	KeyAPIToken   = "api.token"
	KeyAPITimeout = "api.timeout"

	KeyCatalogPerPage  = "catalog.per-page"
	KeyCatalogMaxPages = "catalog.max-pages"

	KeyAssetsPrimarySuffix = "assets.primary-suffix"
	KeyAssetsExtrasSuffix  = "assets.extras-suffix"
	KeyAssetsChecksumName  = "assets.checksum-name"
	KeyAssetsQuickEntries  = "assets.quick-entries"

	KeyHistoryEnabled = "history.enabled"
	KeyHistoryPath    = "history.path"

	KeyUIFrameInterval = "ui.frame-interval"
	KeyUINotesStyle    = "ui.notes-style"

	KeyWorkersCount = "workers.count"
	KeyWorkersQueue = "workers.queue"

	KeyDebug = "debug"
)

const (
	// DefaultStorageRoot is where the SD card is mounted on the device.
	DefaultStorageRoot = "/mnt/SDCARD/"
	// DefaultFrameInterval bounds how long the display loop waits for input
	// before re-reading shared state.
	DefaultFrameInterval = 50 * time.Millisecond

	// ConfigDirName holds the user config, history database and debug log.
	ConfigDirName = ".nextui-updater"
	// StorageConfigPath is the per-card config file, relative to the storage root.
	StorageConfigPath = ".userdata/shared/nextui-updater.yaml"

	envPrefix = "NUU"
)

type initSettings struct {
	storageRoot       string
	storageConfigPath string
	userConfigPath    string
}

// Option configures Initialize behaviour. Useful for tests to override paths.
type Option func(*initSettings)

// WithStorageRoot overrides the storage root used for storage config discovery.
func WithStorageRoot(dir string) Option {
	return func(cfg *initSettings) {
		cfg.storageRoot = dir
	}
}

// WithStorageConfig explicitly sets the storage config path instead of
// deriving it from the storage root.
func WithStorageConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.storageConfigPath = path
	}
}

// WithUserConfig overrides the default user config path.
func WithUserConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.userConfigPath = path
	}
}

var (
	configOnce sync.Once
	configMu   sync.RWMutex
	configInst *viper.Viper
	initErr    error
)

// Initialize loads configuration using the precedence:
// defaults < user config < storage config < environment variables < overrides.
func Initialize(opts ...Option) error {
	configOnce.Do(func() {
		settings := initSettings{}
		for _, opt := range opts {
			opt(&settings)
		}
		initErr = configure(&settings)
	})
	return initErr
}

// ApplyOverrides injects values typically coming from CLI flags.
func ApplyOverrides(overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	if err := Initialize(); err != nil {
		return err
	}
	configMu.Lock()
	defer configMu.Unlock()
	if configInst == nil {
		return fmt.Errorf("configuration not initialized")
	}
	for k, v := range overrides {
		configInst.Set(k, v)
	}
	return nil
}

// GetString fetches a string configuration value, initializing on demand.
func GetString(key string) string {
	v, err := getViper()
	if err != nil {
		return ""
	}
	return v.GetString(key)
}

// GetStringSlice fetches a list configuration value, initializing on demand.
// A comma-separated string (as set through the environment) is split.
func GetStringSlice(key string) []string {
	v, err := getViper()
	if err != nil {
		return nil
	}
	raw := v.GetStringSlice(key)
	var out []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// GetBool fetches a bool configuration value, initializing on demand.
func GetBool(key string) bool {
	v, err := getViper()
	if err != nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt fetches an integer configuration value, initializing on demand.
func GetInt(key string) int {
	v, err := getViper()
	if err != nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration fetches a duration configuration value, initializing on demand.
func GetDuration(key string) time.Duration {
	v, err := getViper()
	if err != nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set updates a configuration key at runtime, initializing on demand.
func Set(key string, value any) error {
	if err := Initialize(); err != nil {
		return err
	}
	configMu.Lock()
	defer configMu.Unlock()
	if configInst == nil {
		return fmt.Errorf("configuration not initialized")
	}
	configInst.Set(key, value)
	return nil
}

func configure(settings *initSettings) error {
	userConfigPath := strings.TrimSpace(settings.userConfigPath)
	if userConfigPath == "" {
		path, err := defaultUserConfigPath()
		if err != nil {
			return err
		}
		userConfigPath = path
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := mergeConfigFile(v, userConfigPath); err != nil {
		return fmt.Errorf("load user config: %w", err)
	}

	// The storage root may itself come from the user config or environment,
	// so the per-card file is located only after those are merged.
	storageRoot := strings.TrimSpace(settings.storageRoot)
	if storageRoot != "" {
		v.Set(KeyStorageRoot, storageRoot)
	} else {
		storageRoot = v.GetString(KeyStorageRoot)
	}
	storageConfigPath := strings.TrimSpace(settings.storageConfigPath)
	if storageConfigPath == "" && storageRoot != "" {
		storageConfigPath = filepath.Join(storageRoot, filepath.FromSlash(StorageConfigPath))
	}
	if err := mergeConfigFile(v, storageConfigPath); err != nil {
		return fmt.Errorf("load storage config: %w", err)
	}

	configMu.Lock()
	defer configMu.Unlock()
	configInst = v
	return nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	//nolint:gosec // G304: Config loader intentionally reads user and storage config files
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Dir returns the per-user directory holding config, history and logs.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, ConfigDirName), nil
}

func defaultUserConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyStorageRoot, DefaultStorageRoot)
	v.SetDefault(KeyStorageVersionFile, ".system/version.txt")
	v.SetDefault(KeyStorageTempDir, "")

	v.SetDefault(KeyRepoOwner, "LoveRetro")
	v.SetDefault(KeyRepoName, "NextUI")
	v.SetDefault(KeyAPIBaseURL, "https://api.github.com")
	v.SetDefault(KeyAPIToken, "")
	v.SetDefault(KeyAPITimeout, 15*time.Second)

	v.SetDefault(KeyCatalogPerPage, 30)
	v.SetDefault(KeyCatalogMaxPages, 5)

	v.SetDefault(KeyAssetsPrimarySuffix, "-base.zip")
	v.SetDefault(KeyAssetsExtrasSuffix, "-extras.zip")
	v.SetDefault(KeyAssetsChecksumName, "checksums.txt")
	v.SetDefault(KeyAssetsQuickEntries, []string{"MinUI.zip"})

	v.SetDefault(KeyHistoryEnabled, true)
	v.SetDefault(KeyHistoryPath, "")

	v.SetDefault(KeyUIFrameInterval, DefaultFrameInterval)
	v.SetDefault(KeyUINotesStyle, "dark")

	v.SetDefault(KeyWorkersCount, 2)
	v.SetDefault(KeyWorkersQueue, 8)

	v.SetDefault(KeyDebug, false)
}

func getViper() (*viper.Viper, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	configMu.RLock()
	defer configMu.RUnlock()
	if configInst == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return configInst, nil
}

// reset clears package state for tests.
//
//nolint:unused // Used in config_test.go
func reset() {
	configMu.Lock()
	defer configMu.Unlock()
	configInst = nil
	initErr = nil
	configOnce = sync.Once{}
}

// ResetForTesting clears package state for tests in other packages.
// Returns a cleanup function that should be deferred.
func ResetForTesting(t interface{ TempDir() string }) func() {
	reset()
	tmp := t.TempDir()
	_ = Initialize(WithStorageRoot(tmp), WithUserConfig(filepath.Join(tmp, "user.yaml")))
	return reset
}
