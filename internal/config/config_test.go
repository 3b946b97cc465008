package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestInitializeLoadsDefaults(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	userCfg := filepath.Join(tmp, "user.yaml")

	if err := Initialize(WithStorageRoot(tmp), WithUserConfig(userCfg)); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	if got := GetString(KeyRepoOwner); got != "LoveRetro" {
		t.Fatalf("expected default %s to be LoveRetro, got %q", KeyRepoOwner, got)
	}
	if got := GetString(KeyAssetsPrimarySuffix); got != "-base.zip" {
		t.Fatalf("expected default %s to be -base.zip, got %q", KeyAssetsPrimarySuffix, got)
	}
	if got := GetDuration(KeyUIFrameInterval); got != DefaultFrameInterval {
		t.Fatalf("expected default frame interval %v, got %v", DefaultFrameInterval, got)
	}
	if got := GetStringSlice(KeyAssetsQuickEntries); !reflect.DeepEqual(got, []string{"MinUI.zip"}) {
		t.Fatalf("expected default quick entries [MinUI.zip], got %v", got)
	}
	if !GetBool(KeyHistoryEnabled) {
		t.Fatalf("expected default %s to be true", KeyHistoryEnabled)
	}
	if got := GetString(KeyStorageRoot); got != tmp {
		t.Fatalf("expected storage root override %q, got %q", tmp, got)
	}
}

func TestStorageConfigOverridesUser(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	root := filepath.Join(tmp, "sdcard")
	writeFile(t, filepath.Join(root, filepath.FromSlash(StorageConfigPath)), `
repo:
  owner: card-owner
catalog:
  max-pages: 2
`)

	userCfg := filepath.Join(tmp, "user.yaml")
	writeFile(t, userCfg, `
repo:
  owner: user-owner
  name: user-repo
catalog:
  max-pages: 9
`)

	if err := Initialize(
		WithStorageRoot(root),
		WithUserConfig(userCfg),
	); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	if got := GetString(KeyRepoOwner); got != "card-owner" {
		t.Fatalf("expected storage config to win for %s, got %q", KeyRepoOwner, got)
	}
	if got := GetString(KeyRepoName); got != "user-repo" {
		t.Fatalf("expected user config value for %s, got %q", KeyRepoName, got)
	}
	if got := GetInt(KeyCatalogMaxPages); got != 2 {
		t.Fatalf("expected storage config max pages 2, got %d", got)
	}
}

func TestStorageRootFromUserConfig(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	root := filepath.Join(tmp, "card")
	writeFile(t, filepath.Join(root, filepath.FromSlash(StorageConfigPath)), `
assets:
  extras-suffix: -all.zip
`)
	userCfg := filepath.Join(tmp, "user.yaml")
	writeFile(t, userCfg, "storage:\n  root: "+root+"\n")

	if err := Initialize(WithUserConfig(userCfg)); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	if got := GetString(KeyAssetsExtrasSuffix); got != "-all.zip" {
		t.Fatalf("expected storage config under user-configured root to load, got %q", got)
	}
}

func TestEnvironmentAndOverridesPrecedence(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	storageCfg := filepath.Join(tmp, "card.yaml")
	writeFile(t, storageCfg, `
api:
  timeout: 3s
repo:
  name: card-repo
`)

	t.Setenv("NUU_API_TIMEOUT", "7s")
	t.Setenv("NUU_REPO_NAME", "env-repo")
	t.Setenv("NUU_ASSETS_QUICK_ENTRIES", "MinUI.zip, .system/version.txt")

	if err := Initialize(
		WithStorageRoot(tmp),
		WithStorageConfig(storageCfg),
		WithUserConfig(filepath.Join(tmp, "missing.yaml")),
	); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}

	if got := GetDuration(KeyAPITimeout); got != 7*time.Second {
		t.Fatalf("expected environment variable to override %s, got %v", KeyAPITimeout, got)
	}
	if got := GetString(KeyRepoName); got != "env-repo" {
		t.Fatalf("expected env override for %s, got %q", KeyRepoName, got)
	}
	if got := GetStringSlice(KeyAssetsQuickEntries); !reflect.DeepEqual(got, []string{"MinUI.zip", ".system/version.txt"}) {
		t.Fatalf("expected comma-separated env list to split, got %v", got)
	}

	if err := ApplyOverrides(map[string]any{KeyRepoName: "flag-repo", KeyDebug: true}); err != nil {
		t.Fatalf("ApplyOverrides returned error: %v", err)
	}
	if got := GetString(KeyRepoName); got != "flag-repo" {
		t.Fatalf("expected CLI override for %s, got %q", KeyRepoName, got)
	}
	if !GetBool(KeyDebug) {
		t.Fatalf("expected CLI override to set %s", KeyDebug)
	}
}

func TestInitializeRejectsDirectoryConfig(t *testing.T) {
	reset()
	t.Cleanup(reset)

	tmp := t.TempDir()
	dirAsConfig := filepath.Join(tmp, "config.yaml")
	mustMkdir(t, dirAsConfig)

	if err := Initialize(WithStorageRoot(tmp), WithUserConfig(dirAsConfig)); err == nil {
		t.Fatal("expected error when user config path is a directory")
	}
}

func mustMkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	mustMkdir(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}
