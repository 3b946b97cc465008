package update

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// Error variables for extraction failures.
var (
	ErrUnsafePath       = errors.New("entry escapes the storage root")
	ErrUnsupportedEntry = errors.New("unsupported entry type")
	ErrInsufficientDisk = errors.New("not enough free space")
	ErrEntryNotFound    = errors.New("entry not found in package")
)

// diskFree reports free bytes on the filesystem holding path.
var diskFree = func(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// selectEntries returns the entries of zr to extract. With a non-empty only
// list, exactly those entry paths are taken and each must exist. Every
// selected entry is checked for a safe path and a supported type.
func selectEntries(zr *zip.Reader, only []string) ([]*zip.File, error) {
	var selected []*zip.File
	if len(only) == 0 {
		selected = append(selected, zr.File...)
	} else {
		byName := make(map[string]*zip.File, len(zr.File))
		for _, f := range zr.File {
			byName[path.Clean(f.Name)] = f
		}
		for _, name := range only {
			f, ok := byName[path.Clean(name)]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
			}
			selected = append(selected, f)
		}
	}

	for _, f := range selected {
		if _, err := entryTarget("", f.Name); err != nil {
			return nil, err
		}
		mode := f.Mode()
		if !mode.IsDir() && !mode.IsRegular() {
			return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedEntry, f.Name, mode.Type())
		}
	}
	return selected, nil
}

// entryTarget resolves an archive entry name below root, rejecting absolute
// names and names that climb out of root.
func entryTarget(root, name string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if clean == "." {
		return root, nil
	}
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}

// uncompressedSize sums the sizes of the regular entries in files.
func uncompressedSize(files []*zip.File) uint64 {
	var total uint64
	for _, f := range files {
		if !f.FileInfo().IsDir() {
			total += f.UncompressedSize64
		}
	}
	return total
}

// checkFreeSpace fails when root has less than need bytes free.
func checkFreeSpace(root string, need uint64) error {
	free, err := diskFree(root)
	if err != nil {
		return fmt.Errorf("query free space: %w", err)
	}
	if free < need {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrInsufficientDisk, need, free)
	}
	return nil
}

// extractEntries writes files below root, overwriting existing files.
// onEntry is called after each entry.
func extractEntries(files []*zip.File, root string, onEntry func()) error {
	for _, f := range files {
		if err := extractEntry(f, root); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
		if onEntry != nil {
			onEntry()
		}
	}
	return nil
}

func extractEntry(f *zip.File, root string) error {
	target, err := entryTarget(root, f.Name)
	if err != nil {
		return err
	}

	if f.FileInfo().IsDir() {
		//nolint:gosec // G301: storage directories need standard permissions
		return os.MkdirAll(target, 0755)
	}

	//nolint:gosec // G301: storage directories need standard permissions
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}
	//nolint:gosec // G304: target was checked to stay below the storage root
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	//nolint:gosec // G110: archive was verified before extraction
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
