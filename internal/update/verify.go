package update

import (
	"archive/zip"
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Error variables for verification failures.
var (
	ErrChecksumMismatch = errors.New("package does not match its published digest")
	ErrEmptyArchive     = errors.New("archive has no entries")
)

// Manifest maps package asset names to their published SHA-256 digests.
type Manifest map[string]string

// ParseManifest reads a sha256sum-style manifest ("<digest>  <name>" per
// line). Names are reduced to their base so "./dist/x.zip" lists "x.zip".
// Lines whose first field is not a 64-digit hex digest are ignored.
func ParseManifest(r io.Reader) (Manifest, error) {
	m := Manifest{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 || !isDigest(fields[0]) {
			continue
		}
		name := filepath.Base(strings.TrimPrefix(fields[1], "*"))
		m[name] = strings.ToLower(fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return m, nil
}

// Verify hashes the downloaded package at path and compares it with the
// manifest entry for asset. A package the manifest does not list passes;
// it reports whether a digest was checked.
func (m Manifest) Verify(asset, path string) (bool, error) {
	want, ok := m[asset]
	if !ok {
		return false, nil
	}
	got, err := fileDigest(path)
	if err != nil {
		return true, err
	}
	if got != want {
		return true, fmt.Errorf("%w: %s hashes to %s, manifest lists %s", ErrChecksumMismatch, asset, got, want)
	}
	return true, nil
}

func fileDigest(path string) (string, error) {
	//nolint:gosec // G304: path is a package we downloaded into our temp dir
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// VerifyArchive opens the zip at path and reads every entry through, which
// validates each entry's CRC-32.
func VerifyArchive(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = zr.Close() }()

	if len(zr.File) == 0 {
		return ErrEmptyArchive
	}
	for _, f := range zr.File {
		if err := readThrough(f); err != nil {
			return fmt.Errorf("entry %s: %w", f.Name, err)
		}
	}
	return nil
}

func readThrough(f *zip.File) error {
	if f.FileInfo().IsDir() {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	//nolint:gosec // G110: bounded by the archive we just downloaded
	_, err = io.Copy(io.Discard, rc)
	return err
}
