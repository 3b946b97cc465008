package update

import (
	"bufio"
	"os"
	"strings"
)

// ReadInstalledVersion returns the fingerprint of the installed build. The
// version file holds the release name on the first line and the commit hash
// on the second; the commit hash is preferred. A missing or unreadable file
// yields "".
func ReadInstalledVersion(path string) string {
	//nolint:gosec // G304: Path is the configured version file on the storage root
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(lines) < 2 {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}

	if len(lines) >= 2 && lines[1] != "" {
		return lines[1]
	}
	if len(lines) >= 1 {
		return lines[0]
	}
	return ""
}
