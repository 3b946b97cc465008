// Package update installs a NextUI release onto the target storage.
//
// This package handles:
//   - Reading the installed-version fingerprint from the storage root
//   - Choosing the release packages required for a quick or full update
//   - Downloading each package with byte-level progress
//   - Verifying checksums and archive integrity before anything is written
//   - Extracting packages in place over the storage root
//
// All blocking work runs on a background worker; the foreground only calls
// Pipeline.Start, which never blocks. Progress, labels and errors are
// published through the shared state store.
//
// Extraction overwrites files in place and is not rolled back. A failure
// during extraction can leave the storage partially updated; the error
// message says so.
//
// Example usage:
//
//	p := update.NewPipeline(store, pool, update.Config{StorageRoot: "/mnt/SDCARD"})
//	p.Start(update.ModeQuick)
package update
