package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nextui-updater/internal/config"
	"nextui-updater/internal/state"
	"nextui-updater/internal/update"
)

func newCheckCmd(_ *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether a newer release is available",
		Long: `Fetch the latest release and compare it with the installed build.
Exits 0 when an update is available and 1 otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			available, err := runCheck(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !available {
				return errUpToDate
			}
			return nil
		},
	}
}

// runCheck resolves the latest release once and prints how it compares to
// the installed build.
func runCheck(ctx context.Context, w io.Writer) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	store := state.New(update.ReadInstalledVersion(installedVersionPath()))
	resolver := newResolver(store)

	if _, _, err := resolver.FetchLatest(ctx); err != nil {
		return false, err
	}

	snap := store.Snapshot()
	installed := snap.InstalledVersion
	if installed == "" {
		installed = "unknown"
	}
	_, _ = fmt.Fprintf(w, "Repository: %s\n", resolver.Repository())
	_, _ = fmt.Fprintf(w, "Storage:    %s\n", config.GetString(config.KeyStorageRoot))
	_, _ = fmt.Fprintf(w, "Installed:  %s\n", installed)

	release, tag := snap.Target()
	switch {
	case tag != nil:
		_, _ = fmt.Fprintf(w, "Latest:     %s (%s)\n", tag.Name, shortSHA(tag.Commit.SHA))
	case release != nil:
		_, _ = fmt.Fprintf(w, "Latest:     %s\n", release.TagName)
	default:
		_, _ = fmt.Fprintln(w, "Latest:     none published")
		return false, nil
	}

	if snap.UpdateAvailable() {
		_, _ = fmt.Fprintln(w, "Update available")
		return true, nil
	}
	_, _ = fmt.Fprintln(w, "Up to date")
	return false, nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
