package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nextui-updater/internal/config"
	"nextui-updater/internal/debug"
	apperrors "nextui-updater/internal/errors"
)

// errUpToDate makes `check` exit non-zero without printing an error.
var errUpToDate = errors.New("no update available")

type rootFlags struct {
	storageRoot string
	repo        string
	debug       bool
	noHistory   bool
	version     bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "nextui-updater",
		Short:         "Update NextUI firmware on the SD card",
		Long:          `Check GitHub for NextUI releases and install the base and extras packages onto the device storage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, flags)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.version {
				printVersion(cmd.OutOrStdout())
				return nil
			}
			return runTUI(cmd.Context(), programFactory(defaultProgram))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.storageRoot, "storage-root", config.DefaultStorageRoot, "Mount point of the device storage")
	pf.StringVar(&flags.repo, "repo", "", "GitHub repository to update from, as owner/name")
	pf.BoolVar(&flags.debug, "debug", false, "Write a debug log to ~/.nextui-updater/debug.log")
	pf.BoolVar(&flags.noHistory, "no-history", false, "Do not record update attempts")
	root.Flags().BoolVar(&flags.version, "version", false, "Print version information and exit")

	root.AddCommand(newCheckCmd(flags))
	root.AddCommand(newHistoryCmd(flags))
	return root
}

// setup loads configuration with flag overrides and starts debug logging.
// Flags only override configuration when set explicitly.
func setup(cmd *cobra.Command, flags *rootFlags) error {
	var opts []config.Option
	if cmd.Flags().Changed("storage-root") {
		opts = append(opts, config.WithStorageRoot(flags.storageRoot))
	}
	if err := config.Initialize(opts...); err != nil {
		return apperrors.New(apperrors.CodeConfigurationError, "Error initializing config", err)
	}

	overrides := map[string]any{}
	if cmd.Flags().Changed("repo") {
		owner, name, err := parseRepo(flags.repo)
		if err != nil {
			return err
		}
		overrides[config.KeyRepoOwner] = owner
		overrides[config.KeyRepoName] = name
	}
	if cmd.Flags().Changed("debug") {
		overrides[config.KeyDebug] = flags.debug
	}
	if flags.noHistory {
		overrides[config.KeyHistoryEnabled] = false
	}
	if err := config.ApplyOverrides(overrides); err != nil {
		return apperrors.New(apperrors.CodeConfigurationError, "Error applying flags", err)
	}

	if err := debug.Init(config.GetBool(config.KeyDebug)); err != nil {
		return fmt.Errorf("initialize debug log: %w", err)
	}
	return nil
}

// parseRepo splits "owner/name".
func parseRepo(value string) (string, string, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(value), "/")
	owner, name = strings.TrimSpace(owner), strings.TrimSpace(name)
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", apperrors.New(apperrors.CodeConfigurationError,
			fmt.Sprintf("invalid repository %q, expected owner/name", value), nil)
	}
	return owner, name, nil
}

func main() {
	err := newRootCmd().Execute()
	debug.Close()
	if err != nil {
		if !errors.Is(err, errUpToDate) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
