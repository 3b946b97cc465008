package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"nextui-updater/internal/history"
)

const defaultHistoryLimit = 20

func newHistoryCmd(_ *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent update attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), cmd.OutOrStdout(), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Number of attempts to show")
	return cmd
}

func runHistory(ctx context.Context, w io.Writer, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	path, err := historyPath()
	if err != nil {
		return err
	}
	hist, err := history.Open(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()

	attempts, err := hist.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		_, _ = fmt.Fprintln(w, "No update attempts recorded.")
		return nil
	}
	_, _ = fmt.Fprintln(w, renderHistory(attempts))
	return nil
}

// renderHistory lays attempts out as a table, newest first.
func renderHistory(attempts []history.Attempt) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "STARTED", "MODE", "TAG", "OUTCOME", "DURATION", "ERROR").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, a := range attempts {
		t.Row(
			strconv.FormatInt(a.ID, 10),
			a.StartedAt.Local().Format("2006-01-02 15:04"),
			a.Mode,
			a.Tag,
			a.Outcome,
			a.Duration().Round(time.Second).String(),
			a.Error,
		)
	}
	return t.String()
}
