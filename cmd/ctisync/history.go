package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/ctisync/internal/config"
	"github.com/nao1215/ctisync/internal/database"
	"github.com/nao1215/ctisync/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past connector runs",
		Long: `History lists the connector runs recorded in the local database.

Each row shows when the run started, which feed it ingested, and how
many labels and observables it processed.

Examples:
  # List the most recent runs
  ctisync history

  # List the last 5 runs
  ctisync history --limit 5

  # Print the full summary of the most recent run as JSON
  ctisync history --last`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list (0 = no limit)")
	cmd.Flags().Bool("last", false, "Print the most recent run's full summary as JSON")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	last, err := cmd.Flags().GetBool("last")
	if err != nil {
		return err
	}

	db, err := database.Open(config.XDGDataDir())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close() //nolint:errcheck // Best effort cleanup

	ctx := cmd.Context()

	if last {
		_, summary, err := db.LatestRun(ctx)
		if err != nil {
			if errors.Is(err, database.ErrRunNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}
			return err
		}

		_, err = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint()).Write(summary)
		return err
	}

	records, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%-5s %-20s %-8s %-8s %-8s %s\n",
		"ID", "STARTED", "LABELS", "OBJECTS", "FAILED", "FEED")
	for _, r := range records {
		fmt.Fprintf(cmd.OutOrStdout(), "%-5d %-20s %-8d %-8d %-8d %s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.LabelCount,
			r.ObjectCount,
			r.FailureCount,
			r.FeedURL,
		)
	}

	return nil
}
