package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past export runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryStatsCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded export runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "History recording is disabled")
				return nil
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No export runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.TaskID,
					string(entry.Status),
					fmt.Sprintf("%d/%d", entry.ExportedCount, entry.SnapshotCount),
					fmt.Sprintf("%.1fs", entry.DurationSeconds),
					entry.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Task", "Status", "Exported", "Duration", "Started"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one recorded run in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "History recording is disabled")
				return nil
			}
			defer store.Close()

			entry, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if entry == nil {
				fmt.Fprintf(out, "No recorded run matches %q\n", args[0])
				return nil
			}

			fmt.Fprintf(out, "Task:      %s\n", entry.TaskID)
			fmt.Fprintf(out, "Status:    %s\n", entry.Status)
			fmt.Fprintf(out, "Snapshots: %d (%d exported)\n", entry.SnapshotCount, entry.ExportedCount)
			fmt.Fprintf(out, "Output:    %s\n", entry.OutputPath)
			fmt.Fprintf(out, "Duration:  %.1fs\n", entry.DurationSeconds)
			fmt.Fprintf(out, "Started:   %s\n", entry.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			if !entry.CompletedAt.IsZero() {
				fmt.Fprintf(out, "Finished:  %s\n", entry.CompletedAt.Local().Format("2006-01-02 15:04:05"))
			}
			if entry.Error != "" {
				fmt.Fprintf(out, "Error:     %s\n", entry.Error)
			}
			for _, name := range entry.FailedSnapshots {
				fmt.Fprintf(out, "Failed:    %s\n", name)
			}
			return nil
		},
	}
}

func newHistoryStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded export runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "History recording is disabled")
				return nil
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			rows := [][]string{
				{"Total runs", strconv.Itoa(stats.TotalRuns)},
				{"Completed", strconv.Itoa(stats.CompletedRuns)},
				{"Failed", strconv.Itoa(stats.FailedRuns)},
				{"Cancelled", strconv.Itoa(stats.CancelledRuns)},
				{"Files exported", strconv.Itoa(stats.ExportedFiles)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Metric", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded export run",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "History recording is disabled")
				return nil
			}
			defer store.Close()

			if !yes {
				return fmt.Errorf("refusing to clear history without --yes")
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared export history")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")
	return cmd
}
