package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"stemline/internal/snapshot"
)

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage track-state snapshots",
	}

	snapshotCmd.AddCommand(newSnapshotListCommand(ctx))
	snapshotCmd.AddCommand(newSnapshotCreateCommand(ctx))
	snapshotCmd.AddCommand(newSnapshotShowCommand(ctx))
	snapshotCmd.AddCommand(newSnapshotRenameCommand(ctx))
	snapshotCmd.AddCommand(newSnapshotDeleteCommand(ctx))
	snapshotCmd.AddCommand(newSnapshotApplyCommand(ctx))

	return snapshotCmd
}

func newSnapshotListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.snapshotEngine()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			snapshots := engine.List()
			if len(snapshots) == 0 {
				fmt.Fprintln(out, "No snapshots saved")
				return nil
			}

			rows := make([][]string, 0, len(snapshots))
			for _, snap := range snapshots {
				stats := snapshot.StatsFor(snap)
				rows = append(rows, []string{
					snap.Name,
					strconv.Itoa(stats.TotalTracks),
					strconv.Itoa(stats.SoloedTracks),
					strconv.Itoa(stats.MutedTracks),
					snap.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Tracks", "Solo", "Mute", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))

			if info := engine.StorageInfo(); !info.Available {
				fmt.Fprintln(out, "Warning: no session connected; snapshots are held in memory only")
			}
			return nil
		},
	}
}

func newSnapshotCreateCommand(ctx *commandContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Capture the current track solo/mute state",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.snapshotEngine()
			if err != nil {
				return err
			}
			gw, err := ctx.ensureGateway()
			if err != nil {
				return err
			}

			tracks := gw.Tracks(cmd.Context())
			if len(tracks) == 0 {
				return errors.New("no tracks available; is a session connected?")
			}

			snap, err := engine.CaptureFromTracks(name, tracks)
			if err != nil {
				return err
			}
			stats := snapshot.StatsFor(snap)
			fmt.Fprintf(cmd.OutOrStdout(), "Captured %q: %d tracks (%d solo, %d mute)\n",
				snap.Name, stats.TotalTracks, stats.SoloedTracks, stats.MutedTracks)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Snapshot name (derived from soloed tracks when omitted)")
	return cmd
}

func newSnapshotShowCommand(ctx *commandContext) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show one snapshot's captured track states",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.snapshotEngine()
			if err != nil {
				return err
			}
			snap, err := engine.GetByName(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Snapshot: %s\n", snap.Name)
			fmt.Fprintf(out, "Created:  %s\n", snap.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			if !snap.UpdatedAt.IsZero() {
				fmt.Fprintf(out, "Updated:  %s\n", snap.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
			}

			rows := make([][]string, 0, len(snap.TrackStates))
			for _, state := range snap.TrackStates {
				rows = append(rows, []string{
					state.TrackName,
					string(state.Type),
					yesNo(state.IsSoloed),
					yesNo(state.IsMuted),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Track", "Type", "Solo", "Mute"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			if remote {
				gw, err := ctx.ensureGateway()
				if err != nil {
					return err
				}
				info, err := gw.SnapshotInfo(cmd.Context(), snap)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Session service view: %d tracks (%d solo, %d mute, %d normal)\n",
					info.TotalTracks, info.SoloedTracks, info.MutedTracks, info.NormalTracks)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Also ask the session service to describe the snapshot")
	return cmd
}

func newSnapshotRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name> <new-name>",
		Short: "Rename a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.snapshotEngine()
			if err != nil {
				return err
			}
			snap, err := engine.GetByName(args[0])
			if err != nil {
				return err
			}
			newName := args[1]
			if _, err := engine.Apply(snap.ID, snapshot.Update{Name: &newName}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q\n", args[0], newName)
			return nil
		},
	}
}

func newSnapshotDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.snapshotEngine()
			if err != nil {
				return err
			}
			snap, err := engine.GetByName(args[0])
			if err != nil {
				if errors.Is(err, snapshot.ErrNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "No snapshot named %q\n", args[0])
					return nil
				}
				return err
			}
			if err := engine.Delete(snap.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", snap.Name)
			return nil
		},
	}
}

func newSnapshotApplyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <name>",
		Short: "Apply a snapshot's solo/mute state to the live session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.snapshotEngine()
			if err != nil {
				return err
			}
			gw, err := ctx.ensureGateway()
			if err != nil {
				return err
			}
			snap, err := engine.GetByName(args[0])
			if err != nil {
				return err
			}
			if err := gw.ApplySnapshot(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %q to the live session\n", snap.Name)
			return nil
		},
	}
}
