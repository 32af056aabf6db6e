package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect the connected workstation session",
	}

	sessionCmd.AddCommand(newSessionStatusCommand(ctx))
	sessionCmd.AddCommand(newSessionTracksCommand(ctx))

	return sessionCmd
}

func newSessionStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session service connection state",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := ctx.ensureGateway()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			status := gw.Status(cmd.Context())

			for _, line := range renderSectionHeader("Session", colorize) {
				fmt.Fprintln(out, line)
			}
			if !status.Connected {
				fmt.Fprintln(out, renderStatusLine("Connection", statusError, "no session service reachable", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Connection", statusOK, status.SessionName, colorize))
				fmt.Fprintln(out, renderStatusLine("Path", statusInfo, status.SessionPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Audio", statusInfo,
					fmt.Sprintf("%d Hz / %d bit", status.SampleRate, status.BitDepth), colorize))
				fmt.Fprintln(out, renderStatusLine("Tracks", statusInfo, strconv.Itoa(status.TrackCount), colorize))
			}
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Stores", colorize) {
				fmt.Fprintln(out, line)
			}
			if snapshots, err := ctx.snapshotEngine(); err == nil {
				if info := snapshots.StorageInfo(); info.Available {
					fmt.Fprintln(out, renderStatusLine("Snapshots", statusOK,
						fmt.Sprintf("%d at %s", snapshots.Count(), info.Path), colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Snapshots", statusWarn,
						fmt.Sprintf("%d in memory only", snapshots.Count()), colorize))
				}
			}
			if presets, err := ctx.presetEngine(); err == nil {
				fmt.Fprintln(out, renderStatusLine("Presets", statusOK,
					fmt.Sprintf("%d at %s", presets.Count(), presets.StorageInfo().Path), colorize))
			}
			return nil
		},
	}
}

func newSessionTracksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tracks",
		Short: "List tracks in the connected session",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := ctx.ensureGateway()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tracks := gw.Tracks(cmd.Context())
			if len(tracks) == 0 {
				fmt.Fprintln(out, "No tracks (session disconnected or empty)")
				return nil
			}

			rows := make([][]string, 0, len(tracks))
			for _, track := range tracks {
				rows = append(rows, []string{
					track.ID,
					track.Name,
					string(track.Type),
					yesNo(track.IsSoloed),
					yesNo(track.IsMuted),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Name", "Type", "Solo", "Mute"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintln(out, strconv.Itoa(len(tracks))+" tracks")
			return nil
		},
	}
}
