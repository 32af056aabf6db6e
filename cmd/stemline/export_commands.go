package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stemline/internal/export"
	"stemline/internal/preset"
	"stemline/internal/snapshot"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Run and inspect stem exports",
	}

	exportCmd.AddCommand(newExportRunCommand(ctx))
	exportCmd.AddCommand(newExportStatusCommand(ctx))
	exportCmd.AddCommand(newExportStopCommand(ctx))

	return exportCmd
}

func newExportRunCommand(ctx *commandContext) *cobra.Command {
	var presetName string
	var outputPath string
	var filePrefix string
	var format string
	var mixName string
	var mixType string
	var offline bool

	cmd := &cobra.Command{
		Use:   "run <snapshot>...",
		Short: "Export the named snapshots as stems",
		Long: `Run exports each named snapshot in order: the snapshot's solo/mute
state is applied to the session and the resulting mix is bounced to the
output directory. Settings come from a preset, from flags, or both; flags
win over the preset.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			gw, err := ctx.ensureGateway()
			if err != nil {
				return err
			}
			snapshots, err := ctx.snapshotEngine()
			if err != nil {
				return err
			}

			selected := make([]snapshot.Snapshot, 0, len(args))
			for _, name := range args {
				snap, err := snapshots.GetByName(name)
				if err != nil {
					return err
				}
				selected = append(selected, snap)
			}

			var chosen *preset.ExportPreset
			if presetName != "" {
				presets, err := ctx.presetEngine()
				if err != nil {
					return err
				}
				p, err := presets.GetByName(presetName)
				if err != nil {
					return err
				}
				chosen = &p
			}

			settings := export.NewSettings(chosen, outputPath, filePrefix, !offline)
			if cmd.Flags().Changed("format") {
				audioFormat, ok := preset.ParseAudioFormat(format)
				if !ok {
					return fmt.Errorf("unrecognized file format %q (want wav or aiff)", format)
				}
				settings.FileFormat = audioFormat
			}
			if cmd.Flags().Changed("mix-source") {
				settings.MixSourceName = mixName
			}
			if cmd.Flags().Changed("mix-type") {
				sourceType, ok := preset.ParseMixSourceType(mixType)
				if !ok {
					return fmt.Errorf("unrecognized mix source type %q (want PhysicalOut, Bus, or Output)", mixType)
				}
				settings.MixSourceType = sourceType
			}

			out := cmd.OutOrStdout()
			opts := export.Options{
				PollInterval: cfg.ExportPollInterval(),
				FailureLimit: cfg.Export.PollFailureLimit,
			}
			if store, err := ctx.historyStore(); err != nil {
				return err
			} else if store != nil {
				defer store.Close()
				opts.Recorder = store
			}

			var lastLine string
			opts.OnUpdate = func(task export.Task) {
				line := fmt.Sprintf("[%d/%d] %s %.0f%%",
					task.CurrentSnapshot, task.TotalSnapshots, task.CurrentSnapshotName, task.Progress)
				if task.CurrentSnapshotName == "" {
					line = fmt.Sprintf("[%d/%d] %.0f%%", task.CurrentSnapshot, task.TotalSnapshots, task.Progress)
				}
				if line == lastLine {
					return
				}
				lastLine = line
				fmt.Fprintln(out, line)
			}

			orch := export.NewOrchestrator(gw, ctx.ensureLogger(), opts)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(out, "Exporting %d snapshots to %s\n", len(selected), settings.OutputPath)
			if err := orch.Start(runCtx, selected, settings); err != nil {
				return err
			}

			select {
			case <-runCtx.Done():
				fmt.Fprintln(out, "Interrupted; stopping export")
				orch.Cancel(cmd.Context())
				<-orch.Done()
			case <-orch.Done():
			}

			if err := orch.Err(); err != nil {
				if errors.Is(err, export.ErrStopped) {
					fmt.Fprintln(out, "Export stopped")
					return nil
				}
				return err
			}

			if task, ok := orch.Task(); ok && task.Result != nil {
				fmt.Fprintf(out, "Exported %d files in %.1fs\n",
					len(task.Result.ExportedFiles), task.Result.TotalDuration)
				for _, file := range task.Result.ExportedFiles {
					fmt.Fprintf(out, "  %s\n", file)
				}
			} else {
				fmt.Fprintln(out, "Export completed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&presetName, "preset", "P", "", "Export preset to seed settings from")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Directory to write stems into")
	cmd.Flags().StringVar(&filePrefix, "prefix", "", "Prefix for exported file names")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Audio file format (wav or aiff)")
	cmd.Flags().StringVarP(&mixName, "mix-source", "m", "", "Mix source name")
	cmd.Flags().StringVarP(&mixType, "mix-type", "t", "", "Mix source type (PhysicalOut, Bus, or Output)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Render faster than realtime instead of recording the live output")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newExportStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the session service's view of an export task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := ctx.ensureGateway()
			if err != nil {
				return err
			}
			task, err := gw.ExportStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task:     %s\n", task.TaskID)
			fmt.Fprintf(out, "Status:   %s\n", task.Status)
			fmt.Fprintf(out, "Progress: %.0f%% (%d/%d)\n", task.Progress, task.CurrentSnapshot, task.TotalSnapshots)
			if task.CurrentSnapshotName != "" {
				fmt.Fprintf(out, "Current:  %s\n", task.CurrentSnapshotName)
			}
			if task.Result != nil {
				fmt.Fprintf(out, "Exported: %d files\n", len(task.Result.ExportedFiles))
				if len(task.Result.FailedSnapshots) > 0 {
					fmt.Fprintf(out, "Failed:   %d snapshots\n", len(task.Result.FailedSnapshots))
				}
				if task.Result.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:    %s\n", task.Result.ErrorMessage)
				}
			}
			return nil
		},
	}
}

func newExportStopCommand(ctx *commandContext) *cobra.Command {
	var forget bool

	cmd := &cobra.Command{
		Use:   "stop <task-id>",
		Short: "Stop a running export task on the session service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := ctx.ensureGateway()
			if err != nil {
				return err
			}
			if err := gw.StopExport(cmd.Context(), args[0]); err != nil {
				return err
			}
			if forget {
				if err := gw.DeleteExportTask(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped task %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&forget, "forget", false, "Also remove the task from the session service's task list")
	return cmd
}
