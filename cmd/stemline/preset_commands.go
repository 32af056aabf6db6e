package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"stemline/internal/preset"
)

func newPresetCommand(ctx *commandContext) *cobra.Command {
	presetCmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage export presets",
	}

	presetCmd.AddCommand(newPresetListCommand(ctx))
	presetCmd.AddCommand(newPresetCreateCommand(ctx))
	presetCmd.AddCommand(newPresetEditCommand(ctx))
	presetCmd.AddCommand(newPresetDeleteCommand(ctx))
	presetCmd.AddCommand(newPresetExportCommand(ctx))
	presetCmd.AddCommand(newPresetImportCommand(ctx))

	return presetCmd
}

func newPresetListCommand(ctx *commandContext) *cobra.Command {
	var page int
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List export presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.presetEngine()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var presets []preset.ExportPreset
			var footer string
			if all {
				presets = engine.List()
			} else {
				result := engine.ListPage(page)
				presets = result.Presets
				if result.TotalPages > 1 {
					footer = fmt.Sprintf("Page %d of %d (%d presets total)", result.Page, result.TotalPages, result.TotalCount)
				}
			}
			if len(presets) == 0 {
				fmt.Fprintln(out, "No presets saved")
				return nil
			}

			rows := make([][]string, 0, len(presets))
			for _, p := range presets {
				rows = append(rows, []string{
					p.Name,
					string(p.FileFormat),
					p.MixSourceName,
					string(p.MixSourceType),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Format", "Mix source", "Source type"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			if footer != "" {
				fmt.Fprintln(out, footer)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page to display")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "List every preset without paging")
	return cmd
}

func newPresetCreateCommand(ctx *commandContext) *cobra.Command {
	var format string
	var mixName string
	var mixType string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an export preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.presetEngine()
			if err != nil {
				return err
			}

			audioFormat, ok := preset.ParseAudioFormat(format)
			if !ok {
				return fmt.Errorf("unrecognized file format %q (want wav or aiff)", format)
			}
			sourceType, ok := preset.ParseMixSourceType(mixType)
			if !ok {
				return fmt.Errorf("unrecognized mix source type %q (want PhysicalOut, Bus, or Output)", mixType)
			}

			created, err := engine.Create(args[0], audioFormat, mixName, sourceType)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created preset %q (%s via %s %s)\n",
				created.Name, created.FileFormat, created.MixSourceType, created.MixSourceName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(preset.FormatWAV), "Audio file format (wav or aiff)")
	cmd.Flags().StringVarP(&mixName, "mix-source", "m", "", "Mix source name, e.g. a hardware output or bus")
	cmd.Flags().StringVarP(&mixType, "mix-type", "t", string(preset.MixSourcePhysicalOut), "Mix source type (PhysicalOut, Bus, or Output)")
	_ = cmd.MarkFlagRequired("mix-source")
	return cmd
}

func newPresetEditCommand(ctx *commandContext) *cobra.Command {
	var newName string
	var format string
	var mixName string
	var mixType string

	cmd := &cobra.Command{
		Use:   "edit <name>",
		Short: "Update fields of an existing preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.presetEngine()
			if err != nil {
				return err
			}
			current, err := engine.GetByName(args[0])
			if err != nil {
				return err
			}

			var upd preset.Update
			if cmd.Flags().Changed("rename") {
				upd.Name = &newName
			}
			if cmd.Flags().Changed("format") {
				audioFormat, ok := preset.ParseAudioFormat(format)
				if !ok {
					return fmt.Errorf("unrecognized file format %q (want wav or aiff)", format)
				}
				upd.FileFormat = &audioFormat
			}
			if cmd.Flags().Changed("mix-source") {
				upd.MixSourceName = &mixName
			}
			if cmd.Flags().Changed("mix-type") {
				sourceType, ok := preset.ParseMixSourceType(mixType)
				if !ok {
					return fmt.Errorf("unrecognized mix source type %q (want PhysicalOut, Bus, or Output)", mixType)
				}
				upd.MixSourceType = &sourceType
			}
			if upd.Name == nil && upd.FileFormat == nil && upd.MixSourceName == nil && upd.MixSourceType == nil {
				return errors.New("nothing to change; pass at least one of --rename, --format, --mix-source, --mix-type")
			}

			updated, err := engine.Apply(current.ID, upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated preset %q\n", updated.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&newName, "rename", "", "New preset name")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Audio file format (wav or aiff)")
	cmd.Flags().StringVarP(&mixName, "mix-source", "m", "", "Mix source name")
	cmd.Flags().StringVarP(&mixType, "mix-type", "t", "", "Mix source type (PhysicalOut, Bus, or Output)")
	return cmd
}

func newPresetDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.presetEngine()
			if err != nil {
				return err
			}
			p, err := engine.GetByName(args[0])
			if err != nil {
				if errors.Is(err, preset.ErrNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "No preset named %q\n", args[0])
					return nil
				}
				return err
			}
			if err := engine.Delete(p.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", p.Name)
			return nil
		},
	}
}

func newPresetExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write all presets to a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.presetEngine()
			if err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := engine.Export(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close export file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d presets to %s\n", engine.Count(), args[0])
			return nil
		},
	}
}

func newPresetImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import presets from a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.presetEngine()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()

			result, err := engine.Import(f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d presets\n", result.Imported)
			if len(result.Errors) > 0 {
				rows := make([][]string, 0, len(result.Errors))
				for _, importErr := range result.Errors {
					rows = append(rows, []string{strconv.Itoa(importErr.Index), importErr.Reason})
				}
				fmt.Fprintf(out, "Skipped %d entries:\n", len(result.Errors))
				fmt.Fprintln(out, renderTable(
					[]string{"Entry", "Reason"},
					rows,
					[]columnAlignment{alignRight, alignLeft},
				))
			}
			return nil
		},
	}
}
