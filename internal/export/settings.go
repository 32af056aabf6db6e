package export

import (
	"fmt"
	"strings"

	"stemline/internal/preset"
	"stemline/internal/services"
	"stemline/internal/textutil"
)

// Settings is the per-run export configuration sent to the session service.
// Not persisted; built fresh for each run, optionally seeded from a preset.
type Settings struct {
	FileFormat    preset.AudioFormat   `json:"file_format"`
	MixSourceName string               `json:"mix_source_name"`
	MixSourceType preset.MixSourceType `json:"mix_source_type"`
	OnlineExport  bool                 `json:"online_export"`
	FilePrefix    string               `json:"file_prefix"`
	OutputPath    string               `json:"output_path"`
}

// NewSettings merges an optional preset with per-run input. Without a preset
// the format defaults to WAV and the mix source is left for the caller to
// fill in; Validate catches a missing one before submission.
func NewSettings(p *preset.ExportPreset, outputPath, filePrefix string, online bool) Settings {
	s := Settings{
		FileFormat:    preset.FormatWAV,
		MixSourceType: preset.MixSourcePhysicalOut,
		OnlineExport:  online,
		FilePrefix:    textutil.SanitizeFileName(filePrefix),
		OutputPath:    outputPath,
	}
	if p != nil {
		s.FileFormat = p.FileFormat
		s.MixSourceName = p.MixSourceName
		s.MixSourceType = p.MixSourceType
	}
	return s
}

// Validate checks the fields the session service would reject, so a bad run
// fails before any network call.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.OutputPath) == "" {
		return fmt.Errorf("%w: output path required", services.ErrValidation)
	}
	if strings.TrimSpace(s.MixSourceName) == "" {
		return fmt.Errorf("%w: mix source name required", services.ErrValidation)
	}
	if _, ok := preset.ParseAudioFormat(string(s.FileFormat)); !ok {
		return fmt.Errorf("%w: unknown file format %q", services.ErrValidation, s.FileFormat)
	}
	if _, ok := preset.ParseMixSourceType(string(s.MixSourceType)); !ok {
		return fmt.Errorf("%w: unknown mix source type %q", services.ErrValidation, s.MixSourceType)
	}
	return nil
}
