package preset

import (
	"strings"
	"time"
)

// AudioFormat is the rendered file format for an export run.
type AudioFormat string

const (
	FormatWAV  AudioFormat = "wav"
	FormatAIFF AudioFormat = "aiff"
)

// ParseAudioFormat converts a string into a known AudioFormat.
func ParseAudioFormat(value string) (AudioFormat, bool) {
	switch AudioFormat(strings.ToLower(strings.TrimSpace(value))) {
	case FormatWAV:
		return FormatWAV, true
	case FormatAIFF:
		return FormatAIFF, true
	default:
		return "", false
	}
}

// MixSourceType identifies the kind of output the session service renders
// from. The values are the session service's own spelling and are matched
// exactly on the wire.
type MixSourceType string

const (
	MixSourcePhysicalOut MixSourceType = "PhysicalOut"
	MixSourceBus         MixSourceType = "Bus"
	MixSourceOutput      MixSourceType = "Output"
)

// ParseMixSourceType converts a string into a known MixSourceType.
func ParseMixSourceType(value string) (MixSourceType, bool) {
	switch MixSourceType(strings.TrimSpace(value)) {
	case MixSourcePhysicalOut:
		return MixSourcePhysicalOut, true
	case MixSourceBus:
		return MixSourceBus, true
	case MixSourceOutput:
		return MixSourceOutput, true
	default:
		return "", false
	}
}

// ExportPreset is a named, reusable set of export parameters.
type ExportPreset struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	FileFormat    AudioFormat   `json:"file_format"`
	MixSourceName string        `json:"mix_source_name"`
	MixSourceType MixSourceType `json:"mix_source_type"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt,omitzero"`
}

// Page is one page of the preset collection.
type Page struct {
	Presets    []ExportPreset
	Page       int
	PageSize   int
	TotalCount int
	TotalPages int
}
