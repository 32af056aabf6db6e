package preset

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"stemline/internal/logging"
	"stemline/internal/services"
)

// ImportError reports one rejected interchange entry by its position in the
// source document.
type ImportError struct {
	Index  int
	Reason string
}

// ImportResult summarizes an interchange import.
type ImportResult struct {
	Imported int
	Errors   []ImportError
}

// Export serializes the full collection to w in the interchange format. The
// document has the same shape as the store file, so an exported file can be
// imported as is.
func (e *Engine) Export(w io.Writer) error {
	presets := e.List()
	if presets == nil {
		presets = []ExportPreset{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(presets); err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}
	return nil
}

// Import reads an interchange document and appends its valid entries to the
// collection. Each entry is validated structurally; invalid entries are
// skipped and reported by index. Imported presets get fresh identifiers and
// creation timestamps so source IDs never collide with existing ones. The
// whole import fails only when the document is not a JSON array.
func (e *Engine) Import(r io.Reader) (ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read import document: %w", err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return ImportResult{}, fmt.Errorf("%w: import document must be a JSON array", services.ErrValidation)
	}

	var result ImportResult
	var accepted []ExportPreset
	for i, raw := range entries {
		p, reason := decodeEntry(raw)
		if reason != "" {
			result.Errors = append(result.Errors, ImportError{Index: i, Reason: reason})
			continue
		}
		accepted = append(accepted, p)
	}

	e.mu.Lock()
	now := e.now().UTC()
	for _, p := range accepted {
		p.ID = uuid.NewString()
		p.CreatedAt = now
		p.UpdatedAt = time.Time{}
		e.items = append(e.items, p)
		result.Imported++
	}
	var persistErr error
	if result.Imported > 0 {
		persistErr = e.persistLocked("import")
	}
	e.mu.Unlock()

	e.logger.Info("presets imported",
		logging.Int("imported", result.Imported),
		logging.Int("rejected", len(result.Errors)))
	return result, persistErr
}

// decodeEntry validates one interchange entry. The returned reason is empty
// for a valid entry.
func decodeEntry(raw json.RawMessage) (ExportPreset, string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ExportPreset{}, "entry is not an object"
	}

	name, ok := stringField(fields, "name")
	if !ok || strings.TrimSpace(name) == "" {
		return ExportPreset{}, "name must be a non-empty string"
	}
	formatRaw, ok := stringField(fields, "file_format")
	if !ok {
		return ExportPreset{}, "file_format must be a string"
	}
	format, ok := ParseAudioFormat(formatRaw)
	if !ok {
		return ExportPreset{}, fmt.Sprintf("unrecognized file_format %q", formatRaw)
	}
	mixName, ok := stringField(fields, "mix_source_name")
	if !ok {
		return ExportPreset{}, "mix_source_name must be a string"
	}
	mixTypeRaw, ok := stringField(fields, "mix_source_type")
	if !ok {
		return ExportPreset{}, "mix_source_type must be a string"
	}
	mixType, ok := ParseMixSourceType(mixTypeRaw)
	if !ok {
		return ExportPreset{}, fmt.Sprintf("unrecognized mix_source_type %q", mixTypeRaw)
	}

	return ExportPreset{
		Name:          strings.TrimSpace(name),
		FileFormat:    format,
		MixSourceName: mixName,
		MixSourceType: mixType,
	}, ""
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, present := fields[key]
	if !present {
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}
