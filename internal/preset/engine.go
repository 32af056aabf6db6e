package preset

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stemline/internal/logging"
	"stemline/internal/services"
)

// DefaultPageSize matches the reference page size of the preset picker.
const DefaultPageSize = 3

// Engine owns the in-memory preset collection and keeps the backing store in
// sync. All operations are safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	store    Store
	items    []ExportPreset
	pageSize int
	logger   *slog.Logger
	now      func() time.Time
}

// Update carries the mutable fields of a preset. Nil fields are left
// untouched.
type Update struct {
	Name          *string
	FileFormat    *AudioFormat
	MixSourceName *string
	MixSourceType *MixSourceType
}

// NewEngine constructs an engine and eagerly loads the persisted collection.
// pageSize <= 0 selects the default.
func NewEngine(store Store, pageSize int, logger *slog.Logger) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	e := &Engine{
		store:    store,
		pageSize: pageSize,
		logger:   logging.NewComponentLogger(logger, "preset"),
		now:      time.Now,
	}
	items, err := store.Load()
	if err != nil {
		e.logger.Warn("failed to load preset store, starting empty", logging.Error(err))
		items = nil
	}
	e.items = items
	return e
}

// Create validates and persists a new preset. Names must be unique within
// the collection, compared case-insensitively.
func (e *Engine) Create(name string, format AudioFormat, mixSourceName string, mixSourceType MixSourceType) (ExportPreset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ExportPreset{}, fmt.Errorf("%w: preset name required", services.ErrValidation)
	}
	if _, ok := ParseAudioFormat(string(format)); !ok {
		return ExportPreset{}, fmt.Errorf("%w: unknown file format %q", services.ErrValidation, format)
	}
	if _, ok := ParseMixSourceType(string(mixSourceType)); !ok {
		return ExportPreset{}, fmt.Errorf("%w: unknown mix source type %q", services.ErrValidation, mixSourceType)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.findByNameLocked(name) >= 0 {
		return ExportPreset{}, fmt.Errorf("%w %q", ErrDuplicateName, name)
	}

	p := ExportPreset{
		ID:            uuid.NewString(),
		Name:          name,
		FileFormat:    format,
		MixSourceName: mixSourceName,
		MixSourceType: mixSourceType,
		CreatedAt:     e.now().UTC(),
	}
	e.items = append(e.items, p)
	err := e.persistLocked("create")
	e.logger.Info("preset created", logging.String(logging.FieldPreset, p.Name))
	return p, err
}

// Get returns the preset with the given ID.
func (e *Engine) Get(id string) (ExportPreset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.findByIDLocked(id)
	if i < 0 {
		return ExportPreset{}, fmt.Errorf("%w %q", ErrNotFound, id)
	}
	return e.items[i], nil
}

// GetByName returns the preset with the given name, compared
// case-insensitively.
func (e *Engine) GetByName(name string) (ExportPreset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.findByNameLocked(name)
	if i < 0 {
		return ExportPreset{}, fmt.Errorf("%w %q", ErrNotFound, name)
	}
	return e.items[i], nil
}

// List returns the full collection in insertion order.
func (e *Engine) List() []ExportPreset {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]ExportPreset, len(e.items))
	copy(out, e.items)
	return out
}

// ListPage returns one page of the collection. page is 1-based and clamped
// into range; an empty collection yields page 1 of 0.
func (e *Engine) ListPage(page int) Page {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := len(e.items)
	totalPages := (total + e.pageSize - 1) / e.pageSize
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	start := (page - 1) * e.pageSize
	end := start + e.pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	presets := make([]ExportPreset, end-start)
	copy(presets, e.items[start:end])

	return Page{
		Presets:    presets,
		Page:       page,
		PageSize:   e.pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}
}

// Apply mutates the identified preset in place. Renames keep the uniqueness
// guarantee; renaming a preset to its own name is allowed.
func (e *Engine) Apply(id string, upd Update) (ExportPreset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.findByIDLocked(id)
	if i < 0 {
		return ExportPreset{}, fmt.Errorf("%w %q", ErrNotFound, id)
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return ExportPreset{}, fmt.Errorf("%w: preset name required", services.ErrValidation)
		}
		if j := e.findByNameLocked(name); j >= 0 && j != i {
			return ExportPreset{}, fmt.Errorf("%w %q", ErrDuplicateName, name)
		}
		e.items[i].Name = name
	}
	if upd.FileFormat != nil {
		format, ok := ParseAudioFormat(string(*upd.FileFormat))
		if !ok {
			return ExportPreset{}, fmt.Errorf("%w: unknown file format %q", services.ErrValidation, *upd.FileFormat)
		}
		e.items[i].FileFormat = format
	}
	if upd.MixSourceName != nil {
		e.items[i].MixSourceName = *upd.MixSourceName
	}
	if upd.MixSourceType != nil {
		mixType, ok := ParseMixSourceType(string(*upd.MixSourceType))
		if !ok {
			return ExportPreset{}, fmt.Errorf("%w: unknown mix source type %q", services.ErrValidation, *upd.MixSourceType)
		}
		e.items[i].MixSourceType = mixType
	}
	e.items[i].UpdatedAt = e.now().UTC()
	err := e.persistLocked("update")
	return e.items[i], err
}

// Delete removes the preset with the given ID. Deleting an unknown ID is not
// an error.
func (e *Engine) Delete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.findByIDLocked(id)
	if i < 0 {
		return nil
	}
	name := e.items[i].Name
	e.items = append(e.items[:i], e.items[i+1:]...)
	err := e.persistLocked("delete")
	e.logger.Info("preset deleted", logging.String(logging.FieldPreset, name))
	return err
}

// Count returns the number of presets.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

// StorageInfo reports where the collection is persisted.
func (e *Engine) StorageInfo() StorageInfo {
	return e.store.Info()
}

func (e *Engine) findByIDLocked(id string) int {
	for i, p := range e.items {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) findByNameLocked(name string) int {
	for i, p := range e.items {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}

func (e *Engine) persistLocked(op string) error {
	err := e.store.Save(e.items)
	if err != nil {
		e.logger.Warn("failed to persist presets",
			logging.String("operation", op),
			logging.Error(err))
	}
	return err
}
