package snapshot

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stemline/internal/logging"
	"stemline/internal/services"
)

// Engine owns the in-memory snapshot collection and keeps the backing store
// in sync. All operations are safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	store  Store
	items  []Snapshot
	logger *slog.Logger
	now    func() time.Time
}

// Update carries the mutable fields of a snapshot. Nil fields are left
// untouched.
type Update struct {
	Name        *string
	TrackStates *[]TrackState
}

// NewEngine constructs an engine and eagerly loads the persisted collection.
// A storage failure degrades to an empty collection with a warning so the
// session can still be worked on.
func NewEngine(store Store, logger *slog.Logger) *Engine {
	e := &Engine{
		store:  store,
		logger: logging.NewComponentLogger(logger, "snapshot"),
		now:    time.Now,
	}
	items, err := store.Load()
	if err != nil {
		e.logger.Warn("failed to load snapshot store, starting empty", logging.Error(err))
		items = nil
	}
	e.items = items
	return e
}

// Create captures a new named snapshot. Names must be unique within the
// collection, compared case-insensitively.
func (e *Engine) Create(name string, states []TrackState) (Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Snapshot{}, fmt.Errorf("%w: snapshot name required", services.ErrValidation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.findByNameLocked(name) >= 0 {
		return Snapshot{}, fmt.Errorf("%w %q", ErrDuplicateName, name)
	}

	snap := Snapshot{
		ID:          uuid.NewString(),
		Name:        name,
		TrackStates: append([]TrackState(nil), states...),
		CreatedAt:   e.now().UTC(),
	}
	e.items = append(e.items, snap)
	err := e.persistLocked("create")
	e.logger.Info("snapshot created",
		logging.String(logging.FieldSnapshot, snap.Name),
		logging.Int("tracks", len(snap.TrackStates)))
	return snap.Clone(), err
}

// CaptureFromTracks creates a snapshot from live session track state. An
// empty name gets a suggestion derived from the soloed tracks.
func (e *Engine) CaptureFromTracks(name string, tracks []Track) (Snapshot, error) {
	states := StatesFromTracks(tracks)
	if strings.TrimSpace(name) == "" {
		name = e.SuggestName(states)
	}
	return e.Create(name, states)
}

// Get returns the snapshot with the given ID.
func (e *Engine) Get(id string) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.findByIDLocked(id)
	if i < 0 {
		return Snapshot{}, fmt.Errorf("%w %q", ErrNotFound, id)
	}
	return e.items[i].Clone(), nil
}

// GetByName returns the snapshot with the given name, compared
// case-insensitively.
func (e *Engine) GetByName(name string) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.findByNameLocked(name)
	if i < 0 {
		return Snapshot{}, fmt.Errorf("%w %q", ErrNotFound, name)
	}
	return e.items[i].Clone(), nil
}

// List returns the full collection in creation order.
func (e *Engine) List() []Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Snapshot, len(e.items))
	for i, s := range e.items {
		out[i] = s.Clone()
	}
	return out
}

// Apply mutates the identified snapshot in place. Renames keep the
// uniqueness guarantee; renaming a snapshot to its own name is allowed.
func (e *Engine) Apply(id string, upd Update) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.findByIDLocked(id)
	if i < 0 {
		return Snapshot{}, fmt.Errorf("%w %q", ErrNotFound, id)
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return Snapshot{}, fmt.Errorf("%w: snapshot name required", services.ErrValidation)
		}
		if j := e.findByNameLocked(name); j >= 0 && j != i {
			return Snapshot{}, fmt.Errorf("%w %q", ErrDuplicateName, name)
		}
		e.items[i].Name = name
	}
	if upd.TrackStates != nil {
		e.items[i].TrackStates = append([]TrackState(nil), (*upd.TrackStates)...)
	}
	e.items[i].UpdatedAt = e.now().UTC()
	err := e.persistLocked("update")
	return e.items[i].Clone(), err
}

// Delete removes the snapshot with the given ID. Deleting an unknown ID is
// not an error.
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
	e.logger.Info("snapshot deleted", logging.String(logging.FieldSnapshot, name))
	return err
}

// Clear removes every snapshot from memory and from the store.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = nil
	if err := e.store.Clear(); err != nil {
		e.logger.Warn("failed to clear snapshot store", logging.Error(err))
		return err
	}
	return nil
}

// Reload discards the in-memory collection and re-reads the store. Used when
// the backing file changed underneath us.
func (e *Engine) Reload() error {
	items, err := e.store.Load()
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.items = items
	e.mu.Unlock()
	e.logger.Debug("snapshot collection reloaded", logging.Int("count", len(items)))
	return nil
}

// StorageInfo reports where the collection is persisted.
func (e *Engine) StorageInfo() StorageInfo {
	return e.store.Info()
}

// Count returns the number of snapshots.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

// SuggestName derives a capture name from the current track selection,
// falling back to a timestamped default when nothing is soloed.
func (e *Engine) SuggestName(states []TrackState) string {
	var soloed []string
	for _, st := range states {
		if st.IsSoloed {
			soloed = append(soloed, st.TrackName)
		}
	}
	if len(soloed) == 0 {
		return "Snapshot " + e.now().UTC().Format("2006-01-02 15.04.05")
	}
	sort.Strings(soloed)
	title := cases.Title(language.English, cases.NoLower)
	base := title.String(strings.Join(soloed[:min(len(soloed), 3)], " + "))
	if len(soloed) > 3 {
		base = fmt.Sprintf("%s + %d more", base, len(soloed)-3)
	}
	return e.uniqueName(base)
}

// uniqueName appends a numeric suffix until base no longer collides with an
// existing snapshot name.
func (e *Engine) uniqueName(base string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := base
	for n := 2; e.findByNameLocked(name) >= 0; n++ {
		name = fmt.Sprintf("%s %d", base, n)
	}
	return name
}

func (e *Engine) findByIDLocked(id string) int {
	for i, s := range e.items {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) findByNameLocked(name string) int {
	for i, s := range e.items {
		if strings.EqualFold(s.Name, name) {
			return i
		}
	}
	return -1
}

// persistLocked saves the collection. The in-memory mutation stands even on
// failure; callers get the storage error back and StorageInfo surfaces the
// degraded state.
func (e *Engine) persistLocked(op string) error {
	err := e.store.Save(e.items)
	if err != nil {
		e.logger.Warn("failed to persist snapshots",
			logging.String("operation", op),
			logging.Error(err))
	}
	return err
}
