package preset

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"stemline/internal/fileutil"
	"stemline/internal/logging"
	"stemline/internal/services"
)

// Store persists the full preset collection.
type Store interface {
	Load() ([]ExportPreset, error)
	Save(presets []ExportPreset) error
	Clear() error
	Info() StorageInfo
}

// StorageInfo describes where (and whether) presets are durably persisted.
type StorageInfo struct {
	Available bool
	Path      string
}

// FileStore persists presets as a single JSON document in a fixed user-level
// location. A flock sidecar guards against two processes rewriting the file
// at the same time.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore constructs a FileStore at path. The advisory lock lives next
// to the store file.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Load reads the persisted collection; a missing file is an empty collection.
func (s *FileStore) Load() ([]ExportPreset, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrStorage, "preset", "load", "", err)
	}
	var presets []ExportPreset
	if err := json.Unmarshal(data, &presets); err != nil {
		return nil, services.Wrap(services.ErrStorage, "preset", "load", "corrupt store file", err)
	}
	return presets, nil
}

// Save overwrites the entire collection atomically.
func (s *FileStore) Save(presets []ExportPreset) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.lock.Unlock()

	if presets == nil {
		presets = []ExportPreset{}
	}
	data, err := json.MarshalIndent(presets, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrStorage, "preset", "save", "encode collection", err)
	}
	if err := fileutil.WriteAtomic(s.path, data); err != nil {
		return services.Wrap(services.ErrStorage, "preset", "save", "", err)
	}
	return nil
}

// Clear removes every persisted preset.
func (s *FileStore) Clear() error {
	return s.Save(nil)
}

// Info reports the store location.
func (s *FileStore) Info() StorageInfo {
	return StorageInfo{Available: true, Path: s.path}
}

func (s *FileStore) acquire() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "preset", "lock", "create store directory", err)
	}
	if err := s.lock.Lock(); err != nil {
		return services.Wrap(services.ErrStorage, "preset", "lock", "acquire store lock", err)
	}
	return nil
}

// MemoryStore holds the collection in process memory only. Used as the
// fallback backend when the file store is unreachable.
type MemoryStore struct {
	mu      sync.Mutex
	presets []ExportPreset
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() ([]ExportPreset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ExportPreset, len(s.presets))
	copy(out, s.presets)
	return out, nil
}

func (s *MemoryStore) Save(presets []ExportPreset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presets = make([]ExportPreset, len(presets))
	copy(s.presets, presets)
	return nil
}

func (s *MemoryStore) Clear() error {
	return s.Save(nil)
}

func (s *MemoryStore) Info() StorageInfo {
	return StorageInfo{Available: false}
}

// ChainStore is an ordered pair of backends. The primary is authoritative
// whenever it is reachable; the fallback mirrors every write so reads keep
// working when the primary degrades mid-session.
type ChainStore struct {
	primary  Store
	fallback Store
	logger   *slog.Logger
}

// NewChainStore wires primary over fallback.
func NewChainStore(primary, fallback Store, logger *slog.Logger) *ChainStore {
	return &ChainStore{
		primary:  primary,
		fallback: fallback,
		logger:   logging.NewComponentLogger(logger, "preset-store"),
	}
}

// Load reads from the primary, falling back to the mirror on failure.
func (s *ChainStore) Load() ([]ExportPreset, error) {
	presets, err := s.primary.Load()
	if err == nil {
		// Keep the mirror warm for later fallback reads.
		_ = s.fallback.Save(presets)
		return presets, nil
	}
	s.logger.Warn("primary preset store unreadable, using fallback", logging.Error(err))
	return s.fallback.Load()
}

// Save writes to the mirror first (cannot fail), then the primary. A primary
// failure is surfaced so the caller can warn that the change is not durable.
func (s *ChainStore) Save(presets []ExportPreset) error {
	_ = s.fallback.Save(presets)
	if err := s.primary.Save(presets); err != nil {
		s.logger.Warn("primary preset store save failed, change held in memory", logging.Error(err))
		return err
	}
	return nil
}

func (s *ChainStore) Clear() error {
	return s.Save(nil)
}

func (s *ChainStore) Info() StorageInfo {
	return s.primary.Info()
}
