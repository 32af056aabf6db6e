package snapshot

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"stemline/internal/fileutil"
	"stemline/internal/services"
)

// Store persists the full snapshot collection.
type Store interface {
	Load() ([]Snapshot, error)
	Save(snapshots []Snapshot) error
	Clear() error
	Info() StorageInfo
}

// StorageInfo describes where (and whether) snapshots are durably persisted.
type StorageInfo struct {
	Available bool
	Path      string
}

// PathResolver reports the directory the snapshot store should live in,
// typically derived from the connected session's project path. ok is false
// when no session is connected and persistence is unavailable.
type PathResolver func() (dir string, ok bool)

// FixedDir returns a PathResolver that always resolves to dir.
func FixedDir(dir string) PathResolver {
	return func() (string, bool) { return dir, true }
}

// FileStore persists snapshots as a single JSON document with
// write-then-rename semantics. The location is resolved on every operation so
// the store follows the active session.
type FileStore struct {
	resolve  PathResolver
	fileName string
}

// NewFileStore constructs a FileStore rooted at the resolver's directory.
func NewFileStore(resolve PathResolver, fileName string) *FileStore {
	return &FileStore{resolve: resolve, fileName: fileName}
}

// Load reads the persisted collection. A missing file or a disconnected
// session yields an empty collection; unexpected I/O failure is a storage
// error the caller may treat as "start empty".
func (s *FileStore) Load() ([]Snapshot, error) {
	path, ok := s.path()
	if !ok {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrStorage, "snapshot", "load", "", err)
	}
	var snapshots []Snapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, services.Wrap(services.ErrStorage, "snapshot", "load", "corrupt store file", err)
	}
	return snapshots, nil
}

// Save overwrites the entire collection atomically, creating the destination
// directory if absent.
func (s *FileStore) Save(snapshots []Snapshot) error {
	path, ok := s.path()
	if !ok {
		return services.Wrap(services.ErrStorage, "snapshot", "save", "no session connected", nil)
	}
	if snapshots == nil {
		snapshots = []Snapshot{}
	}
	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrStorage, "snapshot", "save", "encode collection", err)
	}
	if err := fileutil.WriteAtomic(path, data); err != nil {
		return services.Wrap(services.ErrStorage, "snapshot", "save", "", err)
	}
	return nil
}

// Clear removes every persisted snapshot.
func (s *FileStore) Clear() error {
	return s.Save(nil)
}

// Info reports the resolved store location and its availability.
func (s *FileStore) Info() StorageInfo {
	path, ok := s.path()
	return StorageInfo{Available: ok, Path: path}
}

func (s *FileStore) path() (string, bool) {
	dir, ok := s.resolve()
	if !ok || dir == "" {
		return "", false
	}
	return filepath.Join(dir, s.fileName), true
}
