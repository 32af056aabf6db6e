package gateway

import (
	"context"
	"path/filepath"

	"stemline/internal/snapshot"
)

// SnapshotDirResolver derives the snapshot store location from the connected
// session: a dirName subdirectory next to the session file. While
// disconnected the resolver reports no location, so snapshot persistence
// degrades to memory-only.
func SnapshotDirResolver(g Gateway, dirName string) snapshot.PathResolver {
	return func() (string, bool) {
		status := g.Status(context.Background())
		if !status.Connected || status.SessionPath == "" {
			return "", false
		}
		return filepath.Join(filepath.Dir(status.SessionPath), dirName), true
	}
}
