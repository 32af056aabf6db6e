// Package snapshot implements named captures of per-track solo/mute state and
// their persistence.
//
// A Snapshot is a deep copy of the live track list at capture time; later
// changes to the session never alter a saved snapshot. The Engine enforces
// case-insensitive name uniqueness and owns the in-memory collection, the
// FileStore persists the whole collection as one JSON document beneath the
// connected session's project directory, and the Watcher reloads the engine
// when that document changes on disk.
package snapshot
