// Package history is the durable log of finished export runs, backed by
// SQLite. It is a local record only; the session service remains the source
// of truth for in-flight tasks.
package history
