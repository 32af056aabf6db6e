package services

import "context"

type contextKey string

const (
	taskIDKey   contextKey = "task_id"
	snapshotKey contextKey = "snapshot"
)

// WithTaskID annotates context with the export task identifier.
func WithTaskID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, taskIDKey, id)
}

// TaskIDFromContext extracts the export task identifier if present.
func TaskIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(taskIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSnapshotName annotates context with the snapshot currently in flight.
func WithSnapshotName(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, snapshotKey, name)
}

// SnapshotNameFromContext returns the in-flight snapshot name if present.
func SnapshotNameFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(snapshotKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
