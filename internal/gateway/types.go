package gateway

import (
	"stemline/internal/export"
	"stemline/internal/snapshot"
)

// SessionStatus is the connection state of the session service plus session
// metadata when connected.
type SessionStatus struct {
	Connected   bool
	SessionName string
	SessionPath string
	SampleRate  int
	BitDepth    int
	TrackCount  int
}

// SnapshotInfo is the session service's diagnostic view of one snapshot.
type SnapshotInfo struct {
	TotalTracks  int `json:"total_tracks"`
	MutedTracks  int `json:"muted_tracks"`
	SoloedTracks int `json:"soloed_tracks"`
	NormalTracks int `json:"normal_tracks"`
}

// envelope is the session service's common response wrapper.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type sessionInfoResponse struct {
	SessionName string `json:"session_name"`
	SessionPath string `json:"session_path"`
	SampleRate  int    `json:"sample_rate"`
	BitDepth    int    `json:"bit_depth"`
	TrackCount  int    `json:"track_count"`
}

type trackListResponse struct {
	envelope
	Tracks     []snapshot.Track `json:"tracks"`
	TotalCount int              `json:"total_count"`
}

type startExportRequest struct {
	Snapshots      []snapshot.Snapshot `json:"snapshots"`
	ExportSettings export.Settings     `json:"export_settings"`
}

type startExportResponse struct {
	envelope
	TaskID string `json:"task_id"`
}

type exportStatusResponse struct {
	envelope
	Data export.Task `json:"data"`
}

type applySnapshotRequest struct {
	Snapshot          snapshot.Snapshot `json:"snapshot"`
	RestoreAutomation bool              `json:"restore_automation"`
	RestorePlugins    bool              `json:"restore_plugins"`
	RestoreSends      bool              `json:"restore_sends"`
}

type snapshotInfoResponse struct {
	envelope
	Snapshot   snapshot.Snapshot `json:"snapshot"`
	Statistics SnapshotInfo      `json:"statistics"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
