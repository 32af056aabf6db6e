package export

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an export task as reported by the
// session service.
type Status string

const (
	StatusPending             Status = "pending"
	StatusRunning             Status = "running"
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed_with_errors"
	StatusFailed              Status = "failed"
	StatusCancelled           Status = "cancelled"
)

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusCompletedWithErrors,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var terminalStatuses = map[Status]struct{}{
	StatusCompleted:           {},
	StatusCompletedWithErrors: {},
	StatusFailed:              {},
	StatusCancelled:           {},
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := statusSet[status]; !ok {
		return "", false
	}
	return status, true
}

// Terminal reports whether the status can never change again.
func (s Status) Terminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// Active reports whether the task is still being worked on.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusRunning
}

// Task mirrors the session service's view of one export run. Field names
// follow its wire format.
type Task struct {
	TaskID              string    `json:"task_id"`
	Status              Status    `json:"status"`
	Progress            float64   `json:"progress"`
	CurrentSnapshot     int       `json:"current_snapshot"`
	TotalSnapshots      int       `json:"total_snapshots"`
	CurrentSnapshotName string    `json:"current_snapshot_name,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	StartedAt           time.Time `json:"started_at,omitzero"`
	CompletedAt         time.Time `json:"completed_at,omitzero"`
	Result              *Result   `json:"result,omitempty"`
}

// Result is the outcome of a finished export task.
type Result struct {
	Success         bool     `json:"success"`
	ExportedFiles   []string `json:"exported_files"`
	FailedSnapshots []string `json:"failed_snapshots"`
	TotalDuration   float64  `json:"total_duration"`
	ErrorMessage    string   `json:"error_message,omitempty"`
}
