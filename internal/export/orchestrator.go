package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stemline/internal/logging"
	"stemline/internal/services"
	"stemline/internal/snapshot"
)

// Client is the session service surface the orchestrator needs. The gateway
// package provides the production implementation.
type Client interface {
	StartExport(ctx context.Context, snapshots []snapshot.Snapshot, settings Settings) (taskID string, err error)
	ExportStatus(ctx context.Context, taskID string) (Task, error)
	StopExport(ctx context.Context, taskID string) error
}

// RunRecord is the durable summary of one finished export run.
type RunRecord struct {
	TaskID          string
	Status          Status
	SnapshotCount   int
	ExportedCount   int
	FailedSnapshots []string
	OutputPath      string
	DurationSeconds float64
	Error           string
	CreatedAt       time.Time
	CompletedAt     time.Time
}

// Recorder receives finished runs. Recording is best-effort; failures are
// logged, never propagated into the export flow.
type Recorder interface {
	Record(record RunRecord) error
}

// ErrExportInProgress marks an attempt to start a run while one is active.
var ErrExportInProgress = fmt.Errorf("%w: an export is already running", services.ErrValidation)

// ErrStopped is the terminal error of a user-cancelled run.
var ErrStopped = errors.New("export stopped by user")

const defaultPollInterval = time.Second

// Options tunes orchestrator behavior.
type Options struct {
	// PollInterval is the delay between status polls. Zero selects one
	// second.
	PollInterval time.Duration
	// FailureLimit is how many consecutive transport failures the poll
	// loop tolerates before abandoning the task. Zero selects 1, failing
	// on the first error.
	FailureLimit int
	// Recorder, when set, receives a RunRecord at each terminal state.
	Recorder Recorder
	// OnUpdate, when set, is invoked with the mirrored task after every
	// poll response and at terminal transitions. Called without the
	// orchestrator lock held.
	OnUpdate func(Task)
}

// Orchestrator tracks one export task at a time: submit, poll until
// terminal, cancel. Safe for concurrent use; late poll responses from a
// superseded run are discarded by generation.
type Orchestrator struct {
	client   Client
	logger   *slog.Logger
	interval time.Duration
	limit    int
	recorder Recorder
	onUpdate func(Task)

	mu         sync.Mutex
	generation int
	running    bool
	task       *Task
	runErr     error
	done       chan struct{}
	cancelPoll context.CancelFunc
	startedAt  time.Time
	outputPath string
	count      int
}

// NewOrchestrator constructs an idle orchestrator.
func NewOrchestrator(client Client, logger *slog.Logger, opts Options) *Orchestrator {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	limit := opts.FailureLimit
	if limit <= 0 {
		limit = 1
	}
	return &Orchestrator{
		client:   client,
		logger:   logging.NewComponentLogger(logger, "export"),
		interval: interval,
		limit:    limit,
		recorder: opts.Recorder,
		onUpdate: opts.OnUpdate,
	}
}

// Start validates the run and submits it to the session service, then begins
// polling in the background. Validation failures and submission rejections
// leave the orchestrator idle.
func (o *Orchestrator) Start(ctx context.Context, snapshots []snapshot.Snapshot, settings Settings) error {
	if len(snapshots) == 0 {
		return fmt.Errorf("%w: no snapshots selected", services.ErrValidation)
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return ErrExportInProgress
	}
	o.running = true
	o.generation++
	gen := o.generation
	o.task = nil
	o.runErr = nil
	o.done = make(chan struct{})
	o.startedAt = time.Now()
	o.outputPath = settings.OutputPath
	o.count = len(snapshots)
	o.mu.Unlock()

	taskID, err := o.client.StartExport(ctx, snapshots, settings)
	if err != nil {
		o.mu.Lock()
		defer o.mu.Unlock()
		if gen != o.generation {
			return err
		}
		o.task = &Task{Status: StatusFailed, TotalSnapshots: len(snapshots)}
		o.finishLocked(fmt.Errorf("failed to start export task: %w", err))
		return o.runErr
	}

	pollCtx, cancel := context.WithCancel(services.WithTaskID(context.Background(), taskID))
	o.mu.Lock()
	if gen != o.generation {
		// Cancelled while the submit call was in flight.
		o.mu.Unlock()
		cancel()
		return ErrStopped
	}
	o.cancelPoll = cancel
	o.task = &Task{
		TaskID:         taskID,
		Status:         StatusPending,
		TotalSnapshots: len(snapshots),
		CreatedAt:      o.startedAt,
	}
	o.mu.Unlock()

	o.logger.Info("export task started",
		logging.String(logging.FieldTaskID, taskID),
		logging.Int("snapshots", len(snapshots)))
	go o.poll(pollCtx, gen, taskID)
	return nil
}

// poll repeatedly fetches task status until a terminal state, a transport
// failure past the budget, or cancellation. The next poll is scheduled only
// after the previous response is processed, so polls never overlap.
func (o *Orchestrator) poll(ctx context.Context, gen int, taskID string) {
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(o.interval):
		}

		latest, err := o.client.ExportStatus(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			o.logger.Warn("export status poll failed",
				logging.String(logging.FieldTaskID, taskID),
				logging.Int("consecutive_failures", failures),
				logging.Error(err))
			if failures < o.limit {
				continue
			}
			o.completePoll(gen, nil, fmt.Errorf("failed to get export status: %w", err))
			return
		}
		failures = 0

		if done := o.completePoll(gen, &latest, nil); done {
			return
		}
	}
}

// completePoll folds one poll outcome into the mirrored task. Returns true
// when polling should stop. A generation mismatch means the run was
// cancelled or reset while the response was in flight; the response is
// discarded.
func (o *Orchestrator) completePoll(gen int, latest *Task, pollErr error) bool {
	o.mu.Lock()
	if gen != o.generation || !o.running {
		o.mu.Unlock()
		return true
	}

	if pollErr != nil {
		if o.task != nil {
			o.task.Status = StatusFailed
		}
		o.finishLocked(pollErr)
		o.mu.Unlock()
		o.notify()
		return true
	}

	// The session service is authoritative: replace the mirror wholesale.
	// Progress alone is clamped non-decreasing while the task is active so
	// the UI never walks backwards.
	if o.task != nil && latest.Status.Active() && latest.Progress < o.task.Progress {
		latest.Progress = o.task.Progress
	}
	o.task = latest

	var terminal bool
	switch latest.Status {
	case StatusPending, StatusRunning:
	case StatusCompleted:
		terminal = true
		o.finishLocked(nil)
	case StatusFailed, StatusCompletedWithErrors:
		terminal = true
		o.finishLocked(errors.New(resultError(latest)))
	case StatusCancelled:
		terminal = true
		o.finishLocked(errors.New("export was cancelled"))
	default:
		terminal = true
		unknown := latest.Status
		o.task.Status = StatusFailed
		o.finishLocked(fmt.Errorf("unknown export status: %s", unknown))
	}
	o.mu.Unlock()
	o.notify()
	return terminal
}

// Cancel stops an active run: the poll loop is torn down first so no further
// poll fires, the session service is told to stop best-effort, and the local
// state becomes terminal immediately without waiting for confirmation.
func (o *Orchestrator) Cancel(ctx context.Context) {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.generation++
	if o.cancelPoll != nil {
		o.cancelPoll()
		o.cancelPoll = nil
	}
	var taskID string
	if o.task != nil {
		taskID = o.task.TaskID
		o.task.Status = StatusCancelled
	}
	o.finishLocked(ErrStopped)
	o.mu.Unlock()
	o.notify()

	if taskID != "" {
		if err := o.client.StopExport(ctx, taskID); err != nil {
			o.logger.Warn("stop request failed",
				logging.String(logging.FieldTaskID, taskID),
				logging.Error(err))
		}
	}
	o.logger.Info("export cancelled", logging.String(logging.FieldTaskID, taskID))
}

// Reset clears all task and error state, returning to idle. An active run is
// cancelled first.
func (o *Orchestrator) Reset(ctx context.Context) {
	o.Cancel(ctx)

	o.mu.Lock()
	o.generation++
	o.task = nil
	o.runErr = nil
	o.done = nil
	o.mu.Unlock()
}

// Running reports whether a run is in flight.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Task returns a copy of the mirrored task, if any.
func (o *Orchestrator) Task() (Task, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.task == nil {
		return Task{}, false
	}
	return *o.task, true
}

// Err returns the terminal error of the last run, nil after success or while
// still running.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.runErr
}

// Done returns a channel closed when the current run reaches a terminal
// state. Returns nil when no run has been started since the last Reset.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

/// finishLocked transitions to a terminal state: stops the poll loop, records
// the run, and releases Done waiters. Caller holds the lock.
func (o *Orchestrator) finishLocked(runErr error) {
	if !o.running {
		return
	}
	o.running = false
	o.runErr = runErr
	if o.cancelPoll != nil {
		o.cancelPoll()
		o.cancelPoll = nil
	}
	o.recordLocked()
	if o.done != nil {
		close(o.done)
	}
}

// recordLocked hands the finished run to the recorder. Best-effort.
func (o *Orchestrator) recordLocked() {
	if o.recorder == nil || o.task == nil {
		return
	}
	record := RunRecord{
		TaskID:        o.task.TaskID,
		Status:        o.task.Status,
		SnapshotCount: o.count,
		OutputPath:    o.outputPath,
		CreatedAt:     o.startedAt.UTC(),
		CompletedAt:   time.Now().UTC(),
	}
	if o.runErr != nil {
		record.Error = o.runErr.Error()
	}
	if r := o.task.Result; r != nil {
		record.ExportedCount = len(r.ExportedFiles)
		record.FailedSnapshots = append([]string(nil), r.FailedSnapshots...)
		record.DurationSeconds = r.TotalDuration
	}
	if err := o.recorder.Record(record); err != nil {
		o.logger.Warn("failed to record export run", logging.Error(err))
	}
}

// notify invokes the progress callback with the current task copy. Called
// without the lock held.
func (o *Orchestrator) notify() {
	if o.onUpdate == nil {
		return
	}
	if task, ok := o.Task(); ok {
		o.onUpdate(task)
	}
}

// resultError picks the user-visible message for an unsuccessful task.
func resultError(task *Task) string {
	if task.Result != nil && task.Result.ErrorMessage != "" {
		return task.Result.ErrorMessage
	}
	if task.Status == StatusCompletedWithErrors {
		return "export completed with errors"
	}
	return "export failed"
}
