package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"stemline/internal/export"
)

// Entry is one recorded export run.
type Entry struct {
	ID              string
	TaskID          string
	Status          export.Status
	SnapshotCount   int
	ExportedCount   int
	FailedSnapshots []string
	OutputPath      string
	DurationSeconds float64
	Error           string
	CreatedAt       time.Time
	CompletedAt     time.Time
}

// Stats aggregates the recorded runs.
type Stats struct {
	TotalRuns     int
	CompletedRuns int
	FailedRuns    int
	CancelledRuns int
	ExportedFiles int
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS export_runs (
    id               TEXT PRIMARY KEY,
    task_id          TEXT NOT NULL,
    status           TEXT NOT NULL,
    snapshot_count   INTEGER NOT NULL DEFAULT 0,
    exported_count   INTEGER NOT NULL DEFAULT 0,
    failed           TEXT,
    output_path      TEXT,
    duration_seconds REAL NOT NULL DEFAULT 0,
    error            TEXT,
    created_at       TEXT NOT NULL,
    completed_at     TEXT
);
CREATE INDEX IF NOT EXISTS idx_export_runs_created_at ON export_runs(created_at);
`

// Store persists export run records.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record satisfies export.Recorder: it inserts one finished run.
func (s *Store) Record(record export.RunRecord) error {
	return s.Insert(context.Background(), Entry{
		TaskID:          record.TaskID,
		Status:          record.Status,
		SnapshotCount:   record.SnapshotCount,
		ExportedCount:   record.ExportedCount,
		FailedSnapshots: record.FailedSnapshots,
		OutputPath:      record.OutputPath,
		DurationSeconds: record.DurationSeconds,
		Error:           record.Error,
		CreatedAt:       record.CreatedAt,
		CompletedAt:     record.CompletedAt,
	})
}

// Insert stores one run record. A missing ID gets a fresh one.
func (s *Store) Insert(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	var failedJSON any
	if len(entry.FailedSnapshots) > 0 {
		data, err := json.Marshal(entry.FailedSnapshots)
		if err != nil {
			return fmt.Errorf("marshal failed snapshots: %w", err)
		}
		failedJSON = string(data)
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO export_runs (
            id, task_id, status, snapshot_count, exported_count,
            failed, output_path, duration_seconds, error, created_at, completed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.TaskID,
		string(entry.Status),
		entry.SnapshotCount,
		entry.ExportedCount,
		failedJSON,
		nullableString(entry.OutputPath),
		entry.DurationSeconds,
		nullableString(entry.Error),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		nullableTime(entry.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert export run: %w", err)
	}
	return nil
}

const entryColumns = "id, task_id, status, snapshot_count, exported_count, failed, output_path, duration_seconds, error, created_at, completed_at"

// List returns recorded runs, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := "SELECT " + entryColumns + " FROM export_runs ORDER BY created_at DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list export runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Get returns one run by ID or task ID.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM export_runs WHERE id = ? OR task_id = ?", id, id)
	entry, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Remove deletes one run by ID or task ID. Removing an unknown ID is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM export_runs WHERE id = ? OR task_id = ?", id, id); err != nil {
		return fmt.Errorf("remove export run: %w", err)
	}
	return nil
}

// Clear deletes all recorded runs.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM export_runs"); err != nil {
		return fmt.Errorf("clear export runs: %w", err)
	}
	return nil
}

// Stats aggregates the recorded runs.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT
            COUNT(1),
            COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN status IN ('failed', 'completed_with_errors') THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(exported_count), 0)
        FROM export_runs`)

	var stats Stats
	if err := row.Scan(
		&stats.TotalRuns,
		&stats.CompletedRuns,
		&stats.FailedRuns,
		&stats.CancelledRuns,
		&stats.ExportedFiles,
	); err != nil {
		return Stats{}, fmt.Errorf("aggregate export runs: %w", err)
	}
	return stats, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry        Entry
		statusStr    string
		failedRaw    sql.NullString
		outputPath   sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		completedRaw sql.NullString
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.TaskID,
		&statusStr,
		&entry.SnapshotCount,
		&entry.ExportedCount,
		&failedRaw,
		&outputPath,
		&entry.DurationSeconds,
		&errorMessage,
		&createdRaw,
		&completedRaw,
	); err != nil {
		return Entry{}, err
	}

	entry.Status = export.Status(statusStr)
	entry.OutputPath = outputPath.String
	entry.Error = errorMessage.String
	if failedRaw.Valid && failedRaw.String != "" {
		if err := json.Unmarshal([]byte(failedRaw.String), &entry.FailedSnapshots); err != nil {
			return Entry{}, fmt.Errorf("decode failed snapshots: %w", err)
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		entry.CreatedAt = ts
	}
	if completedRaw.Valid {
		if ts, err := time.Parse(time.RFC3339Nano, completedRaw.String); err == nil {
			entry.CompletedAt = ts
		}
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}
