package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stemline/internal/logging"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesConsoleOutputToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "stemline.log")

	logger, err := logging.New(logging.Options{
		Level:            "debug",
		Format:           "console",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("export started", logging.String(logging.FieldTaskID, "export_1"), logging.Int("snapshots", 2))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "INFO export started") {
		t.Fatalf("missing message in output: %q", out)
	}
	if !strings.Contains(out, "task_id=export_1") || !strings.Contains(out, "snapshots=2") {
		t.Fatalf("missing attrs in output: %q", out)
	}
}

func TestComponentRenderedAsPrefix(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "stemline.log")

	base, err := logging.New(logging.Options{
		Format:           "console",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger := logging.NewComponentLogger(base, "orchestrator")
	logger.Info("polling stopped")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "orchestrator: polling stopped") {
		t.Fatalf("component prefix missing: %q", string(data))
	}
	if strings.Contains(string(data), "component=") {
		t.Fatalf("component should not appear as a field: %q", string(data))
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("should not panic", logging.Error(nil))
}
