package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"stemline/internal/export"
	"stemline/internal/snapshot"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, env.configPath, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, env.configPath, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestSessionStatusConnectedAndNot(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "session", "status")
	if err != nil {
		t.Fatalf("session status: %v", err)
	}
	requireContains(t, out, "Test Session")
	requireContains(t, out, "[OK]")

	env.service.Disconnect()
	out, _, err = runCLI(t, env.configPath, "session", "status")
	if err != nil {
		t.Fatalf("session status disconnected: %v", err)
	}
	requireContains(t, out, "no session service reachable")
}

func TestSnapshotCaptureListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	env.service.Lock(func() {
		env.service.TracksList = []snapshot.Track{
			{ID: "1", Name: "Kick", Type: snapshot.TrackAudio, IsSoloed: true},
			{ID: "2", Name: "Snare", Type: snapshot.TrackAudio, IsMuted: true},
			{ID: "3", Name: "Bass", Type: snapshot.TrackAudio},
		}
	})

	out, _, err := runCLI(t, env.configPath, "snapshot", "create", "--name", "Drums Up")
	if err != nil {
		t.Fatalf("snapshot create: %v", err)
	}
	requireContains(t, out, `Captured "Drums Up": 3 tracks (1 solo, 1 mute)`)

	// A fresh invocation must see the snapshot through the on-disk store.
	out, _, err = runCLI(t, env.configPath, "snapshot", "list")
	if err != nil {
		t.Fatalf("snapshot list: %v", err)
	}
	requireContains(t, out, "Drums Up")

	out, _, err = runCLI(t, env.configPath, "snapshot", "show", "Drums Up")
	if err != nil {
		t.Fatalf("snapshot show: %v", err)
	}
	requireContains(t, out, "Kick")
	requireContains(t, out, "Snare")

	if _, _, err := runCLI(t, env.configPath, "snapshot", "create", "--name", "drums up"); err == nil {
		t.Fatal("expected duplicate name rejection")
	}

	out, _, err = runCLI(t, env.configPath, "snapshot", "rename", "Drums Up", "Drum Bus")
	if err != nil {
		t.Fatalf("snapshot rename: %v", err)
	}
	requireContains(t, out, `Renamed "Drums Up" to "Drum Bus"`)

	if _, _, err := runCLI(t, env.configPath, "snapshot", "delete", "Drum Bus"); err != nil {
		t.Fatalf("snapshot delete: %v", err)
	}
	out, _, _ = runCLI(t, env.configPath, "snapshot", "list")
	requireContains(t, out, "No snapshots saved")
}

func TestPresetLifecycleAndPaging(t *testing.T) {
	env := setupCLITestEnv(t)

	for _, name := range []string{"Stems", "Rough Mix", "Print Master", "Cue Mix"} {
		if _, _, err := runCLI(t, env.configPath, "preset", "create", name, "--mix-source", "Out 1-2"); err != nil {
			t.Fatalf("preset create %s: %v", name, err)
		}
	}

	out, _, err := runCLI(t, env.configPath, "preset", "list", "--page", "2")
	if err != nil {
		t.Fatalf("preset list: %v", err)
	}
	requireContains(t, out, "Cue Mix")
	requireContains(t, out, "Page 2 of 2 (4 presets total)")

	out, _, err = runCLI(t, env.configPath, "preset", "edit", "Stems", "--format", "aiff")
	if err != nil {
		t.Fatalf("preset edit: %v", err)
	}
	requireContains(t, out, `Updated preset "Stems"`)

	exportPath := filepath.Join(t.TempDir(), "presets.json")
	if _, _, err := runCLI(t, env.configPath, "preset", "export", exportPath); err != nil {
		t.Fatalf("preset export: %v", err)
	}
	if _, _, err := runCLI(t, env.configPath, "preset", "import", exportPath); err != nil {
		t.Fatalf("preset import: %v", err)
	}

	out, _, err = runCLI(t, env.configPath, "preset", "list", "--all")
	if err != nil {
		t.Fatalf("preset list all: %v", err)
	}
	requireContains(t, out, "aiff")
}

func TestExportRunCompletes(t *testing.T) {
	env := setupCLITestEnv(t)
	env.service.Lock(func() {
		env.service.TracksList = []snapshot.Track{
			{ID: "1", Name: "Lead Vox", Type: snapshot.TrackAudio, IsSoloed: true},
		}
		env.service.Statuses = []export.Task{
			{
				TaskID:          env.service.TaskID,
				Status:          export.StatusCompleted,
				Progress:        100,
				CurrentSnapshot: 1,
				TotalSnapshots:  1,
				CreatedAt:       time.Now().UTC(),
				Result: &export.Result{
					Success:       true,
					ExportedFiles: []string{"/tmp/stems/Lead Vox.wav"},
					TotalDuration: 2.5,
				},
			},
		}
	})

	if _, _, err := runCLI(t, env.configPath, "snapshot", "create", "--name", "Vox"); err != nil {
		t.Fatalf("snapshot create: %v", err)
	}

	out, _, err := runCLI(t, env.configPath,
		"export", "run", "Vox", "--output", "/tmp/stems", "--mix-source", "Out 1-2")
	if err != nil {
		t.Fatalf("export run: %v", err)
	}
	requireContains(t, out, "Exported 1 files in 2.5s")
	requireContains(t, out, "Lead Vox.wav")

	env.service.Lock(func() {
		if env.service.StartCalls != 1 {
			t.Errorf("expected one export start, got %d", env.service.StartCalls)
		}
	})
}

func TestExportRunRejectsMissingMixSource(t *testing.T) {
	env := setupCLITestEnv(t)
	env.service.Lock(func() {
		env.service.TracksList = []snapshot.Track{
			{ID: "1", Name: "Bass", Type: snapshot.TrackAudio},
		}
	})
	if _, _, err := runCLI(t, env.configPath, "snapshot", "create", "--name", "All"); err != nil {
		t.Fatalf("snapshot create: %v", err)
	}

	_, _, err := runCLI(t, env.configPath, "export", "run", "All", "--output", "/tmp/stems")
	if err == nil {
		t.Fatal("expected validation error for missing mix source")
	}
	requireContains(t, err.Error(), "mix source name required")
}

func TestHistoryDisabledMessage(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "History recording is disabled")
}
